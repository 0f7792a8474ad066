package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"mindful_server/adapter/out/badgerstore"
	"mindful_server/core/port/in"
	"mindful_server/pkg/apperr"

	"golang.org/x/crypto/bcrypt"
)

func TestRegister_ConcurrentSameEmail(t *testing.T) {
	store, err := badgerstore.Open("", badgerstore.WithUniqueEmail())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.BcryptCost = bcrypt.MinCost
	svc := NewService(store.Users(), issuer, cfg)

	const workers = 8
	errs := make([]error, workers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.Register(context.Background(), &in.RegisterRequest{
				Name:     fmt.Sprintf("Rani %d", i),
				Email:    "Rani@Example.com",
				Password: "rahasia123",
			})
		}(i)
	}
	close(start)
	wg.Wait()

	registered := 0
	for _, err := range errs {
		switch {
		case err == nil:
			registered++
		case !apperr.HasCode(err, apperr.CodeAlreadyExists):
			t.Errorf("Register() error = %v, want nil or ALREADY_EXISTS", err)
		}
	}
	if registered != 1 {
		t.Errorf("registered = %d, want exactly 1", registered)
	}
}
