package badgerstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"mindful_server/core/domain"
	"mindful_server/pkg/apperr"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open("", opts...)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestTweets(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	repo := s.Tweets()

	user, other := uuid.New(), uuid.New()
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		tw := &domain.Tweet{
			ID:        uuid.New(),
			UserID:    user,
			Text:      "tweet",
			Emotion:   domain.EmotionHappy,
			Message:   "m",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Save(ctx, tw); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		ids = append(ids, tw.ID)
	}
	if err := repo.Save(ctx, &domain.Tweet{ID: uuid.New(), UserID: other, CreatedAt: base}); err != nil {
		t.Fatal(err)
	}

	list, err := repo.ListByUser(ctx, user)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("ListByUser() returned %d tweets, want 3", len(list))
	}
	for i, want := range []uuid.UUID{ids[2], ids[1], ids[0]} {
		if list[i].ID != want {
			t.Errorf("list[%d] = %s, want %s (newest first)", i, list[i].ID, want)
		}
	}

	got, err := repo.GetByID(ctx, ids[1])
	if err != nil || got == nil {
		t.Fatalf("GetByID() = %v, %v", got, err)
	}
	if got.UserID != user || got.Emotion != domain.EmotionHappy || !got.CreatedAt.Equal(base.Add(time.Minute)) {
		t.Errorf("GetByID() = %+v", got)
	}

	missing, err := repo.GetByID(ctx, uuid.New())
	if err != nil || missing != nil {
		t.Errorf("GetByID(unknown) = %v, %v; want nil, nil", missing, err)
	}

	empty, err := repo.ListByUser(ctx, uuid.New())
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("ListByUser(unknown) = %v, %v", empty, err)
	}

	if err := repo.Save(ctx, &domain.Tweet{ID: ids[0], UserID: user}); !apperr.HasCode(err, apperr.CodeAlreadyExists) {
		t.Errorf("duplicate Save() error = %v, want ALREADY_EXISTS", err)
	}
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	repo := s.Users()

	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	second := &domain.User{ID: uuid.New(), Name: "Second", Email: "rani@example.com", PasswordHash: "h2", CreatedAt: base.Add(time.Hour)}
	first := &domain.User{ID: uuid.New(), Name: "First", Email: "Rani@Example.com", PasswordHash: "h1", Token: "tok", CreatedAt: base}
	prefixed := &domain.User{ID: uuid.New(), Name: "Prefixed", Email: "rani@example.com.au", PasswordHash: "h3", CreatedAt: base.Add(-time.Hour)}
	for _, u := range []*domain.User{second, first, prefixed} {
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	got, err := repo.FindByEmail(ctx, " RANI@example.COM ")
	if err != nil || got == nil {
		t.Fatalf("FindByEmail() = %v, %v", got, err)
	}
	if got.ID != first.ID || got.Token != "tok" || got.PasswordHash != "h1" {
		t.Errorf("FindByEmail() = %+v, want earliest registered", got)
	}

	if u, err := repo.FindByEmail(ctx, "nobody@example.com"); err != nil || u != nil {
		t.Errorf("FindByEmail(unknown) = %v, %v", u, err)
	}

	if err := repo.UpdateToken(ctx, second.ID, "fresh"); err != nil {
		t.Fatal(err)
	}
	byID, err := repo.GetByID(ctx, second.ID)
	if err != nil || byID == nil || byID.Token != "fresh" || byID.Name != "Second" {
		t.Errorf("GetByID() after UpdateToken = %+v, %v", byID, err)
	}

	if err := repo.UpdateToken(ctx, uuid.New(), "x"); !apperr.HasCode(err, apperr.CodeNotFound) {
		t.Errorf("UpdateToken(unknown) error = %v, want NOT_FOUND", err)
	}
	if err := repo.Create(ctx, first); !apperr.HasCode(err, apperr.CodeAlreadyExists) {
		t.Errorf("duplicate Create() error = %v, want ALREADY_EXISTS", err)
	}
}

func TestUsers_UniqueEmail(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t, WithUniqueEmail()).Users()

	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	first := &domain.User{ID: uuid.New(), Email: "rani@example.com", PasswordHash: "h1", CreatedAt: base}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tests := []struct {
		name  string
		email string
		want  string
	}{
		{"same email", "rani@example.com", apperr.CodeAlreadyExists},
		{"different case", " RANI@Example.com", apperr.CodeAlreadyExists},
		{"longer address", "rani@example.com.au", ""},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &domain.User{ID: uuid.New(), Email: tt.email, PasswordHash: "h", CreatedAt: base.Add(time.Duration(i+1) * time.Minute)}
			err := repo.Create(ctx, u)
			if tt.want == "" {
				if err != nil {
					t.Errorf("Create() error = %v, want nil", err)
				}
				return
			}
			if !apperr.HasCode(err, tt.want) {
				t.Errorf("Create() error = %v, want %s", err, tt.want)
			}
		})
	}

	got, err := repo.FindByEmail(ctx, "rani@example.com")
	if err != nil || got == nil || got.ID != first.ID {
		t.Errorf("FindByEmail() = %+v, %v, want first user", got, err)
	}
}

func TestUsers_ConcurrentCreateSameEmail(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t, WithUniqueEmail()).Users()

	const workers = 8
	errs := make([]error, workers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = repo.Create(ctx, &domain.User{
				ID:           uuid.New(),
				Email:        "race@example.com",
				PasswordHash: "h",
				CreatedAt:    time.Now().UTC(),
			})
		}(i)
	}
	close(start)
	wg.Wait()

	created := 0
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case !apperr.HasCode(err, apperr.CodeAlreadyExists):
			t.Errorf("Create() error = %v, want nil or ALREADY_EXISTS", err)
		}
	}
	if created != 1 {
		t.Errorf("created = %d, want exactly 1", created)
	}
}

func TestUsers_UniqueEmailCoversExistingRecords(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	legacy := &domain.User{ID: uuid.New(), Email: "lama@example.com", PasswordHash: "h", CreatedAt: time.Now().UTC()}
	if err := s.Users().Create(ctx, legacy); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatal(err)
	}

	s, err = Open(dir, WithUniqueEmail())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close(ctx)
	dup := &domain.User{ID: uuid.New(), Email: "lama@example.com", PasswordHash: "h", CreatedAt: time.Now().UTC()}
	if err := s.Users().Create(ctx, dup); !apperr.HasCode(err, apperr.CodeAlreadyExists) {
		t.Errorf("Create() error = %v, want ALREADY_EXISTS", err)
	}
}

func TestStoreLifecycle(t *testing.T) {
	s, err := Open("")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Errorf("Ping() on open store = %v", err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(ctx); err == nil {
		t.Error("Ping() on closed store should fail")
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	tw := &domain.Tweet{ID: uuid.New(), UserID: uuid.New(), Text: "tetap ada", CreatedAt: time.Now().UTC()}
	if err := s.Tweets().Save(ctx, tw); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatal(err)
	}

	s, err = Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close(ctx)
	got, err := s.Tweets().GetByID(ctx, tw.ID)
	if err != nil || got == nil || got.Text != "tetap ada" {
		t.Errorf("GetByID() after reopen = %+v, %v", got, err)
	}
}
