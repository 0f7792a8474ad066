// Package suggestion picks the supportive message and coping activity for a
// resolved emotion.
package suggestion

import (
	"math/rand/v2"
	"sync"

	"mindful_server/core/domain"
	"mindful_server/core/port/out"
	"mindful_server/pkg/apperr"
	"mindful_server/pkg/logger"
)

// UncertainMessage is returned instead of a canned message when the
// confidence gate withholds a label.
const UncertainMessage = "Kami belum yakin dengan suasana hatimu. Ceritakan sedikit lebih banyak, ya."

// DefaultMessages are the canned affirmations per emotion.
func DefaultMessages() map[domain.Emotion][]string {
	return map[domain.Emotion][]string{
		domain.EmotionAnxiety: {
			"Kamu memiliki kekuatan untuk mengatasi semua rintangan.",
			"Tetap tenang dan fokus pada hal-hal yang bisa kamu kendalikan.",
			"Ingatlah untuk bernafas dan mengambil waktu sejenak untuk dirimu sendiri.",
		},
		domain.EmotionDepression: {
			"Kamu berharga dan penting.",
			"Hari ini mungkin sulit, tapi besok bisa lebih baik.",
			"Jangan ragu untuk mencari dukungan, kamu tidak sendiri.",
		},
		domain.EmotionLonely: {
			"Hubungi teman atau keluargamu, mereka peduli padamu.",
			"Cobalah untuk terlibat dalam kegiatan sosial atau komunitas.",
			"Ingatlah bahwa perasaan kesepian ini sementara dan bisa berubah.",
		},
		domain.EmotionNeutral: {
			"Lanjutkan hari dengan semangat positif.",
			"Kamu melakukan yang terbaik, teruskan!",
			"Nikmati momen-momen kecil dalam hidupmu.",
		},
		domain.EmotionHappy: {
			"Sebarkan kebahagiaan kepada orang di sekitarmu.",
			"Nikmati setiap detik dari kebahagiaan ini.",
			"Teruskan melakukan hal-hal yang membuatmu bahagia.",
		},
	}
}

// Selector samples messages and activities uniformly with replacement.
type Selector struct {
	messages map[domain.Emotion][]string
	ranges   domain.ActivityRanges
	catalog  out.ActivityCatalog

	// byEmotion caches the catalog filtered per range; the catalog is
	// immutable after startup.
	once      sync.Once
	byEmotion map[domain.Emotion][]domain.Activity

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Selector.
type Option func(*Selector)

// WithMessages replaces the canned message sets.
func WithMessages(m map[domain.Emotion][]string) Option {
	return func(s *Selector) { s.messages = m }
}

// WithRand injects the random source, mainly for tests.
func WithRand(r *rand.Rand) Option {
	return func(s *Selector) { s.rng = r }
}

// NewSelector creates a selector over catalog using ranges.
func NewSelector(catalog out.ActivityCatalog, ranges domain.ActivityRanges, opts ...Option) *Selector {
	s := &Selector{
		messages: DefaultMessages(),
		ranges:   ranges,
		catalog:  catalog,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Selector) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// SelectMessage returns one canned message for emotion.
func (s *Selector) SelectMessage(emotion domain.Emotion) (string, error) {
	set := s.messages[emotion]
	if len(set) == 0 {
		return "", apperr.ConfigError("no messages registered for emotion: "+string(emotion)).
			WithDetail("emotion", string(emotion))
	}
	return set[s.intn(len(set))], nil
}

// SelectActivity returns the description of a random catalog entry inside
// the emotion's id range.
func (s *Selector) SelectActivity(emotion domain.Emotion) (string, error) {
	s.once.Do(s.index)

	candidates := s.byEmotion[emotion]
	if len(candidates) == 0 {
		return "", apperr.EmptySelection(string(emotion))
	}
	return candidates[s.intn(len(candidates))].Description, nil
}

func (s *Selector) index() {
	s.byEmotion = make(map[domain.Emotion][]domain.Activity, len(s.ranges))
	if s.catalog == nil {
		return
	}
	for _, a := range s.catalog.All() {
		for e, r := range s.ranges {
			if r.Contains(a.ID) {
				s.byEmotion[e] = append(s.byEmotion[e], a)
			}
		}
	}
}

// Validate reports, for every label, whether a message set and at least one
// activity exist. Missing messages are an error; empty activity ranges only
// log a warning since the request path surfaces them.
func (s *Selector) Validate(labels domain.LabelSet) error {
	s.once.Do(s.index)

	for _, e := range labels.Labels {
		if len(s.messages[e]) == 0 {
			return apperr.ConfigError("no messages registered for emotion: " + string(e))
		}
		if _, ok := s.ranges[e]; !ok {
			logger.Warn("[Selector] no activity range configured for %s", e)
			continue
		}
		if len(s.byEmotion[e]) == 0 {
			logger.Warn("[Selector] activity range %d-%d for %s matches no catalog entry",
				s.ranges[e].Min, s.ranges[e].Max, e)
		}
	}
	return nil
}
