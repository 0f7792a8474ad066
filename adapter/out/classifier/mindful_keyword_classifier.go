package classifier

import (
	"context"
	"strings"
	"unicode"

	"mindful_server/core/domain"
	"mindful_server/core/port/out"
)

// DefaultLexicon holds Indonesian and English cue words per emotion.
func DefaultLexicon() map[domain.Emotion][]string {
	return map[domain.Emotion][]string{
		domain.EmotionAnxiety: {
			"cemas", "khawatir", "gelisah", "takut", "panik", "deg-degan", "was-was", "tegang",
			"anxious", "anxiety", "worried", "nervous", "panic", "scared",
		},
		domain.EmotionDepression: {
			"sedih", "putus", "asa", "hampa", "capek", "lelah", "menyerah", "depresi", "murung",
			"sad", "hopeless", "empty", "depressed", "tired", "worthless",
		},
		domain.EmotionHappy: {
			"senang", "bahagia", "gembira", "syukur", "seneng", "asyik", "ceria", "bangga",
			"happy", "glad", "joy", "grateful", "excited", "great",
		},
		domain.EmotionLonely: {
			"sendiri", "sendirian", "kesepian", "sepi", "terasing", "ditinggal", "jauh",
			"lonely", "alone", "isolated", "abandoned",
		},
		domain.EmotionNeutral: {
			"biasa", "lumayan", "oke", "santai", "rutin",
			"okay", "fine", "normal", "usual",
		},
	}
}

// neutralBaseline is the neutral score when no cue word matches.
const neutralBaseline = 0.4

// KeywordClassifier scores texts by cue-word hits. It is deterministic and
// needs no model, which suits development and tests.
type KeywordClassifier struct {
	labels    []string
	lexicon   map[string]map[string]bool
	maxLength int
}

var _ out.EmotionClassifier = (*KeywordClassifier)(nil)

// NewKeywordClassifier builds a classifier over labels. A nil lexicon uses
// DefaultLexicon.
func NewKeywordClassifier(labels []string, lexicon map[domain.Emotion][]string, maxLength int) *KeywordClassifier {
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	idx := make(map[string]map[string]bool, len(lexicon))
	for e, words := range lexicon {
		set := make(map[string]bool, len(words))
		for _, w := range words {
			set[strings.ToLower(w)] = true
		}
		idx[string(e)] = set
	}
	return &KeywordClassifier{labels: labels, lexicon: idx, maxLength: maxLength}
}

// Name implements out.EmotionClassifier.
func (c *KeywordClassifier) Name() string { return "keyword" }

// Labels implements out.EmotionClassifier.
func (c *KeywordClassifier) Labels() []string { return c.labels }

// Score implements out.EmotionClassifier. Each label scores
// hits/(hits+0.8), so one hit lands just above 0.5.
func (c *KeywordClassifier) Score(_ context.Context, text string) (domain.ScoreVector, error) {
	tokens := strings.FieldsFunc(strings.ToLower(truncate(text, c.maxLength)), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})

	scores := make(domain.ScoreVector, len(c.labels))
	total := 0
	for i, l := range c.labels {
		words := c.lexicon[l]
		hits := 0
		for _, tok := range tokens {
			if words[tok] {
				hits++
			}
		}
		total += hits
		if hits > 0 {
			scores[i] = float64(hits) / (float64(hits) + 0.8)
		}
	}

	if total == 0 {
		for i, l := range c.labels {
			if l == string(domain.EmotionNeutral) {
				scores[i] = neutralBaseline
			}
		}
	}
	return scores, nil
}
