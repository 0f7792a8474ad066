package domain

import (
	"fmt"
	"strings"
)

// Emotion is one mental-state label the classifier predicts.
type Emotion string

const (
	EmotionAnxiety    Emotion = "anxiety"
	EmotionDepression Emotion = "depression"
	EmotionHappy      Emotion = "happy"
	EmotionLonely     Emotion = "lonely"
	EmotionNeutral    Emotion = "neutral"

	// EmotionUncertain is produced only by the confidence gate; it is never
	// part of a LabelSet.
	EmotionUncertain Emotion = "uncertain"
)

// KnownEmotions lists the closed enumeration in canonical label order.
var KnownEmotions = []Emotion{
	EmotionAnxiety,
	EmotionDepression,
	EmotionHappy,
	EmotionLonely,
	EmotionNeutral,
}

// ParseEmotion accepts any casing and surrounding whitespace.
func ParseEmotion(s string) (Emotion, error) {
	e := Emotion(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range KnownEmotions {
		if e == k {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown emotion %q", s)
}

// Title returns the display form, e.g. "Anxiety".
func (e Emotion) Title() string {
	if e == "" {
		return ""
	}
	return strings.ToUpper(string(e[:1])) + string(e[1:])
}

// ScoreVector holds one score per label, in LabelSet order.
type ScoreVector []float64

// LabelSet is the versioned label configuration of a deployed model: the
// output order and the polarity partition used by the grouped policy.
type LabelSet struct {
	Labels   []Emotion
	Positive []Emotion
	Negative []Emotion
}

// DefaultLabelSet matches the canonical five-label model.
func DefaultLabelSet() LabelSet {
	return LabelSet{
		Labels:   []Emotion{EmotionAnxiety, EmotionDepression, EmotionHappy, EmotionLonely, EmotionNeutral},
		Positive: []Emotion{EmotionHappy, EmotionNeutral},
		Negative: []Emotion{EmotionAnxiety, EmotionDepression, EmotionLonely},
	}
}

// ParseLabelSet builds a LabelSet from comma separated lists and validates it.
func ParseLabelSet(labels, positive, negative string) (LabelSet, error) {
	var ls LabelSet
	var err error
	if ls.Labels, err = parseEmotionList(labels); err != nil {
		return LabelSet{}, fmt.Errorf("labels: %w", err)
	}
	if ls.Positive, err = parseEmotionList(positive); err != nil {
		return LabelSet{}, fmt.Errorf("positive labels: %w", err)
	}
	if ls.Negative, err = parseEmotionList(negative); err != nil {
		return LabelSet{}, fmt.Errorf("negative labels: %w", err)
	}
	if err := ls.Validate(); err != nil {
		return LabelSet{}, err
	}
	return ls, nil
}

func parseEmotionList(s string) ([]Emotion, error) {
	var out []Emotion
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		e, err := ParseEmotion(part)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Validate checks that labels are unique and that the polarity groups
// partition them exactly.
func (ls LabelSet) Validate() error {
	if len(ls.Labels) == 0 {
		return fmt.Errorf("label set is empty")
	}
	seen := make(map[Emotion]bool, len(ls.Labels))
	for _, l := range ls.Labels {
		if seen[l] {
			return fmt.Errorf("duplicate label %q", l)
		}
		seen[l] = true
	}

	grouped := make(map[Emotion]bool, len(ls.Labels))
	for _, group := range [][]Emotion{ls.Positive, ls.Negative} {
		for _, l := range group {
			if !seen[l] {
				return fmt.Errorf("polarity label %q is not in the label set", l)
			}
			if grouped[l] {
				return fmt.Errorf("label %q appears in more than one polarity group", l)
			}
			grouped[l] = true
		}
	}
	if len(grouped) != len(ls.Labels) {
		return fmt.Errorf("polarity groups cover %d of %d labels", len(grouped), len(ls.Labels))
	}
	if len(ls.Positive) == 0 || len(ls.Negative) == 0 {
		return fmt.Errorf("both polarity groups need at least one label")
	}
	return nil
}

// Size is the expected ScoreVector length.
func (ls LabelSet) Size() int {
	return len(ls.Labels)
}

// Index returns the position of e in label order, or -1.
func (ls LabelSet) Index(e Emotion) int {
	for i, l := range ls.Labels {
		if l == e {
			return i
		}
	}
	return -1
}

// Names returns the labels as plain strings, in order.
func (ls LabelSet) Names() []string {
	out := make([]string, len(ls.Labels))
	for i, l := range ls.Labels {
		out[i] = string(l)
	}
	return out
}

// ValidateAgainst compares the configured order with the labels a classifier
// declares. Order matters: scores are positional.
func (ls LabelSet) ValidateAgainst(declared []string) error {
	if len(declared) != len(ls.Labels) {
		return fmt.Errorf("classifier declares %d labels, configuration has %d", len(declared), len(ls.Labels))
	}
	for i, name := range declared {
		e, err := ParseEmotion(name)
		if err != nil {
			return fmt.Errorf("classifier label %d: %w", i, err)
		}
		if e != ls.Labels[i] {
			return fmt.Errorf("classifier label %d is %q, configuration expects %q", i, e, ls.Labels[i])
		}
	}
	return nil
}
