package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Activity is one suggested coping activity from the catalog.
type Activity struct {
	ID          int
	Description string
}

// IDRange is an inclusive range of catalog ids.
type IDRange struct {
	Min int
	Max int
}

// Contains reports whether id lies in the range.
func (r IDRange) Contains(id int) bool {
	return id >= r.Min && id <= r.Max
}

func (r IDRange) overlaps(o IDRange) bool {
	return r.Min <= o.Max && o.Min <= r.Max
}

// ActivityRanges assigns each emotion its contiguous block of catalog ids.
type ActivityRanges map[Emotion]IDRange

// DefaultActivityRanges is the canonical id layout of the activity catalog.
func DefaultActivityRanges() ActivityRanges {
	return ActivityRanges{
		EmotionDepression: {Min: 201, Max: 210},
		EmotionAnxiety:    {Min: 301, Max: 310},
		EmotionLonely:     {Min: 401, Max: 410},
		EmotionNeutral:    {Min: 501, Max: 510},
		EmotionHappy:      {Min: 601, Max: 610},
	}
}

// ParseActivityRanges parses "depression:201-210,anxiety:301-310,...".
func ParseActivityRanges(s string) (ActivityRanges, error) {
	ranges := make(ActivityRanges)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, span, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("range %q: expected emotion:min-max", part)
		}
		e, err := ParseEmotion(name)
		if err != nil {
			return nil, fmt.Errorf("range %q: %w", part, err)
		}
		lo, hi, ok := strings.Cut(span, "-")
		if !ok {
			return nil, fmt.Errorf("range %q: expected min-max", part)
		}
		minID, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("range %q: %w", part, err)
		}
		maxID, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return nil, fmt.Errorf("range %q: %w", part, err)
		}
		if minID > maxID {
			return nil, fmt.Errorf("range %q: min greater than max", part)
		}
		if _, dup := ranges[e]; dup {
			return nil, fmt.Errorf("emotion %q has more than one range", e)
		}
		ranges[e] = IDRange{Min: minID, Max: maxID}
	}
	if err := ranges.Validate(); err != nil {
		return nil, err
	}
	return ranges, nil
}

// Validate rejects overlapping ranges.
func (ar ActivityRanges) Validate() error {
	for a, ra := range ar {
		for b, rb := range ar {
			if a < b && ra.overlaps(rb) {
				return fmt.Errorf("ranges for %q and %q overlap", a, b)
			}
		}
	}
	return nil
}
