// Package emotion turns raw classifier scores into a single Emotion.
package emotion

import (
	"fmt"
	"sort"

	"mindful_server/core/domain"
	"mindful_server/pkg/apperr"
)

// Policy names accepted by NewResolver.
const (
	PolicyMultiLabel = "multilabel"
	PolicyPolarity   = "polarity"
)

// DefaultThreshold is the per-label probability a multi-label candidate must exceed.
const DefaultThreshold = 0.5

// Resolver maps a ScoreVector to exactly one Emotion.
type Resolver interface {
	Resolve(scores domain.ScoreVector) (domain.Emotion, error)
}

// Config selects and parameterizes a resolver.
type Config struct {
	Policy    string
	Threshold float64
	// ConfidencePct enables the confidence gate when > 0: a resolved label
	// scoring below this percentage becomes EmotionUncertain.
	ConfidencePct float64
}

// NewResolver builds the configured policy, wrapped in a ConfidenceGate
// when ConfidencePct is set.
func NewResolver(labels domain.LabelSet, cfg Config) (Resolver, error) {
	if err := labels.Validate(); err != nil {
		return nil, err
	}

	var r Resolver
	switch cfg.Policy {
	case "", PolicyMultiLabel:
		threshold := cfg.Threshold
		if threshold <= 0 {
			threshold = DefaultThreshold
		}
		r = NewThresholdPolicy(labels, threshold)
	case PolicyPolarity:
		r = NewPolarityPolicy(labels)
	default:
		return nil, fmt.Errorf("unknown resolution policy %q", cfg.Policy)
	}

	if cfg.ConfidencePct > 0 {
		if cfg.ConfidencePct > 100 {
			return nil, fmt.Errorf("confidence threshold %.1f%% exceeds 100%%", cfg.ConfidencePct)
		}
		r = NewConfidenceGate(labels, r, cfg.ConfidencePct)
	}
	return r, nil
}

func checkShape(labels domain.LabelSet, scores domain.ScoreVector) error {
	if len(scores) != labels.Size() {
		return apperr.InputShape(len(scores), labels.Size())
	}
	return nil
}

// argmax returns the index with the highest score among idx; ties go to the
// earliest index. idx must be sorted ascending and non-empty.
func argmax(scores domain.ScoreVector, idx []int) int {
	best := idx[0]
	for _, i := range idx[1:] {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return best
}

// =============================================================================
// Grouped polarity argmax
// =============================================================================

// PolarityPolicy expects softmax output. It picks the polarity group with the
// higher mean score (positive on ties) and then the best label inside it.
type PolarityPolicy struct {
	labels   domain.LabelSet
	positive []int
	negative []int
}

// NewPolarityPolicy creates the grouped polarity policy.
func NewPolarityPolicy(labels domain.LabelSet) *PolarityPolicy {
	return &PolarityPolicy{
		labels:   labels,
		positive: groupIndexes(labels, labels.Positive),
		negative: groupIndexes(labels, labels.Negative),
	}
}

// groupIndexes maps a group to label positions in label order, so that ties
// inside a group resolve by label order rather than group listing order.
func groupIndexes(labels domain.LabelSet, group []domain.Emotion) []int {
	idx := make([]int, 0, len(group))
	for _, e := range group {
		if i := labels.Index(e); i >= 0 {
			idx = append(idx, i)
		}
	}
	sort.Ints(idx)
	return idx
}

func mean(scores domain.ScoreVector, idx []int) float64 {
	var sum float64
	for _, i := range idx {
		sum += scores[i]
	}
	return sum / float64(len(idx))
}

// Resolve implements Resolver.
func (p *PolarityPolicy) Resolve(scores domain.ScoreVector) (domain.Emotion, error) {
	if err := checkShape(p.labels, scores); err != nil {
		return "", err
	}

	group := p.negative
	if mean(scores, p.positive) >= mean(scores, p.negative) {
		group = p.positive
	}
	return p.labels.Labels[argmax(scores, group)], nil
}

// =============================================================================
// Independent multi-label threshold with fallback
// =============================================================================

// ThresholdPolicy expects independent per-label probabilities.
type ThresholdPolicy struct {
	labels    domain.LabelSet
	threshold float64
	all       []int
}

// NewThresholdPolicy creates the multi-label policy.
func NewThresholdPolicy(labels domain.LabelSet, threshold float64) *ThresholdPolicy {
	all := make([]int, labels.Size())
	for i := range all {
		all[i] = i
	}
	return &ThresholdPolicy{labels: labels, threshold: threshold, all: all}
}

// Candidates returns the positions of labels whose score exceeds the threshold.
func (p *ThresholdPolicy) Candidates(scores domain.ScoreVector) []int {
	var idx []int
	for i, s := range scores {
		if s > p.threshold {
			idx = append(idx, i)
		}
	}
	return idx
}

// Resolve implements Resolver.
func (p *ThresholdPolicy) Resolve(scores domain.ScoreVector) (domain.Emotion, error) {
	if err := checkShape(p.labels, scores); err != nil {
		return "", err
	}

	candidates := p.Candidates(scores)
	switch len(candidates) {
	case 0:
		return p.labels.Labels[argmax(scores, p.all)], nil
	case 1:
		return p.labels.Labels[candidates[0]], nil
	default:
		return p.labels.Labels[argmax(scores, candidates)], nil
	}
}

// =============================================================================
// Confidence gate
// =============================================================================

// ConfidenceGate reports EmotionUncertain when the resolved label's score is
// below a percentage threshold.
type ConfidenceGate struct {
	labels domain.LabelSet
	inner  Resolver
	minPct float64
}

// NewConfidenceGate wraps inner with a confidence floor in percent.
func NewConfidenceGate(labels domain.LabelSet, inner Resolver, minPct float64) *ConfidenceGate {
	return &ConfidenceGate{labels: labels, inner: inner, minPct: minPct}
}

// Resolve implements Resolver.
func (g *ConfidenceGate) Resolve(scores domain.ScoreVector) (domain.Emotion, error) {
	e, err := g.inner.Resolve(scores)
	if err != nil {
		return "", err
	}
	if scores[g.labels.Index(e)]*100 < g.minPct {
		return domain.EmotionUncertain, nil
	}
	return e, nil
}
