// Package classifier adapts text classification backends to the
// out.EmotionClassifier port.
package classifier

import (
	"fmt"
	"math"
	"strings"
)

// DefaultMaxLength is the input cap, in runes, applied before scoring.
const DefaultMaxLength = 512

// Activation post-processes raw model outputs on the client side.
type Activation string

const (
	ActivationNone    Activation = "none"
	ActivationSoftmax Activation = "softmax"
	ActivationSigmoid Activation = "sigmoid"
)

// ParseActivation accepts "", none, softmax and sigmoid.
func ParseActivation(s string) (Activation, error) {
	switch a := Activation(strings.ToLower(strings.TrimSpace(s))); a {
	case "", ActivationNone:
		return ActivationNone, nil
	case ActivationSoftmax, ActivationSigmoid:
		return a, nil
	default:
		return "", fmt.Errorf("unknown activation %q", s)
	}
}

// Apply returns a new slice; raw is left untouched.
func (a Activation) Apply(raw []float64) []float64 {
	out := make([]float64, len(raw))
	switch a {
	case ActivationSoftmax:
		if len(raw) == 0 {
			return out
		}
		maxv := raw[0]
		for _, v := range raw[1:] {
			maxv = math.Max(maxv, v)
		}
		var sum float64
		for i, v := range raw {
			out[i] = math.Exp(v - maxv)
			sum += out[i]
		}
		for i := range out {
			out[i] /= sum
		}
	case ActivationSigmoid:
		for i, v := range raw {
			out[i] = 1 / (1 + math.Exp(-v))
		}
	default:
		copy(out, raw)
	}
	return out
}

// truncate cuts text to at most n runes. n <= 0 disables truncation.
func truncate(text string, n int) string {
	if n <= 0 {
		return text
	}
	i := 0
	for pos := range text {
		if i == n {
			return text[:pos]
		}
		i++
	}
	return text
}
