// Package lossmodel implements the three residual/loss formulas the
// boosting core supports: regression, binary classification (a single
// logit), and multiclass classification (K logits, softmax over all K,
// deliberately overparameterized rather than pinning a reference class --
// simpler, and it reproduces the reference engine's published outputs).
// It operates directly on a dataset's score and residual buffers so the
// booster's apply step can call it without re-deriving probabilities from
// scratch.
package lossmodel

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Type identifies which of the three supported targets a Booster fits.
type Type int

const (
	Regression Type = iota
	Binary
	Multiclass
)

// K returns the stored vector length for a given type and class count.
// Regression and Binary both store a single value per sample; Multiclass
// stores one logit per class.
func K(t Type, numClasses int) int {
	switch t {
	case Regression, Binary:
		return 1
	default:
		return numClasses
	}
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// softmax writes the softmax of scores into out (same length), numerically
// stabilized by subtracting the row max.
func softmax(scores, out []float64) {
	maxV := scores[0]
	for _, s := range scores[1:] {
		if s > maxV {
			maxV = s
		}
	}
	sum := 0.0
	for i, s := range scores {
		e := math.Exp(s - maxV)
		out[i] = e
		sum += e
	}
	for i := range out {
		out[i] /= sum
	}
}

// InitializeResiduals fills residuals[0:n*k] from targets and the provided
// (possibly warm-started) scores; it does not assume scores start at zero.
func InitializeResiduals(t Type, k int, targets, scores, residuals []float64) {
	n := len(targets)
	probs := make([]float64, k)
	for i := 0; i < n; i++ {
		row := scores[i*k : i*k+k]
		res := residuals[i*k : i*k+k]
		switch t {
		case Regression:
			res[0] = targets[i] - row[0]
		case Binary:
			res[0] = targets[i] - sigmoid(row[0])
		case Multiclass:
			softmax(row, probs)
			cls := int(targets[i])
			for c := 0; c < k; c++ {
				var indicator float64
				if c == cls {
					indicator = 1
				}
				res[c] = indicator - probs[c]
			}
		}
	}
}

// Hessian returns the per-class Newton-step hessian contribution for one
// sample given its current (post-update) scores. For regression it is
// always 1 (squared-error loss), matching the reference's "count" bucket.
func Hessian(t Type, k int, scores []float64, probs []float64) {
	switch t {
	case Regression:
		probs[0] = 1
	case Binary:
		p := sigmoid(scores[0])
		probs[0] = p * (1 - p)
	case Multiclass:
		softmax(scores, probs)
		for c := range probs {
			probs[c] = probs[c] * (1 - probs[c])
		}
	}
}

// ValidationMetric computes the held-out loss: mean squared error for
// regression, mean log-loss for binary, and mean cross-entropy for
// multiclass. Returns 0 for n == 0 (the "no validation rows" contract).
func ValidationMetric(t Type, k int, targets, scores []float64) float64 {
	n := len(targets)
	if n == 0 {
		return 0
	}
	losses := make([]float64, n)
	probs := make([]float64, k)
	for i := 0; i < n; i++ {
		row := scores[i*k : i*k+k]
		switch t {
		case Regression:
			d := targets[i] - row[0]
			losses[i] = d * d
		case Binary:
			// log(1+exp((1-2y)*score)), stabilized for large |score|.
			y := targets[i]
			z := (1 - 2*y) * row[0]
			losses[i] = stableLog1pExp(z)
		case Multiclass:
			softmax(row, probs)
			cls := int(targets[i])
			p := probs[cls]
			const eps = 1e-300
			if p < eps {
				p = eps
			}
			losses[i] = -math.Log(p)
		}
	}
	return stat.Mean(losses, nil)
}

func stableLog1pExp(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}
