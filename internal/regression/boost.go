// Package regression implements deterministic gradient-boosted regression
// stumps. Given the same feature matrix, targets and seed, Fit always
// produces the same ensemble: features are scanned in index order, split
// thresholds in ascending order, and a candidate replaces the incumbent only
// on a strict improvement.
package regression

import (
	"fmt"
	"math/rand"
	"sort"
)

// Params controls ensemble fitting.
type Params struct {
	// Rounds is the number of boosting rounds (stumps fitted).
	Rounds int
	// LearningRate shrinks each stump's contribution.
	LearningRate float64
	// SubsampleRatio is the fraction of rows each round fits on. Rows are
	// drawn from the seeded source, so subsampling stays reproducible.
	SubsampleRatio float64
	// MinSubsampleRows disables subsampling for datasets smaller than this,
	// where dropping rows would cost more than the regularization is worth.
	MinSubsampleRows int
}

// DefaultParams returns the fitting parameters used in production.
func DefaultParams() Params {
	return Params{
		Rounds:           50,
		LearningRate:     0.1,
		SubsampleRatio:   0.8,
		MinSubsampleRows: 10,
	}
}

// Stump is a depth-1 regression tree.
type Stump struct {
	Feature   int
	Threshold float64
	Left      float64
	Right     float64
}

func (s Stump) predict(x []float64) float64 {
	if x[s.Feature] <= s.Threshold {
		return s.Left
	}
	return s.Right
}

// Ensemble is a fitted boosted-stump regressor.
type Ensemble struct {
	Base         float64
	LearningRate float64
	Stumps       []Stump
}

// Predict returns the ensemble's estimate for a single feature vector.
func (e *Ensemble) Predict(x []float64) float64 {
	out := e.Base
	for _, s := range e.Stumps {
		out += e.LearningRate * s.predict(x)
	}
	return out
}

// Fit trains an ensemble on the given rows. It returns an error when the
// inputs are empty or ragged.
func Fit(features [][]float64, targets []float64, seed int64, p Params) (*Ensemble, error) {
	n := len(features)
	if n == 0 {
		return nil, fmt.Errorf("no training rows")
	}
	if len(targets) != n {
		return nil, fmt.Errorf("feature/target length mismatch: %d vs %d", n, len(targets))
	}
	width := len(features[0])
	for i, row := range features {
		if len(row) != width {
			return nil, fmt.Errorf("ragged feature row %d: want %d values, got %d", i, width, len(row))
		}
	}
	if p.Rounds <= 0 || p.LearningRate <= 0 {
		return nil, fmt.Errorf("invalid params: rounds=%d learning_rate=%v", p.Rounds, p.LearningRate)
	}

	base := mean(targets)
	ens := &Ensemble{Base: base, LearningRate: p.LearningRate}

	preds := make([]float64, n)
	for i := range preds {
		preds[i] = base
	}
	residuals := make([]float64, n)

	rng := rand.New(rand.NewSource(seed))

	for round := 0; round < p.Rounds; round++ {
		for i := range residuals {
			residuals[i] = targets[i] - preds[i]
		}

		rows := sampleRows(rng, n, p)
		stump, ok := bestStump(features, residuals, rows)
		if !ok {
			// Residuals are flat on the sampled rows: nothing left to fit.
			break
		}

		ens.Stumps = append(ens.Stumps, stump)
		for i, row := range features {
			preds[i] += p.LearningRate * stump.predict(row)
		}
	}

	return ens, nil
}

// sampleRows returns the row indices to fit this round on, sorted ascending.
func sampleRows(rng *rand.Rand, n int, p Params) []int {
	if p.SubsampleRatio >= 1 || n < p.MinSubsampleRows {
		rows := make([]int, n)
		for i := range rows {
			rows[i] = i
		}
		return rows
	}
	k := int(float64(n) * p.SubsampleRatio)
	if k < 1 {
		k = 1
	}
	rows := rng.Perm(n)[:k]
	sort.Ints(rows)
	return rows
}

// bestStump finds the stump minimizing squared error over the given rows.
// Returns ok=false when no split improves on a single leaf.
func bestStump(features [][]float64, residuals []float64, rows []int) (Stump, bool) {
	if len(rows) == 0 {
		return Stump{}, false
	}

	var total, totalSq float64
	for _, i := range rows {
		total += residuals[i]
		totalSq += residuals[i] * residuals[i]
	}
	count := float64(len(rows))
	// SSE of the no-split leaf predicting the mean residual.
	bestSSE := totalSq - total*total/count

	var best Stump
	found := false

	width := len(features[0])
	type pair struct {
		value    float64
		residual float64
	}
	pairs := make([]pair, len(rows))

	for f := 0; f < width; f++ {
		for j, i := range rows {
			pairs[j] = pair{value: features[i][f], residual: residuals[i]}
		}
		sort.Slice(pairs, func(a, b int) bool { return pairs[a].value < pairs[b].value })

		var leftSum, leftSq, leftN float64
		for j := 0; j < len(pairs)-1; j++ {
			leftSum += pairs[j].residual
			leftSq += pairs[j].residual * pairs[j].residual
			leftN++

			// Split only between strictly different values.
			if pairs[j].value == pairs[j+1].value {
				continue
			}

			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			rightN := count - leftN

			sse := (leftSq - leftSum*leftSum/leftN) + (rightSq - rightSum*rightSum/rightN)
			if sse < bestSSE {
				bestSSE = sse
				best = Stump{
					Feature:   f,
					Threshold: (pairs[j].value + pairs[j+1].value) / 2,
					Left:      leftSum / leftN,
					Right:     rightSum / rightN,
				}
				found = true
			}
		}
	}

	return best, found
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
