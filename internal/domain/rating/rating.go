// Package rating computes score updates from pairwise comparison outcomes.
//
// This is the only place score math happens. The engine is pure: no I/O, and
// deterministic given its inputs.
package rating

import (
	"math"

	"github.com/okian/snapjudge/internal/domain/model"
)

// Default rating configuration constants.
const (
	defaultInitialScore         = 1500.0
	defaultInitialUncertainty   = 350.0
	defaultInitialKFactor       = 40.0
	defaultMinKFactor           = 16.0
	defaultUncertaintyFloor     = 50.0
	defaultUncertaintyDecay     = 0.95
	defaultUncertaintyThreshold = 100.0
	defaultBootstrapThreshold   = 5
	defaultMaxComparisonCount   = 12
	logisticDivisor             = 400.0
	kFactorDecayPerComparison   = 2.0
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithInitialScore sets the score assigned to new ratings.
func WithInitialScore(score float64) Option {
	return func(e *Engine) {
		if score > 0 {
			e.initialScore = score
		}
	}
}

// WithInitialUncertainty sets the uncertainty assigned to new ratings.
func WithInitialUncertainty(u float64) Option {
	return func(e *Engine) {
		if u > 0 {
			e.initialUncertainty = u
		}
	}
}

// WithKFactorRange sets the initial K-factor and the floor it decays toward.
func WithKFactorRange(initial, minimum float64) Option {
	return func(e *Engine) {
		if initial > 0 && minimum > 0 && initial >= minimum {
			e.initialKFactor = initial
			e.minKFactor = minimum
		}
	}
}

// WithUncertaintyDecay sets the multiplicative per-comparison shrink factor
// and the floor uncertainty never drops below.
func WithUncertaintyDecay(factor, floor float64) Option {
	return func(e *Engine) {
		if factor > 0 && factor < 1 {
			e.uncertaintyDecay = factor
		}
		if floor > 0 {
			e.uncertaintyFloor = floor
		}
	}
}

// WithBootstrapThreshold sets the comparison count at which a rating counts
// as bootstrapped.
func WithBootstrapThreshold(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.bootstrapThreshold = n
		}
	}
}

// WithStability sets the uncertainty threshold and the comparison cap; a
// rating is stable once either is reached.
func WithStability(uncertaintyThreshold float64, maxComparisons int) Option {
	return func(e *Engine) {
		if uncertaintyThreshold > 0 {
			e.uncertaintyThreshold = uncertaintyThreshold
		}
		if maxComparisons > 0 {
			e.maxComparisonCount = maxComparisons
		}
	}
}

// Engine holds the tuning parameters for rating updates.
type Engine struct {
	initialScore         float64
	initialUncertainty   float64
	initialKFactor       float64
	minKFactor           float64
	uncertaintyFloor     float64
	uncertaintyDecay     float64
	uncertaintyThreshold float64
	bootstrapThreshold   int
	maxComparisonCount   int
}

// NewEngine creates a rating engine with default configuration.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		initialScore:         defaultInitialScore,
		initialUncertainty:   defaultInitialUncertainty,
		initialKFactor:       defaultInitialKFactor,
		minKFactor:           defaultMinKFactor,
		uncertaintyFloor:     defaultUncertaintyFloor,
		uncertaintyDecay:     defaultUncertaintyDecay,
		uncertaintyThreshold: defaultUncertaintyThreshold,
		bootstrapThreshold:   defaultBootstrapThreshold,
		maxComparisonCount:   defaultMaxComparisonCount,
	}

	// Apply all options
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// InitialScore returns the score assigned to new ratings.
func (e *Engine) InitialScore() float64 { return e.initialScore }

// UncertaintyThreshold returns the threshold above which a rating counts as
// high-uncertainty for scheduling purposes.
func (e *Engine) UncertaintyThreshold() float64 { return e.uncertaintyThreshold }

// NewRating builds the initial rating record for a key.
func (e *Engine) NewRating(key model.RatingKey) model.PhotoRating {
	return model.PhotoRating{
		PhotoID:     key.PhotoID,
		EventID:     key.EventID,
		Category:    key.Category,
		Score:       e.initialScore,
		Uncertainty: e.initialUncertainty,
		KFactor:     e.initialKFactor,
	}
}

// ExpectedScore returns the logistic win expectation for a against b.
// ExpectedScore(a, b) + ExpectedScore(b, a) == 1.
func (e *Engine) ExpectedScore(scoreA, scoreB float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (scoreB-scoreA)/logisticDivisor))
}

// Outcome is the per-side result of a judged comparison, computed once from
// the pair and applicable to a fresh read of the same rating. Keeping the
// delta separate from the record lets a conflicted write re-read and re-apply
// without touching the opponent's row.
type Outcome struct {
	ScoreDelta float64
	Won        bool
}

// Outcomes computes both sides' outcomes for a judged comparison.
// winnerID must be one of the two photo ids; a skip never reaches the engine.
func (e *Engine) Outcomes(a, b model.PhotoRating, winnerID string) (Outcome, Outcome) {
	expectedA := e.ExpectedScore(a.Score, b.Score)
	expectedB := 1.0 - expectedA

	observedA, observedB := 0.0, 0.0
	if winnerID == a.PhotoID {
		observedA = 1.0
	} else {
		observedB = 1.0
	}

	return Outcome{ScoreDelta: a.KFactor * (observedA - expectedA), Won: observedA == 1.0},
		Outcome{ScoreDelta: b.KFactor * (observedB - expectedB), Won: observedB == 1.0}
}

// Apply folds one outcome into a rating record: score movement, count and
// win bookkeeping, uncertainty and K-factor decay, and flag transitions.
func (e *Engine) Apply(r model.PhotoRating, out Outcome) model.PhotoRating {
	r.Score += out.ScoreDelta
	r.ComparisonCount++
	if out.Won {
		r.WinCount++
	}

	r.Uncertainty = math.Max(e.uncertaintyFloor, r.Uncertainty*e.uncertaintyDecay)

	// K stays at its initial value through the bootstrap window, then decays
	// linearly to the floor.
	overBootstrap := float64(r.ComparisonCount - e.bootstrapThreshold)
	r.KFactor = math.Max(e.minKFactor, e.initialKFactor-kFactorDecayPerComparison*math.Max(0, overBootstrap))

	if r.ComparisonCount >= e.bootstrapThreshold {
		r.IsBootstrapped = true
	}
	if r.Uncertainty <= e.uncertaintyThreshold || r.ComparisonCount >= e.maxComparisonCount {
		r.IsStable = true
	}

	return r
}

// Update computes both updated ratings for a judged comparison.
func (e *Engine) Update(a, b model.PhotoRating, winnerID string) (model.PhotoRating, model.PhotoRating) {
	outA, outB := e.Outcomes(a, b, winnerID)
	return e.Apply(a, outA), e.Apply(b, outB)
}
