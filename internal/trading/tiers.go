package trading

import (
	"dip-trader/internal/errors"
)

// ThresholdEngine maps a decline percentage onto a discrete strategy tier.
// It holds no per-session state; Evaluate is a pure function re-run on every
// poll.
type ThresholdEngine struct {
	tiers []float64 // strictly increasing, all positive
}

// NewThresholdEngine builds an engine from a tier list. Tiers must be
// positive and strictly increasing.
func NewThresholdEngine(tiers []float64) (*ThresholdEngine, error) {
	if len(tiers) == 0 {
		return nil, errors.Wrap(errors.ErrConfigInvalid, "tier list is empty")
	}
	prev := 0.0
	for i, t := range tiers {
		if t <= prev {
			return nil, errors.Wrapf(errors.ErrConfigInvalid,
				"tiers must be positive and strictly increasing, got %v at index %d", t, i)
		}
		prev = t
	}
	out := make([]float64, len(tiers))
	copy(out, tiers)
	return &ThresholdEngine{tiers: out}, nil
}

// Evaluate returns the single highest tier whose threshold is met or
// exceeded by declinePct, inclusive at the boundary. ok is false when no
// tier qualifies; negative and zero declines never qualify since all tiers
// are positive.
func (e *ThresholdEngine) Evaluate(declinePct float64) (tier float64, ok bool) {
	for i := len(e.tiers) - 1; i >= 0; i-- {
		if declinePct >= e.tiers[i] {
			return e.tiers[i], true
		}
	}
	return 0, false
}

// Tiers returns a copy of the configured tier thresholds.
func (e *ThresholdEngine) Tiers() []float64 {
	out := make([]float64, len(e.tiers))
	copy(out, e.tiers)
	return out
}
