package forensics

import "math"

// Scoring weights.
const (
	MinimumScore     = 10
	baseScore        = 20.0
	mrzWeight        = 25.0
	uvWeight         = 25.0
	cleanBonus       = 10.0
	alterationWeight = 30.0
	maxJitter        = 3.0
)

// JitterSource supplies uniform values in [0, 1). *math/rand/v2.Rand satisfies it.
type JitterSource interface {
	Float64() float64
}

// Score maps signals onto an authenticity score in [0, 100].
// A nil rng disables the random jitter.
func Score(signals Signals, rng JitterSource) int {
	if !signals.DocumentDetected {
		return MinimumScore
	}
	return int(math.Round(clamp(rawScore(signals)+jitter(rng), 0, 100)))
}

func rawScore(signals Signals) float64 {
	score := baseScore
	if signals.MRZDetected {
		score += mrzWeight * (signals.MRZConfidence / 100)
	}
	if signals.UVFeaturesDetected {
		score += uvWeight
	}
	if signals.AlterationsDetected {
		penalty := alterationWeight * (signals.AlterationsConfidence / 100)
		score = math.Max(MinimumScore, score-penalty)
	} else {
		score += cleanBonus
	}
	return score
}

func jitter(rng JitterSource) float64 {
	if rng == nil {
		return 0
	}
	return rng.Float64()*2*maxJitter - maxJitter
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
