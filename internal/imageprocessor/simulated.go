package imageprocessor

import (
	"context"
	"math/rand/v2"

	"github.com/example/docforensics/internal/forensics"
)

// Detection probabilities and confidence ranges of the simulated analysis.
const (
	mrzProbability        = 0.85
	uvProbability         = 0.75
	alterationProbability = 0.15
)

type confidenceRange struct{ lo, hi float64 }

var (
	mrzDetectedRange        = confidenceRange{70, 95}
	mrzMissingRange         = confidenceRange{10, 30}
	alterationDetectedRange = confidenceRange{60, 90}
	alterationMissingRange  = confidenceRange{5, 25}
)

// RandFactory returns a fresh random source. It is called once per extraction.
type RandFactory func() *rand.Rand

// NewRand is the default RandFactory, seeded from the runtime's random generator.
func NewRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// SeededRand returns a RandFactory that yields identically seeded sources.
func SeededRand(seed1, seed2 uint64) RandFactory {
	return func() *rand.Rand {
		return rand.New(rand.NewPCG(seed1, seed2))
	}
}

// SimulatedExtractor produces synthetic signals without inspecting the image.
// It stands in for a computer vision pipeline.
type SimulatedExtractor struct {
	newRand RandFactory
}

// NewSimulatedExtractor builds an extractor; a nil factory uses NewRand.
func NewSimulatedExtractor(newRand RandFactory) *SimulatedExtractor {
	if newRand == nil {
		newRand = NewRand
	}
	return &SimulatedExtractor{newRand: newRand}
}

// Extract draws a signal set. The image content is not examined.
func (e *SimulatedExtractor) Extract(ctx context.Context, _ []byte) (*forensics.Signals, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return DrawSignals(e.newRand()), nil
}

// DrawSignals draws one simulated signal set from rng.
func DrawSignals(rng *rand.Rand) *forensics.Signals {
	signals := &forensics.Signals{DocumentDetected: true}

	signals.MRZDetected = rng.Float64() < mrzProbability
	if signals.MRZDetected {
		signals.MRZConfidence = mrzDetectedRange.draw(rng)
	} else {
		signals.MRZConfidence = mrzMissingRange.draw(rng)
	}

	signals.UVFeaturesDetected = rng.Float64() < uvProbability

	signals.AlterationsDetected = rng.Float64() < alterationProbability
	if signals.AlterationsDetected {
		signals.AlterationsConfidence = alterationDetectedRange.draw(rng)
	} else {
		signals.AlterationsConfidence = alterationMissingRange.draw(rng)
	}
	return signals
}

func (r confidenceRange) draw(rng *rand.Rand) float64 {
	return r.lo + rng.Float64()*(r.hi-r.lo)
}
