// Package forensics holds the authenticity scoring rules and the report
// returned to callers of the analysis endpoint.
package forensics

import "math"

// Placeholder dimensions reported for every analysed document.
const (
	DocumentWidth  = 1000
	DocumentHeight = 650
)

// Signals are the observations extracted from a document image.
// Confidence values are percentages in [0, 100].
type Signals struct {
	DocumentDetected      bool
	MRZDetected           bool
	MRZConfidence         float64
	UVFeaturesDetected    bool
	AlterationsDetected   bool
	AlterationsConfidence float64
}

// Dimensions describe the analysed document in pixels.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Results is the wire form of the signals plus the overall score.
type Results struct {
	DocumentDetected      bool    `json:"document_detected"`
	MRZDetected           bool    `json:"mrz_detected"`
	MRZConfidence         float64 `json:"mrz_confidence"`
	UVFeaturesDetected    bool    `json:"uv_features_detected"`
	AlterationsDetected   bool    `json:"alterations_detected"`
	AlterationsConfidence float64 `json:"alterations_confidence"`
	OverallAuthenticity   int     `json:"overall_authenticity"`
}

// Report is a successful analysis outcome.
type Report struct {
	Dimensions Dimensions
	Results    Results
}

// NewReport combines signals with their score. Confidences are rounded to one decimal.
func NewReport(signals Signals, score int) *Report {
	return &Report{
		Dimensions: Dimensions{Width: DocumentWidth, Height: DocumentHeight},
		Results: Results{
			DocumentDetected:      signals.DocumentDetected,
			MRZDetected:           signals.MRZDetected,
			MRZConfidence:         roundTenth(signals.MRZConfidence),
			UVFeaturesDetected:    signals.UVFeaturesDetected,
			AlterationsDetected:   signals.AlterationsDetected,
			AlterationsConfidence: roundTenth(signals.AlterationsConfidence),
			OverallAuthenticity:   score,
		},
	}
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
