package thumbnail

import "math"

// Default scoring weights. They sum to 1 so the combined score stays in [0,1].
const (
	DefaultBrightnessWeight = 0.30
	DefaultContrastWeight   = 0.35
	DefaultSharpnessWeight  = 0.35
)

// Sub-score thresholds
const (
	// Frames with brightness inside [IdealBrightnessLow, IdealBrightnessHigh] score 1.
	IdealBrightnessLow  = 0.30
	IdealBrightnessHigh = 0.70
	// Outside [DarkBrightness, BrightBrightness] the score falls from 0.5 towards 0.
	DarkBrightness   = 0.15
	BrightBrightness = 0.85

	// Contrast at or above this standard deviation scores 1.
	FullContrast = 0.25
	// Sharpness at or above this mean Laplacian scores 1.
	FullSharpness = 50.0
)

// ManualScore is reported for frames picked by hand.
const ManualScore = 1.0

// Weights controls how the three sub-scores combine.
type Weights struct {
	Brightness float64
	Contrast   float64
	Sharpness  float64
}

// DefaultWeights returns the 0.30/0.35/0.35 policy.
func DefaultWeights() Weights {
	return Weights{
		Brightness: DefaultBrightnessWeight,
		Contrast:   DefaultContrastWeight,
		Sharpness:  DefaultSharpnessWeight,
	}
}

// Score combines the sub-scores of m.
func (w Weights) Score(m Metrics) float64 {
	score := w.Brightness*BrightnessScore(m.Brightness) +
		w.Contrast*ContrastScore(m.Contrast) +
		w.Sharpness*SharpnessScore(m.Sharpness)
	return clamp01(score)
}

// BrightnessScore is piecewise linear: 1 in the ideal band, 0.5 at the dark and
// bright limits, 0 at pure black or white.
func BrightnessScore(b float64) float64 {
	var s float64
	switch {
	case b < DarkBrightness:
		s = b / DarkBrightness * 0.5
	case b < IdealBrightnessLow:
		s = 0.5 + (b-DarkBrightness)/(IdealBrightnessLow-DarkBrightness)*0.5
	case b <= IdealBrightnessHigh:
		s = 1
	case b <= BrightBrightness:
		s = 0.5 + (BrightBrightness-b)/(BrightBrightness-IdealBrightnessHigh)*0.5
	default:
		s = (1 - b) / (1 - BrightBrightness) * 0.5
	}
	return clamp01(s)
}

// ContrastScore saturates at FullContrast.
func ContrastScore(c float64) float64 {
	return clamp01(c / FullContrast)
}

// SharpnessScore saturates at FullSharpness.
func SharpnessScore(s float64) float64 {
	return clamp01(s / FullSharpness)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
