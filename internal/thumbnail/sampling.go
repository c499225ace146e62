package thumbnail

import "math"

// The first and last 5% of a video are skipped to avoid titles and credits.
const (
	windowStart = 0.05
	windowEnd   = 0.95
)

// SampleTimestamps returns count timestamps evenly spaced across
// [0.05*duration, 0.95*duration], both ends included.
func SampleTimestamps(duration float64, count int) []float64 {
	if count <= 0 || duration <= 0 {
		return nil
	}

	start := duration * windowStart
	end := duration * windowEnd

	timestamps := make([]float64, count)
	if count == 1 {
		timestamps[0] = start
		return timestamps
	}

	step := (end - start) / float64(count-1)
	for i := range timestamps {
		timestamps[i] = start + step*float64(i)
	}
	// Avoid float drift on the last sample.
	timestamps[count-1] = end

	return timestamps
}

// OutputSize fits a srcW x srcH frame to the target box. The binding dimension
// takes the target value and the other follows the source aspect ratio.
func OutputSize(srcW, srcH, targetW, targetH int) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return targetW, targetH
	}

	srcRatio := float64(srcW) / float64(srcH)
	targetRatio := float64(targetW) / float64(targetH)

	if srcRatio >= targetRatio {
		h := int(math.Round(float64(targetW) / srcRatio))
		return targetW, max(h, 1)
	}

	w := int(math.Round(float64(targetH) * srcRatio))
	return max(w, 1), targetH
}

// ClampTimestamp pins ts into [0, duration].
func ClampTimestamp(ts, duration float64) float64 {
	if math.IsNaN(ts) || ts < 0 {
		return 0
	}
	if ts > duration {
		return duration
	}
	return ts
}
