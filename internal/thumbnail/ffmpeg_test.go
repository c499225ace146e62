package thumbnail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		rate string
		want float64
	}{
		{"30/1", 30},
		{"30000/1001", 30000.0 / 1001},
		{"25", 25},
		{"0/0", 0},
		{"", 0},
		{"abc", 0},
	}

	for _, tt := range tests {
		t.Run(tt.rate, func(t *testing.T) {
			assert.InDelta(t, tt.want, parseFrameRate(tt.rate), 1e-9)
		})
	}
}

func TestVideoInfo(t *testing.T) {
	probe := &ProbeOutput{
		Format: ProbeFormat{Duration: "12.500000"},
		Streams: []ProbeStream{
			{CodecType: "audio", CodecName: "aac"},
			{CodecType: "video", CodecName: "h264", Width: 1920, Height: 1080, AvgFrameRate: "25/1"},
		},
	}

	info, interval, err := videoInfo(probe)
	require.NoError(t, err)
	assert.Equal(t, VideoInfo{Duration: 12.5, Width: 1920, Height: 1080}, info)
	assert.InDelta(t, 0.04, interval, 1e-9)
}

func TestVideoInfoFallsBackToStreamDuration(t *testing.T) {
	probe := &ProbeOutput{
		Format: ProbeFormat{Duration: "N/A"},
		Streams: []ProbeStream{
			{CodecType: "video", Width: 640, Height: 480, Duration: "8.0", FrameRate: "24/1"},
		},
	}

	info, interval, err := videoInfo(probe)
	require.NoError(t, err)
	assert.Equal(t, 8.0, info.Duration)
	assert.InDelta(t, 1.0/24, interval, 1e-9)
}

func TestVideoInfoErrors(t *testing.T) {
	_, _, err := videoInfo(&ProbeOutput{Streams: []ProbeStream{{CodecType: "audio"}}})
	assert.Error(t, err)

	_, _, err = videoInfo(&ProbeOutput{Streams: []ProbeStream{{CodecType: "video", Width: 10, Height: 10}}})
	assert.Error(t, err)
}

func TestSeekPosition(t *testing.T) {
	assert.Equal(t, 0.0, seekPosition(-1, 10, 0.04))
	assert.Equal(t, 5.0, seekPosition(5, 10, 0.04))
	assert.InDelta(t, 9.96, seekPosition(10, 10, 0.04), 1e-9)
	assert.Equal(t, 0.0, seekPosition(0.01, 0.02, 0.04))
}
