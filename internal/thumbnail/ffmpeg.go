package thumbnail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os/exec"
	"strconv"
	"strings"
)

// defaultFrameInterval is used when the stream does not report a frame rate.
const defaultFrameInterval = 1.0 / 30

// FFmpeg decodes frames by running ffprobe and ffmpeg.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
}

// NewFFmpeg creates a new FFmpeg decoder
func NewFFmpeg(ffmpegPath, ffprobePath string) *FFmpeg {
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}
}

// ProbeOutput is the subset of ffprobe JSON we read
type ProbeOutput struct {
	Format  ProbeFormat   `json:"format"`
	Streams []ProbeStream `json:"streams"`
}

// ProbeFormat holds container information
type ProbeFormat struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
}

// ProbeStream holds stream information
type ProbeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Duration     string `json:"duration"`
	FrameRate    string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
}

// Probe runs ffprobe against source
func (f *FFmpeg) Probe(ctx context.Context, source string) (*ProbeOutput, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		source,
	}

	cmd := exec.CommandContext(ctx, f.ffprobePath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w, stderr: %s", err, stderr.String())
	}

	var out ProbeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	return &out, nil
}

// Open probes source and returns a stream over it
func (f *FFmpeg) Open(ctx context.Context, source string) (Stream, error) {
	probe, err := f.Probe(ctx, source)
	if err != nil {
		return nil, err
	}

	info, interval, err := videoInfo(probe)
	if err != nil {
		return nil, err
	}

	return &ffmpegStream{
		ffmpeg:        f,
		source:        source,
		info:          info,
		frameInterval: interval,
	}, nil
}

// videoInfo extracts duration, dimensions and frame interval from a probe.
func videoInfo(probe *ProbeOutput) (VideoInfo, float64, error) {
	var stream *ProbeStream
	for i := range probe.Streams {
		if probe.Streams[i].CodecType == "video" {
			stream = &probe.Streams[i]
			break
		}
	}
	if stream == nil {
		return VideoInfo{}, 0, fmt.Errorf("no video stream found")
	}

	duration, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil || duration <= 0 {
		duration, err = strconv.ParseFloat(stream.Duration, 64)
		if err != nil {
			return VideoInfo{}, 0, fmt.Errorf("unknown video duration")
		}
	}

	interval := defaultFrameInterval
	rate := parseFrameRate(stream.AvgFrameRate)
	if rate <= 0 {
		rate = parseFrameRate(stream.FrameRate)
	}
	if rate > 0 {
		interval = 1 / rate
	}

	return VideoInfo{
		Duration: duration,
		Width:    stream.Width,
		Height:   stream.Height,
	}, interval, nil
}

// parseFrameRate parses "30000/1001" or "25" style rates.
func parseFrameRate(rate string) float64 {
	if rate == "" {
		return 0
	}

	parts := strings.Split(rate, "/")
	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0
	}
	if len(parts) == 1 {
		return num
	}

	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || den == 0 {
		return 0
	}
	return num / den
}

type ffmpegStream struct {
	ffmpeg        *FFmpeg
	source        string
	info          VideoInfo
	frameInterval float64
}

func (s *ffmpegStream) Info() VideoInfo {
	return s.info
}

// FrameAt decodes a single raw RGBA frame. Each call is its own ffmpeg process,
// so nothing stays open between seeks.
func (s *ffmpegStream) FrameAt(ctx context.Context, ts float64, w, h int) (image.Image, error) {
	seek := seekPosition(ts, s.info.Duration, s.frameInterval)

	args := []string{
		"-v", "error",
		"-ss", fmt.Sprintf("%.3f", seek),
		"-i", s.source,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:%d", w, h),
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, s.ffmpeg.ffmpegPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w, stderr: %s", err, stderr.String())
	}

	want := w * h * 4
	if stdout.Len() < want {
		return nil, fmt.Errorf("no frame decoded at %.3fs (got %d of %d bytes)", seek, stdout.Len(), want)
	}

	return &image.RGBA{
		Pix:    stdout.Bytes()[:want],
		Stride: w * 4,
		Rect:   image.Rect(0, 0, w, h),
	}, nil
}

func (s *ffmpegStream) Close() error {
	return nil
}

// seekPosition pulls seeks at the very end back by one frame so ffmpeg still
// has a frame to emit.
func seekPosition(ts, duration, frameInterval float64) float64 {
	if duration > 0 && ts > duration-frameInterval {
		ts = duration - frameInterval
	}
	if ts < 0 {
		return 0
	}
	return ts
}
