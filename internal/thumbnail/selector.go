package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/disintegration/imaging"
)

// ErrDecode marks failures to load or seek a video.
var ErrDecode = errors.New("video decode failed")

// DecodeError describes which decode step failed.
type DecodeError struct {
	Op        string
	Timestamp float64
	Err       error
}

func (e *DecodeError) Error() string {
	if e.Op == "seek" {
		return fmt.Sprintf("%s at %.3fs: %v", e.Op, e.Timestamp, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// VideoInfo is the decodable metadata of a video.
type VideoInfo struct {
	Duration float64
	Width    int
	Height   int
}

// Decoder opens videos for frame access.
type Decoder interface {
	Open(ctx context.Context, source string) (Stream, error)
}

// Stream renders frames of one opened video. It must be closed.
type Stream interface {
	Info() VideoInfo
	// FrameAt returns the frame at ts rendered at w x h.
	FrameAt(ctx context.Context, ts float64, w, h int) (image.Image, error)
	Close() error
}

// Stage names a progress milestone.
type Stage string

const (
	StageLoading   Stage = "loading"
	StageAnalyzing Stage = "analyzing"
	StageSelecting Stage = "selecting"
	StageComplete  Stage = "complete"
)

// Progress is advisory UI feedback.
type Progress struct {
	Stage    Stage  `json:"stage"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// ProgressFunc receives progress updates. It may be nil.
type ProgressFunc func(Progress)

// Candidate is one sampled and scored frame.
type Candidate struct {
	Timestamp float64
	Metrics
	Score float64
	Frame image.Image
}

// Result is the chosen poster frame.
type Result struct {
	Image     []byte  `json:"-"`
	Format    string  `json:"encodedFormat"`
	Timestamp float64 `json:"timestamp"`
	Score     float64 `json:"score"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
}

// Options configures a Selector. Zero fields take defaults.
type Options struct {
	SampleCount  int
	TargetWidth  int
	TargetHeight int
	JPEGQuality  int
	Weights      Weights
}

// DefaultOptions samples 10 frames into a 1280x720 box and encodes at quality 92.
func DefaultOptions() Options {
	return Options{
		SampleCount:  10,
		TargetWidth:  1280,
		TargetHeight: 720,
		JPEGQuality:  92,
		Weights:      DefaultWeights(),
	}
}

// Selector picks representative frames from videos.
type Selector struct {
	decoder Decoder
	opts    Options
}

// NewSelector creates a selector backed by decoder.
func NewSelector(decoder Decoder, opts Options) *Selector {
	def := DefaultOptions()
	if opts.SampleCount <= 0 {
		opts.SampleCount = def.SampleCount
	}
	if opts.TargetWidth <= 0 || opts.TargetHeight <= 0 {
		opts.TargetWidth, opts.TargetHeight = def.TargetWidth, def.TargetHeight
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = def.JPEGQuality
	}
	if opts.Weights == (Weights{}) {
		opts.Weights = def.Weights
	}

	return &Selector{decoder: decoder, opts: opts}
}

// SelectBestFrame samples the video, scores every sample and returns the best.
// Samples are decoded one after another on a single stream.
func (s *Selector) SelectBestFrame(ctx context.Context, source string, onProgress ProgressFunc) (*Result, error) {
	report(onProgress, StageLoading, 0, "Loading video")

	stream, info, err := s.open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	w, h := OutputSize(info.Width, info.Height, s.opts.TargetWidth, s.opts.TargetHeight)
	timestamps := SampleTimestamps(info.Duration, s.opts.SampleCount)

	candidates := make([]Candidate, 0, len(timestamps))
	for i, ts := range timestamps {
		frame, err := s.frameAt(ctx, stream, ts, w, h)
		if err != nil {
			return nil, err
		}

		m := Measure(frame)
		candidates = append(candidates, Candidate{
			Timestamp: ts,
			Metrics:   m,
			Score:     s.opts.Weights.Score(m),
			Frame:     frame,
		})

		report(onProgress, StageAnalyzing, 10+80*(i+1)/len(timestamps),
			fmt.Sprintf("Analyzed frame %d of %d", i+1, len(timestamps)))
	}

	report(onProgress, StageSelecting, 95, "Selecting best frame")

	best, ok := SelectBest(candidates)
	if !ok {
		return nil, &DecodeError{Op: "sample", Err: errors.New("no frames sampled")}
	}

	data, err := s.encode(best.Frame)
	if err != nil {
		return nil, err
	}

	report(onProgress, StageComplete, 100, "Thumbnail selected")

	return &Result{
		Image:     data,
		Format:    "jpeg",
		Timestamp: best.Timestamp,
		Score:     best.Score,
		Width:     w,
		Height:    h,
	}, nil
}

// SelectFrameAtTimestamp renders the frame at ts, clamped to [0, duration],
// without judging its quality.
func (s *Selector) SelectFrameAtTimestamp(ctx context.Context, source string, ts float64) (*Result, error) {
	stream, info, err := s.open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	ts = ClampTimestamp(ts, info.Duration)
	w, h := OutputSize(info.Width, info.Height, s.opts.TargetWidth, s.opts.TargetHeight)

	frame, err := s.frameAt(ctx, stream, ts, w, h)
	if err != nil {
		return nil, err
	}

	data, err := s.encode(frame)
	if err != nil {
		return nil, err
	}

	return &Result{
		Image:     data,
		Format:    "jpeg",
		Timestamp: ts,
		Score:     ManualScore,
		Width:     w,
		Height:    h,
	}, nil
}

// SelectBest returns the highest scoring candidate. Ties go to the earlier
// timestamp.
func SelectBest(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}

	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	return sorted[0], true
}

func (s *Selector) open(ctx context.Context, source string) (Stream, VideoInfo, error) {
	stream, err := s.decoder.Open(ctx, source)
	if err != nil {
		return nil, VideoInfo{}, &DecodeError{Op: "load metadata", Err: err}
	}

	info := stream.Info()
	if info.Duration <= 0 || math.IsInf(info.Duration, 0) || math.IsNaN(info.Duration) {
		stream.Close()
		return nil, VideoInfo{}, &DecodeError{Op: "load metadata", Err: fmt.Errorf("invalid duration %v", info.Duration)}
	}
	if info.Width <= 0 || info.Height <= 0 {
		stream.Close()
		return nil, VideoInfo{}, &DecodeError{Op: "load metadata", Err: fmt.Errorf("invalid dimensions %dx%d", info.Width, info.Height)}
	}

	return stream, info, nil
}

func (s *Selector) frameAt(ctx context.Context, stream Stream, ts float64, w, h int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frame, err := stream.FrameAt(ctx, ts, w, h)
	if err != nil {
		return nil, &DecodeError{Op: "seek", Timestamp: ts, Err: err}
	}

	if b := frame.Bounds(); b.Dx() != w || b.Dy() != h {
		frame = imaging.Resize(frame, w, h, imaging.Lanczos)
	}

	return frame, nil
}

func (s *Selector) encode(frame image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, frame, imaging.JPEG, imaging.JPEGQuality(s.opts.JPEGQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func report(fn ProgressFunc, stage Stage, progress int, msg string) {
	if fn != nil {
		fn(Progress{Stage: stage, Progress: progress, Message: msg})
	}
}
