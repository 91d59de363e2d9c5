package pipeline

import (
	"math"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/commitreel/pkg/errors"
)

// Defaults for the render pipeline.
const (
	DefaultWidth  = 1920
	DefaultHeight = 1080
	DefaultFPS    = 30

	// MinDurationSecs is the floor for the derived video length; even a
	// three-commit repository gets a watchable clip.
	MinDurationSecs = 5

	// commitsPerSecond drives the derived duration: ten commits of
	// history replay per second of video.
	commitsPerSecond = 10
)

// Options configures one pipeline execution.
type Options struct {
	// Input is the ancestry document path.
	Input string
	// Output is the video path handed to the encoder.
	Output string

	Width  int
	Height int
	FPS    int

	// DurationSecs overrides the derived video length. Zero derives it
	// from the commit count.
	DurationSecs int

	// Workers is the render fan-out. Zero uses one worker per CPU.
	Workers int

	// Title overrides the frame header; empty falls back to the document's
	// repository name.
	Title string

	// FFmpegPath overrides the encoder binary.
	FFmpegPath string

	// Refresh bypasses cache reads (writes still happen).
	Refresh bool

	// Progress, when set, receives frame delivery updates.
	Progress func(done, total int)

	// Logger overrides the runner's logger for this execution.
	Logger *log.Logger
}

// ValidateAndSetDefaults fills zero values and rejects unusable options.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Input == "" {
		return errors.New(errors.ErrCodeInvalidInput, "input path is required")
	}
	if o.Output == "" {
		return errors.New(errors.ErrCodeInvalidPath, "output path is required")
	}

	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.FPS == 0 {
		o.FPS = DefaultFPS
	}

	if err := errors.ValidateResolution(o.Width, o.Height); err != nil {
		return err
	}
	if err := errors.ValidateFrameRate(o.FPS); err != nil {
		return err
	}
	return errors.ValidateDuration(o.DurationSecs)
}

// DeriveDuration returns the video length in seconds for a history of the
// given size: the explicit override when set, otherwise commit count at
// commitsPerSecond with the minimum floor applied.
func (o *Options) DeriveDuration(commits int) int {
	if o.DurationSecs > 0 {
		return o.DurationSecs
	}
	secs := int(math.Ceil(float64(commits) / commitsPerSecond))
	if secs < MinDurationSecs {
		secs = MinDurationSecs
	}
	return secs
}
