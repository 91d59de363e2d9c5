// Package video drives the external encoder and the ordered frame stream.
//
// Frames are raw RGBA buffers piped into ffmpeg's stdin; ffmpeg owns the
// actual codec work. Rendering is parallel but delivery is strictly
// sequential: a raw video stream has no frame headers, so the only thing
// keeping the output coherent is that every byte arrives in order.
package video

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/matzehuels/commitreel/pkg/errors"
)

// Encoder defaults.
const (
	DefaultFFmpegPath = "ffmpeg"
	DefaultCRF        = 18
	DefaultPreset     = "medium"
)

// stderrTail caps how much encoder chatter is kept for error reporting.
const stderrTail = 4096

// EncoderOptions configures the external encoder process.
type EncoderOptions struct {
	OutputPath string
	Width      int
	Height     int
	FPS        int

	// FFmpegPath overrides the binary looked up on PATH.
	FFmpegPath string
	// CRF and Preset tune the libx264 encode. Zero values take the
	// defaults.
	CRF    int
	Preset string
}

// Encoder is a running external encoder process consuming raw RGBA frames
// on stdin.
type Encoder struct {
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stderr    *tailBuffer
	frameSize int
	written   int
	closed    bool
}

// StartEncoder validates the options and launches the encoder process.
//
// The input side is raw video: no container, no timestamps, just
// width x height x 4 bytes per frame at the declared rate. The output side
// is H.264 in yuv420p for broad player compatibility, which is why the
// resolution must be even.
func StartEncoder(ctx context.Context, opts EncoderOptions) (*Encoder, error) {
	if err := errors.ValidateResolution(opts.Width, opts.Height); err != nil {
		return nil, err
	}
	if err := errors.ValidateFrameRate(opts.FPS); err != nil {
		return nil, err
	}
	if opts.OutputPath == "" {
		return nil, errors.New(errors.ErrCodeInvalidPath, "output path is required")
	}

	bin := opts.FFmpegPath
	if bin == "" {
		bin = DefaultFFmpegPath
	}
	crf := opts.CRF
	if crf == 0 {
		crf = DefaultCRF
	}
	preset := opts.Preset
	if preset == "" {
		preset = DefaultPreset
	}

	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"-r", strconv.Itoa(opts.FPS),
		"-i", "-",
		"-c:v", "libx264",
		"-preset", preset,
		"-crf", strconv.Itoa(crf),
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		opts.OutputPath,
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	tail := &tailBuffer{}
	cmd.Stderr = tail

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncoderFailed, err, "open encoder stdin")
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncoderFailed, err, "start %s", bin)
	}

	return &Encoder{
		cmd:       cmd,
		stdin:     stdin,
		stderr:    tail,
		frameSize: opts.Width * opts.Height * 4,
	}, nil
}

// FrameSize returns the required byte length of a single frame.
func (e *Encoder) FrameSize() int { return e.frameSize }

// FramesWritten returns how many frames have been delivered so far.
func (e *Encoder) FramesWritten() int { return e.written }

// WriteFrame delivers one raw RGBA frame. The buffer length must equal
// FrameSize exactly: a short or long write would shift every subsequent
// frame in the raw stream.
func (e *Encoder) WriteFrame(pix []byte) error {
	if len(pix) != e.frameSize {
		return errors.New(errors.ErrCodeEncoderFailed,
			"frame %d has %d bytes, expected %d", e.written, len(pix), e.frameSize)
	}
	if _, err := e.stdin.Write(pix); err != nil {
		return errors.Wrap(errors.ErrCodeEncoderFailed, err,
			"write frame %d: %s", e.written, e.stderr.Tail())
	}
	e.written++
	return nil
}

// Close flushes stdin and waits for the encoder to exit. A non-zero exit
// status is fatal and reported with the tail of the encoder's stderr.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	if err := e.stdin.Close(); err != nil {
		e.cmd.Wait()
		return errors.Wrap(errors.ErrCodeEncoderFailed, err, "close encoder stdin")
	}
	if err := e.cmd.Wait(); err != nil {
		return errors.Wrap(errors.ErrCodeEncoderFailed, err,
			"encoder exited: %s", e.stderr.Tail())
	}
	return nil
}

// Abort kills the encoder process without waiting for a clean drain. Used
// when rendering fails mid-stream and the partial output is worthless.
func (e *Encoder) Abort() {
	if e.closed {
		return
	}
	e.closed = true
	e.stdin.Close()
	if e.cmd.Process != nil {
		e.cmd.Process.Kill()
	}
	e.cmd.Wait()
}

// tailBuffer keeps the last stderrTail bytes written to it.
type tailBuffer struct {
	buf bytes.Buffer
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf.Write(p)
	if t.buf.Len() > stderrTail {
		trimmed := t.buf.Bytes()[t.buf.Len()-stderrTail:]
		var next bytes.Buffer
		next.Write(trimmed)
		t.buf = next
	}
	return len(p), nil
}

// Tail returns the retained stderr output as a single trimmed line.
func (t *tailBuffer) Tail() string {
	return strings.ReplaceAll(strings.TrimSpace(t.buf.String()), "\n", " | ")
}
