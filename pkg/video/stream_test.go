package video

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/commitreel/pkg/errors"
)

// recordingSink remembers the first byte of every delivered frame.
type recordingSink struct {
	frames []byte
	fail   int // frame index at which WriteFrame errors; -1 disables
}

func (s *recordingSink) WriteFrame(pix []byte) error {
	if s.fail >= 0 && len(s.frames) == s.fail {
		return errors.New(errors.ErrCodeEncoderFailed, "sink full")
	}
	s.frames = append(s.frames, pix[0])
	return nil
}

func indexFrame(ctx context.Context, frame int) ([]byte, error) {
	return []byte{byte(frame)}, nil
}

func TestStreamDeliversInOrder(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		workers int
	}{
		{"more frames than batch", 100, 4},
		{"exact batch", 8, 4},
		{"partial final batch", 13, 4},
		{"single worker", 10, 1},
		{"single frame", 1, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{fail: -1}
			err := Stream(context.Background(), indexFrame, sink, StreamOptions{
				TotalFrames: tt.total,
				Workers:     tt.workers,
			})
			if err != nil {
				t.Fatalf("Stream failed: %v", err)
			}
			if len(sink.frames) != tt.total {
				t.Fatalf("delivered %d frames, want %d", len(sink.frames), tt.total)
			}
			for i, b := range sink.frames {
				if int(b) != i {
					t.Fatalf("frame %d delivered out of order (got frame %d)", i, b)
				}
			}
		})
	}
}

func TestStreamParallelRenderStillOrdered(t *testing.T) {
	// Frames finish in scrambled wall-clock order; delivery must not care.
	var inFlight atomic.Int32
	var peak atomic.Int32
	render := func(ctx context.Context, frame int) ([]byte, error) {
		cur := inFlight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		defer inFlight.Add(-1)
		return []byte{byte(frame)}, nil
	}

	sink := &recordingSink{fail: -1}
	err := Stream(context.Background(), render, sink, StreamOptions{
		TotalFrames: 64,
		Workers:     8,
	})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	for i, b := range sink.frames {
		if int(b) != i {
			t.Fatalf("frame %d delivered out of order", i)
		}
	}
	if peak.Load() > 8 {
		t.Errorf("worker cap exceeded: %d concurrent renders", peak.Load())
	}
}

func TestStreamRenderErrorAborts(t *testing.T) {
	render := func(ctx context.Context, frame int) ([]byte, error) {
		if frame == 5 {
			return nil, fmt.Errorf("font missing")
		}
		return []byte{byte(frame)}, nil
	}

	sink := &recordingSink{fail: -1}
	err := Stream(context.Background(), render, sink, StreamOptions{TotalFrames: 20, Workers: 2})
	if !errors.Is(err, errors.ErrCodeRenderFailed) {
		t.Fatalf("expected RENDER_FAILED, got %v", err)
	}
	// Frames before the failure in the same batch may or may not have been
	// delivered, but nothing at or past the failing index may be.
	for i, b := range sink.frames {
		if int(b) != i || i >= 5 {
			t.Fatalf("frame %d delivered past the failure point", b)
		}
	}
}

func TestStreamSinkErrorAborts(t *testing.T) {
	sink := &recordingSink{fail: 3}
	err := Stream(context.Background(), indexFrame, sink, StreamOptions{TotalFrames: 20, Workers: 2})
	if !errors.Is(err, errors.ErrCodeEncoderFailed) {
		t.Fatalf("expected ENCODER_FAILED, got %v", err)
	}
	if len(sink.frames) != 3 {
		t.Errorf("delivered %d frames before sink error, want 3", len(sink.frames))
	}
}

func TestStreamRejectsZeroFrames(t *testing.T) {
	err := Stream(context.Background(), indexFrame, &recordingSink{fail: -1}, StreamOptions{TotalFrames: 0})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestStreamHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Stream(ctx, indexFrame, &recordingSink{fail: -1}, StreamOptions{TotalFrames: 100, Workers: 2})
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestStreamProgressReporting(t *testing.T) {
	var calls []int
	sink := &recordingSink{fail: -1}
	err := Stream(context.Background(), indexFrame, sink, StreamOptions{
		TotalFrames: 10,
		Workers:     2,
		OnProgress:  func(done, total int) { calls = append(calls, done) },
	})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	// Batches of 4: progress at 4, 8, 10.
	want := []int{4, 8, 10}
	if len(calls) != len(want) {
		t.Fatalf("progress calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("progress call %d = %d, want %d", i, calls[i], want[i])
		}
	}
}
