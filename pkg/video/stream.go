package video

import (
	"context"
	"runtime"
	"sync"

	"github.com/matzehuels/commitreel/pkg/errors"
)

// RenderFunc produces the raw RGBA pixels for one frame index. It is called
// concurrently from multiple workers and must not share mutable state
// between calls.
type RenderFunc func(ctx context.Context, frame int) ([]byte, error)

// FrameSink receives frames strictly in index order. *Encoder satisfies it.
type FrameSink interface {
	WriteFrame(pix []byte) error
}

// StreamOptions tunes the ordered parallel stream.
type StreamOptions struct {
	TotalFrames int
	// Workers is the parallel render fan-out. Zero means runtime.NumCPU.
	Workers int
	// OnProgress, when set, is called after each batch with the number of
	// frames delivered so far.
	OnProgress func(done, total int)
}

// Stream renders TotalFrames frames in parallel batches and delivers them
// to the sink in strict index order.
//
// Each batch is twice the worker count: workers render into an
// index-addressed slice, the batch is then drained sequentially. Ordering
// is therefore structural, not synchronized per frame. The first render or
// sink error aborts the whole stream; a gap in a raw video stream cannot be
// recovered from.
func Stream(ctx context.Context, render RenderFunc, sink FrameSink, opts StreamOptions) error {
	if opts.TotalFrames <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "total frames must be positive, got %d", opts.TotalFrames)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	batchSize := workers * 2

	frames := make([][]byte, batchSize)
	renderErrs := make([]error, batchSize)

	for start := 0; start < opts.TotalFrames; start += batchSize {
		end := start + batchSize
		if end > opts.TotalFrames {
			end = opts.TotalFrames
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		var wg sync.WaitGroup
		sem := make(chan struct{}, workers)
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				frames[idx-start], renderErrs[idx-start] = render(ctx, idx)
			}(i)
		}
		wg.Wait()

		for i := start; i < end; i++ {
			slot := i - start
			if err := renderErrs[slot]; err != nil {
				return errors.Wrap(errors.ErrCodeRenderFailed, err, "render frame %d", i)
			}
			if err := sink.WriteFrame(frames[slot]); err != nil {
				return err
			}
			frames[slot] = nil
			renderErrs[slot] = nil
		}

		if opts.OnProgress != nil {
			opts.OnProgress(end, opts.TotalFrames)
		}
	}

	return nil
}
