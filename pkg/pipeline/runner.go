// Package pipeline orchestrates the full load, layout, stats, and encode
// sequence behind both the CLI and the serve mode.
//
// The Runner is stateless except for the cache and logger: it never stores
// pipeline results, so one Runner can serve concurrent executions with
// different options. Expensive deterministic stages (document
// normalization, the stats table) are cached by document content hash.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/commitreel/pkg/ancestry"
	"github.com/matzehuels/commitreel/pkg/branchtree"
	"github.com/matzehuels/commitreel/pkg/cache"
	"github.com/matzehuels/commitreel/pkg/errors"
	"github.com/matzehuels/commitreel/pkg/inventory"
	"github.com/matzehuels/commitreel/pkg/layout"
	"github.com/matzehuels/commitreel/pkg/observability"
	"github.com/matzehuels/commitreel/pkg/render/frame"
	"github.com/matzehuels/commitreel/pkg/video"
)

// Runner executes the render pipeline with caching.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching; a nil keyer
// takes the default keyer; a nil logger takes the process default.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// CacheInfo reports which stages were served from cache.
type CacheInfo struct {
	DocumentHit bool
	StatsHit    bool
}

// Stats carries per-stage timings for the executed pipeline.
type Stats struct {
	LoadTime   time.Duration
	LayoutTime time.Duration
	StatsTime  time.Duration
	EncodeTime time.Duration
}

// Result is the outcome of one pipeline execution.
type Result struct {
	RunID   string
	DocHash string

	Doc    *ancestry.Document
	Tree   *branchtree.Tree
	Layout *layout.Result
	Table  *inventory.Table

	TotalFrames   int
	DurationSecs  int
	FramesWritten int

	Stats     Stats
	CacheInfo CacheInfo
}

// Execute runs the complete load, layout, stats, and encode pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	runID := uuid.NewString()
	logger := r.logger(&opts).With("run_id", runID[:8], "input", opts.Input)
	result := &Result{RunID: runID}

	// Stage 1: load.
	loadStart := time.Now()
	observability.Pipeline().OnLoadStart(ctx, opts.Input)
	doc, docHash, docHit, err := r.loadDocument(ctx, opts)
	result.Stats.LoadTime = time.Since(loadStart)
	observability.Pipeline().OnLoadComplete(ctx, opts.Input, docCount(doc), result.Stats.LoadTime, err)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	if len(doc.Commits) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyHistory, "ancestry document %s has no commits", opts.Input)
	}
	result.Doc = doc
	result.DocHash = docHash
	result.CacheInfo.DocumentHit = docHit

	logger.Info("loaded history",
		"commits", len(doc.Commits),
		"merges", len(doc.Merges),
		"cache_hit", docHit,
		"duration", result.Stats.LoadTime)

	// Stage 2: branch tree and layout. Layout is cheap relative to
	// rendering and holds pointers into the document, so it is always
	// recomputed rather than cached.
	layoutStart := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, len(doc.Commits))
	tree := branchtree.Build(doc)
	lay := layout.Compute(doc, tree, opts.Width, opts.Height)
	result.Stats.LayoutTime = time.Since(layoutStart)
	observability.Pipeline().OnLayoutComplete(ctx, tree.Len(), result.Stats.LayoutTime, nil)
	result.Tree = tree
	result.Layout = lay

	logger.Info("computed layout",
		"branches", tree.Len(),
		"merge_curves", len(lay.Merges),
		"duration", result.Stats.LayoutTime)

	// Stage 3: stats table.
	statsStart := time.Now()
	observability.Pipeline().OnStatsStart(ctx, len(doc.Commits))
	table, statsHit, err := r.statsTable(ctx, doc, tree, docHash, opts.Refresh)
	result.Stats.StatsTime = time.Since(statsStart)
	observability.Pipeline().OnStatsComplete(ctx, result.Stats.StatsTime, err)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	result.Table = table
	result.CacheInfo.StatsHit = statsHit

	// Stage 4: encode.
	result.DurationSecs = opts.DeriveDuration(len(doc.Commits))
	result.TotalFrames = result.DurationSecs * opts.FPS

	title := opts.Title
	if title == "" {
		title = doc.Metadata.Repo
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	encodeStart := time.Now()
	observability.Pipeline().OnEncodeStart(ctx, result.TotalFrames, workers)
	written, err := r.encode(ctx, lay, table, title, opts, result.TotalFrames, workers)
	result.Stats.EncodeTime = time.Since(encodeStart)
	result.FramesWritten = written
	observability.Pipeline().OnEncodeComplete(ctx, written, result.Stats.EncodeTime, err)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	logger.Info("encoded video",
		"output", opts.Output,
		"frames", written,
		"duration_secs", result.DurationSecs,
		"elapsed", result.Stats.EncodeTime)

	return result, nil
}

// Load reads, validates, and normalizes the input document without running
// the rest of the pipeline. Used by the info, charts, tree, and serve
// commands.
func (r *Runner) Load(ctx context.Context, input string, refresh bool) (*ancestry.Document, string, error) {
	doc, hash, _, err := r.loadDocument(ctx, Options{Input: input, Refresh: refresh})
	return doc, hash, err
}

// loadDocument loads the input with normalized-document caching. The cache
// key is the content hash of the raw bytes, so edits to the input are
// never masked.
func (r *Runner) loadDocument(ctx context.Context, opts Options) (*ancestry.Document, string, bool, error) {
	raw, err := os.ReadFile(opts.Input)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", false, errors.Wrap(errors.ErrCodeFileNotFound, err, "ancestry document %s", opts.Input)
		}
		return nil, "", false, err
	}
	docHash := cache.Hash(raw)
	key := r.Keyer.DocumentKey(docHash)

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var doc ancestry.Document
			if err := json.Unmarshal(data, &doc); err == nil {
				observability.Cache().OnCacheHit(ctx, "document")
				return &doc, docHash, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "document")
	}

	doc, err := ancestry.Load(bytes.NewReader(raw))
	if err != nil {
		return nil, "", false, err
	}

	if data, err := json.Marshal(doc); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.DocumentTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "document", len(data))
		}
	}
	return doc, docHash, false, nil
}

// statsTable computes the frame stats table with caching.
func (r *Runner) statsTable(ctx context.Context, doc *ancestry.Document, tree *branchtree.Tree, docHash string, refresh bool) (*inventory.Table, bool, error) {
	key := r.Keyer.StatsKey(docHash)

	if !refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var rows []inventory.FrameStats
			if err := json.Unmarshal(data, &rows); err == nil && len(rows) == len(doc.Commits)+1 {
				observability.Cache().OnCacheHit(ctx, "stats")
				return inventory.FromRows(rows), true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "stats")
	}

	table := inventory.Precompute(doc, tree)

	if data, err := json.Marshal(table.Rows()); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.StatsTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "stats", len(data))
		}
	}
	return table, false, nil
}

// encode runs the ordered frame stream into the external encoder. Returns
// the number of frames delivered.
func (r *Runner) encode(ctx context.Context, lay *layout.Result, table *inventory.Table, title string, opts Options, totalFrames, workers int) (int, error) {
	enc, err := video.StartEncoder(ctx, video.EncoderOptions{
		OutputPath: opts.Output,
		Width:      opts.Width,
		Height:     opts.Height,
		FPS:        opts.FPS,
		FFmpegPath: opts.FFmpegPath,
	})
	if err != nil {
		return 0, err
	}

	renderer := frame.New(lay, table, title, totalFrames)
	err = video.Stream(ctx, renderer.RenderFrame, enc, video.StreamOptions{
		TotalFrames: totalFrames,
		Workers:     workers,
		OnProgress: func(done, total int) {
			observability.Pipeline().OnEncodeProgress(ctx, done, total)
			if opts.Progress != nil {
				opts.Progress(done, total)
			}
		},
	})
	if err != nil {
		enc.Abort()
		return enc.FramesWritten(), err
	}
	return enc.FramesWritten(), enc.Close()
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) logger(opts *Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}

func docCount(doc *ancestry.Document) int {
	if doc == nil {
		return 0
	}
	return len(doc.Commits)
}
