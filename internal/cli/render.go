package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/commitreel/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string // output video path; derived from the input when empty
	width    int    // frame width in pixels
	height   int    // frame height in pixels
	fps      int    // frames per second
	duration int    // video length in seconds; 0 derives from commit count
	workers  int    // render worker count; 0 uses one per CPU
	title    string // header title; empty falls back to the repo name
	ffmpeg   string // encoder binary override
	noCache  bool   // disable the artifact cache entirely
	refresh  bool   // bypass cache reads, recompute everything
	plain    bool   // log progress lines instead of the live bar
}

// renderCommand creates the render command: ancestry document in, video out.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{
		width:   c.Config.Render.Width,
		height:  c.Config.Render.Height,
		fps:     c.Config.Render.FPS,
		workers: c.Config.Render.Workers,
		ffmpeg:  c.Config.Render.FFmpeg,
		plain:   c.Config.Render.NoJSONUI,
	}

	cmd := &cobra.Command{
		Use:   "render [history.json]",
		Short: "Encode a commit-history replay video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output video path (default: input name with .mp4)")
	cmd.Flags().IntVar(&opts.width, "width", opts.width, "frame width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", opts.height, "frame height in pixels")
	cmd.Flags().IntVar(&opts.fps, "fps", opts.fps, "frames per second")
	cmd.Flags().IntVar(&opts.duration, "duration", 0, "video length in seconds (default: derived from commit count)")
	cmd.Flags().IntVar(&opts.workers, "workers", opts.workers, "parallel render workers (default: one per CPU)")
	cmd.Flags().StringVar(&opts.title, "title", "", "header title (default: repository name)")
	cmd.Flags().StringVar(&opts.ffmpeg, "ffmpeg", opts.ffmpeg, "path to the ffmpeg binary")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached artifacts and recompute")
	cmd.Flags().BoolVar(&opts.plain, "plain", opts.plain, "log progress instead of showing the live bar")

	return cmd
}

// outputPath derives the video path from the input when no --output is given.
func outputPath(output, input string) string {
	if output != "" {
		return output
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".mp4"
}

func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	pipeOpts := pipeline.Options{
		Input:        input,
		Output:       outputPath(opts.output, input),
		Width:        opts.width,
		Height:       opts.height,
		FPS:          opts.fps,
		DurationSecs: opts.duration,
		Workers:      opts.workers,
		Title:        opts.title,
		FFmpegPath:   opts.ffmpeg,
		Refresh:      opts.refresh,
		Logger:       logger,
	}

	var result *pipeline.Result
	if opts.plain {
		pipeOpts.Progress = plainProgress(logger)
		result, err = runner.Execute(ctx, pipeOpts)
	} else {
		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		err = runWithProgressUI("Encoding "+filepath.Base(pipeOpts.Output), cancel, func(progress func(done, total int)) error {
			pipeOpts.Progress = progress
			var execErr error
			result, execErr = runner.Execute(runCtx, pipeOpts)
			return execErr
		})
	}
	if err != nil {
		if ctx.Err() != nil {
			printWarning("render cancelled")
			return ctx.Err()
		}
		return err
	}

	printSuccess("Rendered %s", StyleValue.Render(pipeOpts.Output))
	printStats(len(result.Doc.Commits), result.Tree.Len(), result.CacheInfo.DocumentHit && result.CacheInfo.StatsHit)
	printDetail("%d frames · %ds @ %d fps · load %s · encode %s",
		result.FramesWritten, result.DurationSecs, pipeOpts.FPS,
		result.Stats.LoadTime.Round(time.Millisecond), result.Stats.EncodeTime.Round(time.Millisecond))
	printNextStep("Inspect the history", fmt.Sprintf("%s info %s", appName, input))
	return nil
}

// plainProgress logs a line at every tenth of the frame stream.
func plainProgress(logger interface{ Infof(string, ...any) }) func(done, total int) {
	lastDecile := -1
	return func(done, total int) {
		if total == 0 {
			return
		}
		decile := done * 10 / total
		if decile != lastDecile {
			lastDecile = decile
			logger.Infof("Encoded %d/%d frames (%d%%)", done, total, done*100/total)
		}
	}
}
