package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/commitreel/pkg/cache"
	"github.com/matzehuels/commitreel/pkg/render/charts"
)

// chartsOpts holds the command-line flags for the charts command.
type chartsOpts struct {
	output  string // output HTML path; derived from the input when empty
	noCache bool   // disable the artifact cache
	refresh bool   // bypass cache reads
}

// chartsCommand creates the charts command: aggregate statistics dashboard
// as a standalone HTML page.
func (c *CLI) chartsCommand() *cobra.Command {
	var opts chartsOpts

	cmd := &cobra.Command{
		Use:   "charts [history.json]",
		Short: "Write the aggregate statistics dashboard as HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCharts(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output HTML path (default: input name with _charts.html)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached artifacts and recompute")

	return cmd
}

func (c *CLI) runCharts(ctx context.Context, input string, opts *chartsOpts) error {
	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	sp := newSpinner(ctx, "Generating charts")
	sp.Start()

	doc, docHash, err := runner.Load(ctx, input, opts.refresh)
	if err != nil {
		sp.StopWithError("load failed")
		return err
	}

	key := runner.Keyer.ChartKey(docHash)
	var page []byte
	cached := false

	if !opts.refresh {
		if data, hit, err := runner.Cache.Get(ctx, key); err == nil && hit {
			page = data
			cached = true
		}
	}
	if page == nil {
		var buf bytes.Buffer
		if err := charts.WritePage(&buf, doc); err != nil {
			sp.StopWithError("chart generation failed")
			return err
		}
		page = buf.Bytes()
		_ = runner.Cache.Set(ctx, key, page, cache.ChartTTL)
	}

	output := opts.output
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + "_charts.html"
	}
	if err := os.WriteFile(output, page, 0o644); err != nil {
		sp.StopWithError("write failed")
		return err
	}

	sp.StopWithSuccess(fmt.Sprintf("Wrote %s", StyleValue.Render(output)))
	printStats(len(doc.Commits), len(doc.Branches), cached)
	return nil
}
