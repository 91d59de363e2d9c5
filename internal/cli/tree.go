package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/commitreel/pkg/branchtree"
	"github.com/matzehuels/commitreel/pkg/render/treeviz"
)

// treeOpts holds the command-line flags for the tree command.
type treeOpts struct {
	output   string // output path; derived from the input when empty
	format   string // output format: dot, svg, png
	detailed bool   // include per-branch stats in node labels
	refresh  bool   // bypass cached document normalization
}

// validTreeFormats is the set of supported tree export formats.
var validTreeFormats = map[string]bool{"dot": true, "svg": true, "png": true}

// treeCommand creates the tree command: branch ancestry diagram export.
func (c *CLI) treeCommand() *cobra.Command {
	opts := treeOpts{format: "svg"}

	cmd := &cobra.Command{
		Use:   "tree [history.json]",
		Short: "Export the branch tree as DOT, SVG, or PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validTreeFormats[opts.format] {
				return fmt.Errorf("invalid format: %s (must be 'dot', 'svg', or 'png')", opts.format)
			}
			return c.runTree(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output path (default: input name with the format extension)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg (default), dot, png")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include per-branch stats in node labels")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached artifacts and recompute")

	return cmd
}

func (c *CLI) runTree(ctx context.Context, input string, opts *treeOpts) error {
	runner, err := c.newRunner(false)
	if err != nil {
		return err
	}
	defer runner.Close()

	sp := newSpinner(ctx, "Rendering branch tree")
	sp.Start()

	doc, _, err := runner.Load(ctx, input, opts.refresh)
	if err != nil {
		sp.StopWithError("load failed")
		return err
	}

	tree := branchtree.Build(doc)
	dot := treeviz.ToDOT(tree, treeviz.Options{Detailed: opts.detailed})

	var data []byte
	switch opts.format {
	case "dot":
		data = []byte(dot)
	case "svg":
		data, err = treeviz.RenderSVG(ctx, dot)
	case "png":
		data, err = treeviz.RenderPNG(ctx, dot)
	}
	if err != nil {
		sp.StopWithError("graphviz rendering failed")
		return err
	}

	output := opts.output
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + "_tree." + opts.format
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		sp.StopWithError("write failed")
		return err
	}

	sp.StopWithSuccess(fmt.Sprintf("Wrote %s", StyleValue.Render(output)))
	printDetail("%d branches · %d merges", tree.Len(), len(doc.Merges))
	return nil
}
