// Package treeviz renders the resolved branch tree as a node-link diagram.
//
// The diagram is the structural companion to the video: one node per
// branch, edges following resolved parent links, styled by the same
// stale/conflict classification the frames use. DOT generation and
// Graphviz rendering are split so the DOT text is inspectable on its own.
package treeviz

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/commitreel/pkg/branchtree"
	"github.com/matzehuels/commitreel/pkg/errors"
)

// Options configures diagram rendering.
type Options struct {
	// Detailed includes slot numbers and classification in node labels.
	Detailed bool
}

// ToDOT converts a branch tree to Graphviz DOT. The default branch is the
// gold root; stale branches render grey and dashed, conflicted ones red.
func ToDOT(tree *branchtree.Tree, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph branches {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"#121218\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontcolor=\"#121218\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=\"#6a6a78\"];\n")
	buf.WriteString("\n")

	for _, name := range tree.Order {
		info := tree.Lookup(name)
		attrs := nodeAttrs(info, name == tree.DefaultBranch, opts.Detailed)
		fmt.Fprintf(&buf, "  %q [%s];\n", name, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, name := range tree.NonDefault() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", tree.Lookup(name).Parent, name)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(info *branchtree.Info, isDefault, detailed bool) []string {
	label := info.Name
	if detailed {
		parts := []string{fmt.Sprintf("slot: %d", info.Slot)}
		if info.IsStale {
			parts = append(parts, "stale")
		}
		if info.HasConflicts {
			parts = append(parts, "conflicts")
		}
		if info.Merged && !isDefault {
			parts = append(parts, "merged")
		}
		label = info.Name + "\n" + strings.Join(parts, "\n")
	}

	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case isDefault:
		attrs = append(attrs, `fillcolor="#d4af37"`)
	case info.HasConflicts:
		attrs = append(attrs, `fillcolor="#cd4841"`, `fontcolor=white`)
	case info.IsStale:
		attrs = append(attrs, `fillcolor="#696973"`, `style="rounded,filled,dashed"`)
	default:
		attrs = append(attrs, `fillcolor="#9cc4e4"`)
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.SVG)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "render %s", format)
	}
	return buf.Bytes(), nil
}
