// Package render groups the visual outputs of commitreel.
//
// # Overview
//
// Three renderers share the computed layout, branch tree, and stats table:
//
//   - [frame]: raster video frames (the core output)
//   - [charts]: the static aggregate HTML dashboard
//   - [treeviz]: the branch tree as a node-link diagram
//
// # Frames
//
// The [frame] subpackage rasterizes one video frame per call. A frame is a
// pure function of its index over immutable inputs, which is what allows
// the video package to fan rendering out across CPUs while the encoder
// consumes frames strictly in order.
//
//	r := frame.New(lay, stats, title, totalFrames)
//	pix, err := r.RenderFrame(ctx, 0)
//
// # Dashboard
//
// The [charts] subpackage writes a single HTML page of interactive charts
// from the document's aggregate statistics.
//
// # Branch Diagram
//
// The [treeviz] subpackage emits Graphviz DOT for the resolved branch tree
// and renders it to SVG or PNG.
//
//	dot := treeviz.ToDOT(tree, treeviz.Options{})
//	svg, err := treeviz.RenderSVG(ctx, dot)
//
// [frame]: github.com/matzehuels/commitreel/pkg/render/frame
// [charts]: github.com/matzehuels/commitreel/pkg/render/charts
// [treeviz]: github.com/matzehuels/commitreel/pkg/render/treeviz
package render
