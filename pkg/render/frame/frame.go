// Package frame rasterizes single video frames from a computed layout and
// a precomputed stats table.
//
// A frame is a pure function of its index: the renderer holds only
// immutable inputs, and every call allocates its own drawing context and
// font faces. That is what lets the stream run one render per CPU without
// any locking.
package frame

import (
	"context"
	"image"
	"math"

	"github.com/fogleman/gg"

	"github.com/matzehuels/commitreel/pkg/errors"
	"github.com/matzehuels/commitreel/pkg/fonts"
	"github.com/matzehuels/commitreel/pkg/inventory"
	"github.com/matzehuels/commitreel/pkg/layout"
)

// Text sizes, in points.
const (
	titleSize = 24
	labelSize = 13
	tickSize  = 12
	statSize  = 14
)

// Stroke widths.
const (
	trunkWidth  = 3.0
	branchWidth = 2.0
	mergeWidth  = 1.6
)

// splineLeadIn is how far left of a branch's first commit its spline
// departs from the parent base line.
const splineLeadIn = 30.0

// branchGeometry is the per-branch drawing plan, fixed at construction.
type branchGeometry struct {
	name         string
	slot         int
	parentY      float64
	hasConflicts bool
	isStale      bool
	commitIdxs   []int
}

// Renderer rasterizes frames. Immutable after New; safe for concurrent
// RenderFrame calls.
type Renderer struct {
	lay         *layout.Result
	stats       *inventory.Table
	title       string
	totalFrames int

	branches []branchGeometry
}

// New builds a renderer over an immutable layout and stats table. The
// title is drawn in the frame header, normally the repository name.
func New(lay *layout.Result, stats *inventory.Table, title string, totalFrames int) *Renderer {
	r := &Renderer{
		lay:         lay,
		stats:       stats,
		title:       title,
		totalFrames: totalFrames,
	}

	// Group commit indices by branch once, in stream order, so each frame
	// only slices the prefix it can see.
	baseY := make(map[string]float64, len(lay.Branches))
	for _, b := range lay.Branches {
		baseY[b.Name] = b.BaseY
	}
	byName := make(map[string]*branchGeometry, len(lay.Branches))
	for _, b := range lay.Branches {
		if b.Name == lay.DefaultBranch {
			continue
		}
		g := &branchGeometry{
			name:         b.Name,
			slot:         b.Slot,
			parentY:      baseY[b.Parent],
			hasConflicts: b.HasConflicts,
			isStale:      b.IsStale,
		}
		byName[b.Name] = g
	}
	for i := range lay.Commits {
		if g, ok := byName[lay.Commits[i].Commit.Branch]; ok {
			g.commitIdxs = append(g.commitIdxs, i)
		}
	}
	for _, b := range lay.Branches {
		if g, ok := byName[b.Name]; ok {
			r.branches = append(r.branches, *g)
		}
	}

	return r
}

// VisibleCommits maps a frame index to how many commits the frame shows.
// Progress is linear in frame index and saturates at the commit count, so
// the final frames always show the complete history.
func VisibleCommits(frame, totalFrames, commits int) int {
	if totalFrames <= 0 || commits <= 0 || frame < 0 {
		return 0
	}
	v := int(math.Ceil(float64(frame+1) / float64(totalFrames) * float64(commits)))
	if v > commits {
		v = commits
	}
	return v
}

// RenderFrame rasterizes one frame and returns its raw RGBA pixels, length
// width x height x 4. Satisfies video.RenderFunc.
func (r *Renderer) RenderFrame(ctx context.Context, frame int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if frame < 0 || frame >= r.totalFrames {
		return nil, errors.New(errors.ErrCodeRenderFailed, "frame index %d outside [0, %d)", frame, r.totalFrames)
	}

	visible := VisibleCommits(frame, r.totalFrames, len(r.lay.Commits))

	img := image.NewRGBA(image.Rect(0, 0, r.lay.Width, r.lay.Height))
	dc := gg.NewContextForRGBA(img)

	dc.SetColor(Background)
	dc.Clear()

	var frontier float64 = layout.MarginLeft
	if visible > 0 {
		frontier = r.lay.Commits[visible-1].X
	}

	r.drawTicks(dc, frontier)
	r.drawTrunk(dc, frontier)
	r.drawBranches(dc, visible)
	r.drawMerges(dc, frontier)
	r.drawCommits(dc, visible)
	r.drawLabels(dc, frontier)
	r.drawTags(dc, frontier)
	r.drawHeader(dc, visible)
	r.drawOverlay(dc, visible)

	return img.Pix, nil
}

// drawTicks rules the month boundaries that the replay has reached.
func (r *Renderer) drawTicks(dc *gg.Context, frontier float64) {
	dc.SetFontFace(fonts.NewFace(tickSize))
	bottom := float64(r.lay.Height) - layout.MarginBottom
	for _, tick := range r.lay.Ticks {
		if tick.X > frontier {
			break
		}
		dc.SetColor(GridLine)
		dc.SetLineWidth(1)
		dc.DrawLine(tick.X, layout.MarginTop, tick.X, bottom)
		dc.Stroke()

		dc.SetColor(TextDim)
		dc.DrawStringAnchored(tick.Label, tick.X, bottom+16, 0.5, 0.5)
	}
}

// drawTrunk strokes the default branch's gold line up to the frontier.
func (r *Renderer) drawTrunk(dc *gg.Context, frontier float64) {
	dc.SetColor(TrunkGold)
	dc.SetLineWidth(trunkWidth)
	dc.DrawLine(layout.MarginLeft, r.lay.MainY, frontier, r.lay.MainY)
	dc.Stroke()
}

// drawBranches strokes each branch's spline through its visible commits,
// departing from the parent base line just before the first commit.
func (r *Renderer) drawBranches(dc *gg.Context, visible int) {
	for i := range r.branches {
		g := &r.branches[i]

		pts := make([]point, 0, len(g.commitIdxs)+1)
		for _, idx := range g.commitIdxs {
			if idx >= visible {
				break
			}
			pc := &r.lay.Commits[idx]
			if len(pts) == 0 {
				pts = append(pts, point{x: math.Max(pc.X-splineLeadIn, layout.MarginLeft), y: g.parentY})
			}
			pts = append(pts, point{x: pc.X, y: pc.Y})
		}
		if len(pts) < 2 {
			continue
		}

		dc.SetColor(branchLineColor(g.slot, g.hasConflicts, g.isStale))
		dc.SetLineWidth(branchWidth)
		drawSpline(dc, pts)
	}
}

// drawMerges strokes the return curves whose merge commit is visible.
func (r *Renderer) drawMerges(dc *gg.Context, frontier float64) {
	for _, m := range r.lay.Merges {
		if m.ToX > frontier {
			continue
		}
		dc.SetColor(branchLineColor(m.Slot, m.HasConflicts, m.IsStale))
		dc.SetLineWidth(mergeWidth)
		drawMergeCurve(dc, m.FromX, m.FromY, m.ToX, m.ToY)
	}
}

// drawCommits fills a rounded glyph per visible commit, colored by
// category. Stale branches render dimmed so abandoned work visually
// recedes.
func (r *Renderer) drawCommits(dc *gg.Context, visible int) {
	for i := 0; i < visible; i++ {
		pc := &r.lay.Commits[i]
		c := categoryColor(pc.Commit.Category)
		if pc.BranchIsStale {
			c = dim(c)
		}
		dc.SetColor(c)
		radius := math.Min(2, pc.RectW/2)
		dc.DrawRoundedRectangle(pc.X-pc.RectW/2, pc.Y-pc.RectH/2, pc.RectW, pc.RectH, radius)
		dc.Fill()
	}
}

// drawLabels names each branch at its first visible commit.
func (r *Renderer) drawLabels(dc *gg.Context, frontier float64) {
	dc.SetFontFace(fonts.NewFace(labelSize))
	for _, l := range r.lay.Labels {
		if l.X > frontier {
			continue
		}
		dc.SetColor(branchLineColor(l.Slot, l.HasConflicts, l.IsStale))
		dc.DrawStringAnchored(l.Name, l.X, l.Y+18, 0, 0.5)
	}
}

// drawTags marks visible release tags above the trunk.
func (r *Renderer) drawTags(dc *gg.Context, frontier float64) {
	dc.SetFontFace(fonts.NewFace(labelSize))
	for _, tg := range r.lay.Tags {
		if tg.X > frontier {
			continue
		}
		dc.SetColor(TrunkGold)
		dc.SetLineWidth(1.5)
		dc.DrawLine(tg.X, tg.MainY-6, tg.X, tg.LabelY+8)
		dc.Stroke()
		dc.DrawStringAnchored(tg.TagName, tg.X, tg.LabelY, 0.5, 0.5)
	}
}

// drawHeader writes the title top-left and the replay date top-right.
func (r *Renderer) drawHeader(dc *gg.Context, visible int) {
	dc.SetFontFace(fonts.NewFace(titleSize))
	dc.SetColor(TextPrimary)
	dc.DrawStringAnchored(r.title, layout.MarginLeft, 36, 0, 0.5)

	if visible > 0 {
		ts := r.lay.Commits[visible-1].Commit.Timestamp
		dc.SetFontFace(fonts.NewFace(labelSize))
		dc.SetColor(TextDim)
		dc.DrawStringAnchored(ts.Format("2006-01-02"), float64(r.lay.Width)-layout.MarginRight, 36, 1, 0.5)
	}
}
