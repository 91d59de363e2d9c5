// Package layout positions every commit of an ancestry document on a 2D
// canvas.
//
// The default branch is drawn as a single flat reference line (the "sacred
// timeline"); every other branch bows below its parent, with a divergence
// offset that grows with the branch's accumulated commits, lines, and files.
// X positions come from commit index alone: the stream is already in
// chronological order, and index interpolation gives an even visual rhythm
// regardless of how bursty the wall-clock history is.
//
// The layout is computed once per run, in a single forward pass over the
// commit stream, and is immutable afterwards. Frame workers share it
// read-only without locking.
package layout

import (
	"math"
	"time"

	"github.com/matzehuels/commitreel/pkg/ancestry"
	"github.com/matzehuels/commitreel/pkg/branchtree"
)

// Canvas margins and vertical geometry, in pixels.
const (
	MarginLeft   = 80.0
	MarginRight  = 40.0
	MarginTop    = 70.0
	MarginBottom = 120.0

	// DefaultBaseY anchors the sacred timeline below the tag/label band.
	DefaultBaseY = MarginTop + 110.0

	// MinBranchSpacing separates a branch's base line from its parent's.
	MinBranchSpacing = 40.0

	// MaxDivergenceOffset caps how far a high-volume branch can sink below
	// its parent's base line.
	MaxDivergenceOffset = 260.0
)

// Divergence weights: per-branch cumulative commits, lines, and files each
// contribute log-scaled to the offset.
const (
	divergenceCommitWeight = 15.0
	divergenceLineWeight   = 8.0
	divergenceFileWeight   = 5.0
)

// Commit glyph size bounds, in pixels. Width scales with files changed,
// height with lines changed.
const (
	MinRectW = 4.0
	MaxRectW = 20.0
	MinRectH = 4.0
	MaxRectH = 24.0
)

// tagLabelY is the Y coordinate of release tag labels, in the band above
// the sacred timeline.
const tagLabelY = MarginTop - 14.0

// PositionedCommit is a commit with its computed screen placement.
// Read-only after layout.
type PositionedCommit struct {
	Commit *ancestry.Commit
	X, Y   float64
	// Slot is the owning branch's traversal slot (0 = default branch).
	Slot int
	// RectW and RectH are the commit glyph dimensions, log-scaled from
	// files and lines changed.
	RectW, RectH float64
	// IsDefaultBranch marks commits on the sacred timeline.
	IsDefaultBranch bool
	// BranchHasConflicts and BranchIsStale carry the owning branch's
	// classification at layout time.
	BranchHasConflicts bool
	BranchIsStale      bool
}

// PositionedMerge is a resolved merge curve from a source branch commit to
// the merge commit on the target branch.
type PositionedMerge struct {
	FromX, FromY float64
	ToX, ToY     float64
	Slot         int
	FromBranch   string
	HasConflicts bool
	IsStale      bool
}

// BranchVisualInfo is the one-per-branch summary used for splines, labels,
// and color assignment.
type BranchVisualInfo struct {
	Name         string
	Slot         int
	Parent       string
	BaseY        float64
	HasConflicts bool
	IsStale      bool
}

// BranchLabel marks where a branch's name is drawn: at the branch's first
// visible commit.
type BranchLabel struct {
	Name         string
	X, Y         float64
	Slot         int
	HasConflicts bool
	IsStale      bool
}

// DateTick is a month boundary on the horizontal axis.
type DateTick struct {
	X     float64
	Label string
}

// PositionedTag is a release tag marker above the sacred timeline.
type PositionedTag struct {
	TagName string
	X       float64
	MainY   float64
	LabelY  float64
}

// Result is the complete static layout shared by all frame workers.
type Result struct {
	Width, Height int
	DefaultBranch string
	// MainY is the sacred timeline's Y coordinate.
	MainY float64

	// Commits has the same length and order as the input commit stream.
	Commits []PositionedCommit
	// Branches holds one BranchVisualInfo per branch in traversal order.
	Branches []BranchVisualInfo
	Merges   []PositionedMerge
	Labels   []BranchLabel
	Ticks    []DateTick
	Tags     []PositionedTag
}

// branchState is the engine-owned running total for one branch during the
// forward pass. States live in a dense table indexed by branch handle so
// the finished layout shares no mutable maps.
type branchState struct {
	commits int
	lines   int
	files   int
	lastIdx int // index into Result.Commits of the branch's latest commit
}

// Compute runs the single forward pass and returns the finished layout.
//
// The tree supplies slot order and classification; baseY values are derived
// here in traversal order, so every parent's base line exists before its
// children's. Compute never fails: unknown branches and unresolvable merges
// degrade per the drop-silently rules.
func Compute(doc *ancestry.Document, tree *branchtree.Tree, width, height int) *Result {
	res := &Result{
		Width:         width,
		Height:        height,
		DefaultBranch: tree.DefaultBranch,
		MainY:         DefaultBaseY,
		Commits:       make([]PositionedCommit, 0, len(doc.Commits)),
	}

	// Base Y per branch, in traversal order. Parent-before-children holds
	// by construction of the tree order.
	baseY := make(map[string]float64, tree.Len())
	baseY[tree.DefaultBranch] = DefaultBaseY
	res.Branches = make([]BranchVisualInfo, 0, tree.Len())
	for _, name := range tree.Order {
		info := tree.Lookup(name)
		y := DefaultBaseY
		if name != tree.DefaultBranch {
			y = baseY[info.Parent] + MinBranchSpacing
		}
		baseY[name] = y
		res.Branches = append(res.Branches, BranchVisualInfo{
			Name:         name,
			Slot:         info.Slot,
			Parent:       info.Parent,
			BaseY:        y,
			HasConflicts: info.HasConflicts,
			IsStale:      info.IsStale,
		})
	}

	// Dense branch-state table: name -> handle -> state.
	handles := make(map[string]int, tree.Len())
	states := make([]branchState, 0, tree.Len())

	total := len(doc.Commits)
	for i := range doc.Commits {
		c := &doc.Commits[i]
		info := tree.Lookup(c.Branch)

		h, ok := handles[c.Branch]
		if !ok {
			h = len(states)
			handles[c.Branch] = h
			states = append(states, branchState{lastIdx: -1})
		}
		st := &states[h]
		st.commits++
		st.lines += c.Lines()
		st.files += c.FilesChanged
		st.lastIdx = i

		x := commitX(i, total, width)
		y := DefaultBaseY
		isDefault := c.Branch == tree.DefaultBranch
		if !isDefault && info != nil {
			parentY := baseY[info.Parent]
			y = parentY + MinBranchSpacing + divergenceOffset(st)
		}

		w, hh := commitRect(c)
		pc := PositionedCommit{
			Commit:          c,
			X:               x,
			Y:               y,
			RectW:           w,
			RectH:           hh,
			IsDefaultBranch: isDefault,
		}
		if info != nil {
			pc.Slot = info.Slot
			pc.BranchHasConflicts = info.HasConflicts
			pc.BranchIsStale = info.IsStale
		}
		res.Commits = append(res.Commits, pc)
	}

	res.Merges = positionMerges(doc, tree, res)
	res.Labels = branchLabels(tree, res)
	res.Ticks = dateTicks(doc, width)
	res.Tags = positionTags(res)

	return res
}

// commitX interpolates a commit index linearly across the usable width.
// A single commit centers; first and last commits land exactly on the
// margins.
func commitX(index, total, width int) float64 {
	usable := float64(width) - MarginLeft - MarginRight
	if total <= 1 {
		return MarginLeft + usable/2
	}
	return MarginLeft + float64(index)/float64(total-1)*usable
}

// divergenceOffset maps a branch's accumulated change volume to vertical
// distance from its parent. Log scaling keeps early commits visually loud
// and late ones incremental; the clamp stops runaway branches from leaving
// the canvas.
func divergenceOffset(st *branchState) float64 {
	off := math.Log2(1+float64(st.commits))*divergenceCommitWeight +
		math.Log2(1+float64(st.lines))*divergenceLineWeight +
		math.Log2(1+float64(st.files))*divergenceFileWeight
	return math.Min(off, MaxDivergenceOffset)
}

// commitRect sizes a commit glyph: width from files changed, height from
// lines changed, both log10-scaled into their clamp ranges.
func commitRect(c *ancestry.Commit) (w, h float64) {
	files := math.Max(1, float64(c.FilesChanged))
	lines := math.Max(1, float64(c.Lines()))

	w = math.Log10(files)*(MaxRectW-MinRectW) + MinRectW
	h = math.Log10(lines)*(MaxRectH-MinRectH) + MinRectH

	return clamp(w, MinRectW, MaxRectW), clamp(h, MinRectH, MaxRectH)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// positionMerges resolves each recorded merge to a curve. The curve starts
// at the most recent prior commit on the source branch and ends at the
// merge commit's own position. Merges whose sha never appears among the
// commits, or whose source branch has produced no commit yet, are dropped
// without a curve.
func positionMerges(doc *ancestry.Document, tree *branchtree.Tree, res *Result) []PositionedMerge {
	shaToIdx := make(map[string]int, len(doc.Commits))
	for i := range doc.Commits {
		shaToIdx[doc.Commits[i].SHA] = i
	}

	var merges []PositionedMerge
	for _, m := range doc.Merges {
		idx, ok := shaToIdx[m.SHA]
		if !ok {
			continue
		}

		// Backward scan for the latest source-branch commit strictly
		// before the merge commit.
		fromIdx := -1
		for j := idx - 1; j >= 0; j-- {
			if doc.Commits[j].Branch == m.FromBranch {
				fromIdx = j
				break
			}
		}
		if fromIdx < 0 {
			continue
		}

		from := res.Commits[fromIdx]
		to := res.Commits[idx]
		pm := PositionedMerge{
			FromX:      from.X,
			FromY:      from.Y,
			ToX:        to.X,
			ToY:        to.Y,
			FromBranch: m.FromBranch,
		}
		if info := tree.Lookup(m.FromBranch); info != nil {
			pm.Slot = info.Slot
			pm.HasConflicts = info.HasConflicts
			pm.IsStale = info.IsStale
		}
		merges = append(merges, pm)
	}
	return merges
}

// branchLabels places each non-default branch's name at its first commit.
func branchLabels(tree *branchtree.Tree, res *Result) []BranchLabel {
	seen := make(map[string]bool)
	var labels []BranchLabel
	for i := range res.Commits {
		pc := &res.Commits[i]
		name := pc.Commit.Branch
		if name == tree.DefaultBranch || seen[name] {
			continue
		}
		seen[name] = true
		labels = append(labels, BranchLabel{
			Name:         name,
			X:            pc.X,
			Y:            pc.Y,
			Slot:         pc.Slot,
			HasConflicts: pc.BranchHasConflicts,
			IsStale:      pc.BranchIsStale,
		})
	}
	return labels
}

// dateTicks emits one tick per distinct year/month, at the first commit of
// that month.
func dateTicks(doc *ancestry.Document, width int) []DateTick {
	if len(doc.Commits) == 0 {
		return nil
	}

	total := len(doc.Commits)
	var ticks []DateTick
	var last struct {
		year  int
		month time.Month
		set   bool
	}
	for i := range doc.Commits {
		ts := doc.Commits[i].Timestamp
		y, m := ts.Year(), ts.Month()
		if last.set && last.year == y && last.month == m {
			continue
		}
		last.year, last.month, last.set = y, m, true
		ticks = append(ticks, DateTick{
			X:     commitX(i, total, width),
			Label: ts.Format("2006/01"),
		})
	}
	return ticks
}

// positionTags marks every tagged commit on the default branch with a
// vertical gold marker above the sacred timeline.
func positionTags(res *Result) []PositionedTag {
	var tags []PositionedTag
	for i := range res.Commits {
		pc := &res.Commits[i]
		if !pc.IsDefaultBranch || !pc.Commit.Tagged() {
			continue
		}
		tags = append(tags, PositionedTag{
			TagName: pc.Commit.Tags[0],
			X:       pc.X,
			MainY:   res.MainY,
			LabelY:  tagLabelY,
		})
	}
	return tags
}
