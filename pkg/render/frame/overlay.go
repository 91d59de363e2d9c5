package frame

import (
	"fmt"
	"image/color"

	"github.com/fogleman/gg"

	"github.com/matzehuels/commitreel/pkg/fonts"
	"github.com/matzehuels/commitreel/pkg/inventory"
	"github.com/matzehuels/commitreel/pkg/layout"
)

// Overlay cell geometry inside the bottom margin band.
const (
	overlayPadTop  = 34.0
	overlayRowGap  = 26.0
	overlayColumns = 4
)

// statCell is one labelled metric in the overlay grid.
type statCell struct {
	label string
	value string
	color color.RGBA
}

// grade maps a metric against ascending thresholds: below warn is good,
// below bad is warning, otherwise critical.
func grade(v, warn, bad float64) color.RGBA {
	switch {
	case v < warn:
		return StatGood
	case v < bad:
		return StatWarn
	default:
		return StatBad
	}
}

// gradeDesc is the inverted scale for metrics where high is healthy.
func gradeDesc(v, warn, good float64) color.RGBA {
	switch {
	case v >= good:
		return StatGood
	case v >= warn:
		return StatWarn
	default:
		return StatBad
	}
}

// overlayCells lays the stats row out in reading order. Thresholds are
// tuned for team-scale repositories; they color the text only and never
// change the numbers.
func overlayCells(s inventory.FrameStats) []statCell {
	return []statCell{
		{
			label: "unmerged commits",
			value: fmt.Sprintf("%d", s.UnmergedCommits),
			color: grade(float64(s.UnmergedCommits), 20, 50),
		},
		{
			label: "unmerged lines",
			value: compact(s.UnmergedLines),
			color: grade(float64(s.UnmergedLines), 2000, 10000),
		},
		{
			label: "active / stale branches",
			value: fmt.Sprintf("%d / %d", s.ActiveBranches, s.StaleBranches),
			color: grade(float64(s.StaleBranches), 1, 3),
		},
		{
			label: "integration debt",
			value: compact(int(s.IntegrationDebt)) + " line-days",
			color: grade(s.IntegrationDebt, 10000, 50000),
		},
		{
			label: "days since release",
			value: fmt.Sprintf("%.0f", s.DaysSinceRelease),
			color: grade(s.DaysSinceRelease, 14, 45),
		},
		{
			label: "awaiting release",
			value: fmt.Sprintf("%d commits", s.AwaitingRelease),
			color: grade(float64(s.AwaitingRelease), 30, 100),
		},
		{
			label: "oldest unmerged",
			value: fmt.Sprintf("%.0f days", s.OldestUnmergedDays),
			color: grade(s.OldestUnmergedDays, 14, 60),
		},
		{
			label: "merges last 30d",
			value: fmt.Sprintf("%d", s.MergeThroughput30d),
			color: gradeDesc(float64(s.MergeThroughput30d), 1, 4),
		},
	}
}

// drawOverlay renders the code-inventory band inside the bottom margin:
// a separator rule, then a grid of labelled metrics colored by health.
func (r *Renderer) drawOverlay(dc *gg.Context, visible int) {
	top := float64(r.lay.Height) - layout.MarginBottom + 6

	dc.SetColor(GridLine)
	dc.SetLineWidth(1)
	dc.DrawLine(layout.MarginLeft, top, float64(r.lay.Width)-layout.MarginRight, top)
	dc.Stroke()

	cells := overlayCells(r.stats.Row(visible))
	usable := float64(r.lay.Width) - layout.MarginLeft - layout.MarginRight
	colWidth := usable / overlayColumns

	valueFace := fonts.NewFace(statSize)
	labelFace := fonts.NewFace(tickSize)
	for i, cell := range cells {
		col := i % overlayColumns
		row := i / overlayColumns
		x := layout.MarginLeft + float64(col)*colWidth
		y := top + overlayPadTop + float64(row)*overlayRowGap

		dc.SetFontFace(labelFace)
		dc.SetColor(TextDim)
		dc.DrawStringAnchored(cell.label, x, y-12, 0, 0.5)

		dc.SetFontFace(valueFace)
		dc.SetColor(cell.color)
		dc.DrawStringAnchored(cell.value, x, y+4, 0, 0.5)
	}
}

// compact shortens large counts for the overlay: 12.4k instead of 12400.
func compact(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 10_000:
		return fmt.Sprintf("%.0fk", float64(n)/1000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
