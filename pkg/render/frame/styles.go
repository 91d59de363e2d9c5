package frame

import "image/color"

// Canvas and line colors. The palette is dark-room: near-black background,
// gold trunk, saturated lanes that read at 1080p video compression.
var (
	// Background is the frame clear color.
	Background = color.RGBA{R: 18, G: 18, B: 24, A: 255}

	// TrunkGold is the default branch line and release markers.
	TrunkGold = color.RGBA{R: 212, G: 175, B: 55, A: 255}

	// TextPrimary and TextDim are the two text tones.
	TextPrimary = color.RGBA{R: 230, G: 230, B: 235, A: 255}
	TextDim     = color.RGBA{R: 130, G: 130, B: 145, A: 255}

	// GridLine is the date tick ruling.
	GridLine = color.RGBA{R: 45, G: 45, B: 58, A: 255}

	// StaleGray flattens abandoned branches; ConflictRed flags branches
	// carrying conflict commits.
	StaleGray   = color.RGBA{R: 105, G: 105, B: 115, A: 255}
	ConflictRed = color.RGBA{R: 205, G: 72, B: 65, A: 255}
)

// Overlay threshold colors: healthy, warning, critical.
var (
	StatGood = color.RGBA{R: 92, G: 200, B: 120, A: 255}
	StatWarn = color.RGBA{R: 212, G: 175, B: 55, A: 255}
	StatBad  = color.RGBA{R: 222, G: 84, B: 74, A: 255}
)

// LaneColors cycle across branch slots. Slot 0 (the default branch) never
// consumes one: it is always TrunkGold.
var LaneColors = []color.RGBA{
	{R: 86, G: 156, B: 214, A: 255},  // blue
	{R: 78, G: 201, B: 176, A: 255},  // teal
	{R: 197, G: 134, B: 192, A: 255}, // purple
	{R: 220, G: 150, B: 86, A: 255},  // orange
	{R: 156, G: 220, B: 95, A: 255},  // lime
	{R: 220, G: 110, B: 140, A: 255}, // rose
	{R: 120, G: 180, B: 230, A: 255}, // sky
	{R: 210, G: 200, B: 110, A: 255}, // sand
}

// CategoryColors color commit glyphs by the kind of work they carry.
var CategoryColors = map[string]color.RGBA{
	"feature":  {R: 92, G: 200, B: 120, A: 255},
	"bugfix":   {R: 222, G: 120, B: 74, A: 255},
	"release":  {R: 212, G: 175, B: 55, A: 255},
	"refactor": {R: 140, G: 160, B: 230, A: 255},
	"docs":     {R: 150, G: 150, B: 165, A: 255},
	"ci":       {R: 110, G: 190, B: 200, A: 255},
	"test":     {R: 170, G: 210, B: 120, A: 255},
	"merge":    {R: 197, G: 134, B: 192, A: 255},
	"squash":   {R: 180, G: 140, B: 210, A: 255},
	"conflict": {R: 205, G: 72, B: 65, A: 255},
	"other":    {R: 120, G: 120, B: 135, A: 255},
}

// laneColor returns the lane color for a branch slot. Slot 0 is the trunk.
func laneColor(slot int) color.RGBA {
	if slot <= 0 {
		return TrunkGold
	}
	return LaneColors[(slot-1)%len(LaneColors)]
}

// categoryColor returns the glyph color for a commit category, falling back
// to the "other" tone for anything unrecognized.
func categoryColor(category string) color.RGBA {
	if c, ok := CategoryColors[category]; ok {
		return c
	}
	return CategoryColors["other"]
}

// branchLineColor picks the stroke color for a branch: conflict beats
// stale beats lane.
func branchLineColor(slot int, hasConflicts, isStale bool) color.RGBA {
	switch {
	case hasConflicts:
		return ConflictRed
	case isStale:
		return StaleGray
	default:
		return laneColor(slot)
	}
}

// dim halves a color's intensity, used for not-yet-reached geometry hints.
func dim(c color.RGBA) color.RGBA {
	return color.RGBA{R: c.R / 2, G: c.G / 2, B: c.B / 2, A: c.A}
}
