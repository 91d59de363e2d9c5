package frame

import "github.com/fogleman/gg"

// point is a 2D canvas coordinate.
type point struct {
	x, y float64
}

// drawSpline strokes a Catmull-Rom spline through the given points. Each
// segment converts to a cubic Bezier with tangents taken from the
// neighboring points, so the curve passes through every input point with
// C1 continuity. Endpoints duplicate their neighbor, which flattens the
// curve's entry and exit.
//
// Fewer than two points draw nothing; exactly two draw a straight segment.
func drawSpline(dc *gg.Context, pts []point) {
	if len(pts) < 2 {
		return
	}
	if len(pts) == 2 {
		dc.DrawLine(pts[0].x, pts[0].y, pts[1].x, pts[1].y)
		dc.Stroke()
		return
	}

	dc.MoveTo(pts[0].x, pts[0].y)
	for i := 0; i < len(pts)-1; i++ {
		p0 := pts[max(i-1, 0)]
		p1 := pts[i]
		p2 := pts[i+1]
		p3 := pts[min(i+2, len(pts)-1)]

		c1x := p1.x + (p2.x-p0.x)/6
		c1y := p1.y + (p2.y-p0.y)/6
		c2x := p2.x - (p3.x-p1.x)/6
		c2y := p2.y - (p3.y-p1.y)/6
		dc.CubicTo(c1x, c1y, c2x, c2y, p2.x, p2.y)
	}
	dc.Stroke()
}

// drawMergeCurve strokes a single S-shaped cubic from a branch commit back
// up to its merge commit on the target branch. Control points sit at the
// horizontal midpoint so the curve leaves the branch flat and arrives at
// the trunk flat.
func drawMergeCurve(dc *gg.Context, fromX, fromY, toX, toY float64) {
	midX := (fromX + toX) / 2
	dc.MoveTo(fromX, fromY)
	dc.CubicTo(midX, fromY, midX, toY, toX, toY)
	dc.Stroke()
}
