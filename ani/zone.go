package ani

import (
	"fmt"

	clipper "github.com/ctessum/go.clipper"
)

// clipperScale converts normalized coordinates to the integer grid the
// clipper library operates on
const clipperScale = 1e6

// Zone is a closed polygon over normalized frame coordinates representing
// the user's forward path.  A predicted position inside the zone counts as
// a hazard for crossing objects
type Zone struct {
	points []Point
}

// NewZone creates a collision zone from at least three polygon vertices
func NewZone(points ...Point) (Zone, error) {

	if len(points) < 3 {
		return Zone{}, fmt.Errorf("collision zone needs at least 3 points, got %d", len(points))
	}

	z := Zone{points: make([]Point, len(points))}
	copy(z.points, points)
	return z, nil
}

// DefaultZone returns the standard forward path region, a trapezoid that
// is narrow at walking distance and widens toward the user's feet at the
// bottom of the frame
func DefaultZone() Zone {
	return Zone{
		points: []Point{
			{X: 0.4, Y: 0.2},
			{X: 0.6, Y: 0.2},
			{X: 0.7, Y: 1.0},
			{X: 0.3, Y: 1.0},
		},
	}
}

// Points returns a copy of the zone polygon vertices
func (z Zone) Points() []Point {
	out := make([]Point, len(z.points))
	copy(out, z.points)
	return out
}

// Contains reports whether a point falls inside the zone polygon using
// even-odd ray casting
func (z Zone) Contains(p Point) bool {

	inside := false
	n := len(z.points)

	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a := z.points[i]
		b := z.points[j]

		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}

	return inside
}

// Inflate grows the zone polygon outward by the given margin in normalized
// units, used to widen the hazard region for cautious profiles.  A zero or
// negative margin returns the zone unchanged
func (z Zone) Inflate(margin float64) Zone {

	if margin <= 0 || len(z.points) == 0 {
		return z
	}

	// convert the polygon to the clipper integer grid
	var path clipper.Path

	for _, pt := range z.points {
		path = append(path, &clipper.IntPoint{
			X: clipper.CInt(pt.X * clipperScale),
			Y: clipper.CInt(pt.Y * clipperScale),
		})
	}

	co := clipper.NewClipperOffset()
	co.AddPath(path, clipper.JtRound, clipper.EtClosedPolygon)

	solution := co.Execute(margin * clipperScale)

	if len(solution) == 0 || len(solution[0]) < 3 {
		return z
	}

	out := Zone{points: make([]Point, 0, len(solution[0]))}

	for _, pt := range solution[0] {
		out.points = append(out.points, Point{
			X: float64(pt.X) / clipperScale,
			Y: float64(pt.Y) / clipperScale,
		})
	}

	return out
}
