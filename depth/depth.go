/*
Package depth estimates relative scene depth from single frames and tags
detections with coarse proximity buckets.  Monocular depth models output
unbounded "relative depth" values that vary per image, so everything here
works on per-frame normalized maps and makes no claim of metric distance.
*/
package depth

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/visionvoice/go-visionvoice/ani"
)

// Direction labels for the horizontal position of an object relative to
// the camera center, consumed by the narration collaborator
const (
	DirectionLeft  = "left"
	DirectionAhead = "ahead"
	DirectionRight = "right"
)

// Horizontal thresholds splitting the frame into left/ahead/right, with a
// 20% margin either side of center
const (
	leftThreshold  = 0.4
	rightThreshold = 0.6
)

// Map is a per-frame relative depth map normalized to [0,1] where 0 is
// nearest to the camera and 1 is distant background
type Map struct {
	values []float32
	width  int
	height int
}

// Normalize converts a raw relative depth buffer into a normalized Map
// using the min/max over the whole frame.  Models that output larger
// values for nearer pixels set invert so the map always reads 0=near.
// NaN and Inf values are skipped during the scan and read back as
// mid-range so they can never poison min/max or a region median
func Normalize(raw []float32, width, height int, invert bool) (*Map, error) {

	if width <= 0 || height <= 0 || len(raw) != width*height {
		return nil, fmt.Errorf("depth buffer size %d does not match %dx%d",
			len(raw), width, height)
	}

	// first pass: find min/max ignoring invalid values
	minV := float32(math.Inf(1))
	maxV := float32(math.Inf(-1))

	for _, v := range raw {
		if !isFinite32(v) {
			continue
		}
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	out := make([]float32, len(raw))
	den := maxV - minV

	// all-invalid or constant output: fall back to mid-range everywhere
	// rather than failing the cycle
	if !isFinite32(minV) || !isFinite32(maxV) || den <= 0 {
		for i := range out {
			out[i] = 0.5
		}
		return &Map{values: out, width: width, height: height}, nil
	}

	for i, v := range raw {
		if !isFinite32(v) {
			out[i] = 0.5
			continue
		}

		n := (v - minV) / den
		if invert {
			n = 1 - n
		}
		out[i] = n
	}

	return &Map{values: out, width: width, height: height}, nil
}

// isFinite32 reports whether v is neither NaN nor infinite
func isFinite32(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Width returns the depth map width in pixels
func (m *Map) Width() int {
	return m.width
}

// Height returns the depth map height in pixels
func (m *Map) Height() int {
	return m.height
}

// At returns the normalized depth at pixel (x, y)
func (m *Map) At(x, y int) float64 {
	return float64(m.values[y*m.width+x])
}

// RegionDepth computes the representative depth of a normalized bounding
// box region as the median over its pixels.  The median is robust against
// the background pixels a loose box inevitably includes.  An empty region
// falls back to mid-range
func (m *Map) RegionDepth(box ani.Rect) float64 {

	x1 := clamp(int(box.X1*float64(m.width)), 0, m.width)
	y1 := clamp(int(box.Y1*float64(m.height)), 0, m.height)
	x2 := clamp(int(box.X2*float64(m.width)), 0, m.width)
	y2 := clamp(int(box.Y2*float64(m.height)), 0, m.height)

	if x2 <= x1 || y2 <= y1 {
		return 0.5
	}

	region := make([]float64, 0, (x2-x1)*(y2-y1))

	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			region = append(region, m.At(x, y))
		}
	}

	sort.Float64s(region)

	return stat.Quantile(0.5, stat.Empirical, region, nil)
}

// Tag annotates a detection with the median depth of its box region and
// the bucket derived from it
func (m *Map) Tag(det ani.Detection) ani.Detection {
	return det.WithDepth(m.RegionDepth(det.Box))
}

// Direction reports whether an object sits left of, ahead of, or right of
// the camera center.  Direction is a narration concern and is never used
// by the tracking engine itself
func Direction(box ani.Rect) string {

	cx := box.Center().X

	switch {
	case cx < leftThreshold:
		return DirectionLeft
	case cx > rightThreshold:
		return DirectionRight
	default:
		return DirectionAhead
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
