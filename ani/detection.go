package ani

import (
	"fmt"
	"math"
	"time"
)

// DistanceBucket is the coarse proximity category assigned to a detection
// by the depth collaborator.  Lower rank means nearer to the camera.
type DistanceBucket int

const (
	// BucketUnknown means no depth information was available
	BucketUnknown DistanceBucket = iota
	// BucketVeryClose is within arms reach of the user
	BucketVeryClose
	// BucketClose is a few steps away
	BucketClose
	// BucketModerate is mid range
	BucketModerate
	// BucketFar is distant background
	BucketFar
)

// Depth thresholds used to map a normalized depth value (0=near, 1=far)
// into a distance bucket
const (
	VeryCloseThreshold = 0.25
	CloseThreshold     = 0.45
	ModerateThreshold  = 0.70
)

// String returns the human readable bucket name used in narration prompts
func (b DistanceBucket) String() string {
	switch b {
	case BucketVeryClose:
		return "very_close"
	case BucketClose:
		return "close"
	case BucketModerate:
		return "moderate"
	case BucketFar:
		return "far"
	default:
		return "unknown"
	}
}

// Known returns true when the bucket carries real depth information
func (b DistanceBucket) Known() bool {
	return b != BucketUnknown
}

// BucketFor maps a normalized depth value (0=near, 1=far) to a distance
// bucket
func BucketFor(depth float64) DistanceBucket {
	switch {
	case depth < VeryCloseThreshold:
		return BucketVeryClose
	case depth < CloseThreshold:
		return BucketClose
	case depth < ModerateThreshold:
		return BucketModerate
	default:
		return BucketFar
	}
}

// Point is a position in normalized frame coordinates where (0,0) is the
// top left corner and (1,1) the bottom right
type Point struct {
	X float64
	Y float64
}

// Add returns the point translated by the given vector scaled by a factor
func (p Point) Add(v Point, scale float64) Point {
	return Point{
		X: p.X + v.X*scale,
		Y: p.Y + v.Y*scale,
	}
}

// DistanceTo returns the Euclidean distance to another point
func (p Point) DistanceTo(o Point) float64 {
	dx := p.X - o.X
	dy := p.Y - o.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Rect is a normalized bounding box with corners in [0,1]
type Rect struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

// NewRect creates a new Rect from corner coordinates
func NewRect(x1, y1, x2, y2 float64) Rect {
	return Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Validate checks the rectangle corners are normalized and ordered
func (r Rect) Validate() error {

	if r.X1 < 0 || r.Y1 < 0 || r.X2 > 1 || r.Y2 > 1 {
		return fmt.Errorf("rect corners must be in [0,1], got (%f,%f,%f,%f)",
			r.X1, r.Y1, r.X2, r.Y2)
	}

	if r.X1 >= r.X2 || r.Y1 >= r.Y2 {
		return fmt.Errorf("rect corners must satisfy x1<x2 and y1<y2, got (%f,%f,%f,%f)",
			r.X1, r.Y1, r.X2, r.Y2)
	}

	return nil
}

// Center returns the midpoint of the rectangle
func (r Rect) Center() Point {
	return Point{
		X: (r.X1 + r.X2) / 2,
		Y: (r.Y1 + r.Y2) / 2,
	}
}

// Area returns the normalized area of the rectangle
func (r Rect) Area() float64 {
	return (r.X2 - r.X1) * (r.Y2 - r.Y1)
}

// Detection is a single object sighting for one processed frame, produced
// by the detector collaborator and tagged with depth information before it
// reaches the tracking engine
type Detection struct {
	// Label is the object category from the detector
	Label string
	// Confidence is the detector score in [0,1]
	Confidence float64
	// Box is the normalized bounding box
	Box Rect
	// Center is the midpoint of Box, derived at construction
	Center Point
	// Bucket is the coarse proximity category, BucketUnknown when the
	// depth pipeline produced nothing for this sighting
	Bucket DistanceBucket
	// DepthValue is the normalized depth (0=near, 1=far), only meaningful
	// when HasDepth is set
	DepthValue float64
	// HasDepth indicates DepthValue carries a real measurement
	HasDepth bool
	// Timestamp is the capture time of the source frame
	Timestamp time.Time
}

// NewDetection builds a validated Detection record.  The detector's
// confidence floor is applied before this point, but the inputs are still
// checked so a malformed sighting can never corrupt a track
func NewDetection(label string, confidence float64, box Rect, ts time.Time) (Detection, error) {

	if label == "" {
		return Detection{}, fmt.Errorf("detection label must not be empty")
	}

	if confidence < 0 || confidence > 1 {
		return Detection{}, fmt.Errorf("detection confidence must be in [0,1], got %f", confidence)
	}

	if err := box.Validate(); err != nil {
		return Detection{}, fmt.Errorf("invalid detection box: %w", err)
	}

	if ts.IsZero() {
		return Detection{}, fmt.Errorf("detection timestamp must be set")
	}

	return Detection{
		Label:      label,
		Confidence: confidence,
		Box:        box,
		Center:     box.Center(),
		Bucket:     BucketUnknown,
		Timestamp:  ts,
	}, nil
}

// WithDepth returns a copy of the detection tagged with a normalized depth
// value and the bucket derived from it
func (d Detection) WithDepth(depth float64) Detection {
	d.DepthValue = depth
	d.HasDepth = true
	d.Bucket = BucketFor(depth)
	return d
}

// WithBucket returns a copy of the detection tagged with a distance bucket
// only, for depth pipelines that report categories without raw values
func (d Detection) WithBucket(b DistanceBucket) Detection {
	d.Bucket = b
	return d
}

// valid reports whether a detection is usable for association.  Zero value
// or hand built records that skip NewDetection are silently dropped by the
// engine rather than corrupting tracks
func (d Detection) valid() bool {
	return d.Label != "" && !d.Timestamp.IsZero() && d.Box.Validate() == nil
}
