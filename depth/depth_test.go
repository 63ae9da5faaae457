package depth

import (
	"math"
	"testing"
	"time"

	"github.com/visionvoice/go-visionvoice/ani"
)

func testTime() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

// almostEqual checks if two float values are approximately equal
func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func TestNormalize(t *testing.T) {

	raw := []float32{0, 5, 10, 10, 5, 0}

	m, err := Normalize(raw, 3, 2, false)
	if err != nil {
		t.Fatal(err)
	}

	if !almostEqual(m.At(0, 0), 0, 1e-6) || !almostEqual(m.At(2, 0), 1, 1e-6) {
		t.Errorf("expected full [0,1] range, got %f..%f", m.At(0, 0), m.At(2, 0))
	}

	if !almostEqual(m.At(1, 0), 0.5, 1e-6) {
		t.Errorf("midpoint = %f, want 0.5", m.At(1, 0))
	}
}

func TestNormalizeInvert(t *testing.T) {

	// MiDaS style output: larger value means nearer
	raw := []float32{0, 10}

	m, err := Normalize(raw, 2, 1, true)
	if err != nil {
		t.Fatal(err)
	}

	if !almostEqual(m.At(1, 0), 0, 1e-6) {
		t.Errorf("nearest pixel = %f, want 0", m.At(1, 0))
	}
	if !almostEqual(m.At(0, 0), 1, 1e-6) {
		t.Errorf("farthest pixel = %f, want 1", m.At(0, 0))
	}
}

func TestNormalizeGuards(t *testing.T) {

	nan := float32(math.NaN())

	// invalid values read back as mid-range
	m, err := Normalize([]float32{0, nan, 10, 5}, 2, 2, false)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(m.At(1, 0), 0.5, 1e-6) {
		t.Errorf("NaN pixel = %f, want 0.5", m.At(1, 0))
	}

	// constant map falls back to mid-range everywhere
	m, err = Normalize([]float32{3, 3, 3, 3}, 2, 2, false)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(m.At(0, 0), 0.5, 1e-6) {
		t.Errorf("constant map pixel = %f, want 0.5", m.At(0, 0))
	}

	// size mismatch is an error
	if _, err := Normalize([]float32{1, 2}, 2, 2, false); err == nil {
		t.Error("expected error for mismatched buffer size")
	}
}

func TestRegionDepthMedian(t *testing.T) {

	// 4x4 map: left half near, right half far, one outlier in each
	raw := []float32{
		0.1, 0.1, 0.9, 0.9,
		0.1, 0.9, 0.9, 0.9,
		0.1, 0.1, 0.9, 0.1,
		0.1, 0.1, 0.9, 0.9,
	}

	m := &Map{values: raw, width: 4, height: 4}

	left := m.RegionDepth(ani.NewRect(0, 0, 0.5, 1))
	if !almostEqual(left, 0.1, 1e-6) {
		t.Errorf("left region median = %f, want 0.1 (robust to outlier)", left)
	}

	right := m.RegionDepth(ani.NewRect(0.5, 0, 1, 1))
	if !almostEqual(right, 0.9, 1e-6) {
		t.Errorf("right region median = %f, want 0.9", right)
	}
}

func TestRegionDepthEmptyFallback(t *testing.T) {

	m := &Map{values: make([]float32, 16), width: 4, height: 4}

	// a sliver thinner than one pixel produces an empty region
	got := m.RegionDepth(ani.Rect{X1: 0.5, Y1: 0.5, X2: 0.51, Y2: 0.51})

	if !almostEqual(got, 0.5, 1e-6) {
		t.Errorf("empty region depth = %f, want 0.5", got)
	}
}

func TestTagDetection(t *testing.T) {

	raw := make([]float32, 16)
	for i := range raw {
		raw[i] = 0.2 // everything close
	}

	m := &Map{values: raw, width: 4, height: 4}

	det, err := ani.NewDetection("person", 0.9, ani.NewRect(0.25, 0.25, 0.75, 0.75), testTime())
	if err != nil {
		t.Fatal(err)
	}

	tagged := m.Tag(det)

	if !tagged.HasDepth {
		t.Fatal("tagged detection missing depth")
	}
	if tagged.Bucket != ani.BucketVeryClose {
		t.Errorf("bucket = %v, want very_close", tagged.Bucket)
	}
}

func TestDirection(t *testing.T) {

	tests := []struct {
		name string
		box  ani.Rect
		want string
	}{
		{"far left", ani.NewRect(0.0, 0.4, 0.2, 0.6), DirectionLeft},
		{"center", ani.NewRect(0.4, 0.4, 0.6, 0.6), DirectionAhead},
		{"far right", ani.NewRect(0.8, 0.4, 1.0, 0.6), DirectionRight},
		{"left of margin", ani.NewRect(0.2, 0.4, 0.5, 0.6), DirectionLeft},
		{"right of margin", ani.NewRect(0.5, 0.4, 0.8, 0.6), DirectionRight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Direction(tt.box); got != tt.want {
				t.Errorf("Direction() = %q, want %q", got, tt.want)
			}
		})
	}
}
