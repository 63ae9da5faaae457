package ani

import (
	"time"
)

// predictPosition extrapolates the track's current center over the
// configured horizon using the smoothed velocity.  No acceleration is
// modelled and the result is deliberately not clamped to the frame: a
// prediction outside [0,1] for a crossing object means it is leaving the
// field of view, not that the math failed
func predictPosition(t *Track, horizon time.Duration) Point {
	return t.position.Add(t.velocity, horizon.Seconds())
}
