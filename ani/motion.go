package ani

import (
	"math"
)

// bucketTrend compares the earliest and latest known proximity buckets in
// the retained history.  It returns a negative value when the object is
// getting nearer, positive when it is getting further away, and reports
// whether at least two known buckets existed to compare
func (t *Track) bucketTrend() (trend int, known bool) {

	var first, last DistanceBucket
	count := 0

	for _, obs := range t.history {
		if !obs.Bucket.Known() {
			continue
		}
		if count == 0 {
			first = obs.Bucket
		}
		last = obs.Bucket
		count++
	}

	if count < 2 {
		return 0, false
	}

	return int(last) - int(first), true
}

// areaGrowth returns the ratio of the latest bounding box area to the
// earliest in the retained history.  Box growth is the depth motion proxy
// used when the depth pipeline produced no buckets to compare
func (t *Track) areaGrowth() float64 {

	first := t.history[0].Area
	last := t.lastObservation().Area

	if len(t.history) < 2 || first <= 0 {
		return 1
	}

	return last / first
}

// classifyMotion derives the motion class from the smoothed velocity and
// the depth trend over the history window.  Classes are evaluated in
// hazard order and the first match wins: an object that is both converging
// and crossing is reported as approaching
func classifyMotion(t *Track, cfg Config) MotionClass {

	trend, trendKnown := t.bucketTrend()

	// depth convergence outranks everything else.  Bucket rank is the
	// primary signal, bounding box growth stands in when the depth
	// pipeline is degraded
	if trendKnown {
		if trend < 0 {
			return MotionApproaching
		}
		if trend > 0 {
			return MotionReceding
		}
	} else {
		growth := t.areaGrowth()
		if growth > 1+cfg.ApproachAreaGrowth {
			return MotionApproaching
		}
		if growth < 1-cfg.ApproachAreaGrowth {
			return MotionReceding
		}
	}

	vx := math.Abs(t.velocity.X)
	vy := math.Abs(t.velocity.Y)

	if vx > vy && vx > cfg.CrossingVelocityThreshold {
		return MotionCrossing
	}

	if math.Hypot(t.velocity.X, t.velocity.Y) >= cfg.StationaryVelocityThreshold {
		return MotionMoving
	}

	return MotionStationary
}
