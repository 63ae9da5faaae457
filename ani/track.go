package ani

import (
	"time"
)

// MotionClass describes the dominant movement pattern of a track
type MotionClass int

const (
	// MotionStationary means velocity is below the stationary threshold
	MotionStationary MotionClass = iota
	// MotionMoving is nonzero velocity not matching any other class
	MotionMoving
	// MotionCrossing means lateral movement dominates, the object is
	// passing across the field of view
	MotionCrossing
	// MotionReceding means the object is moving away from the camera
	MotionReceding
	// MotionApproaching means the object is converging on the camera
	MotionApproaching
)

// String returns the motion class name used in narration prompts
func (m MotionClass) String() string {
	switch m {
	case MotionApproaching:
		return "approaching"
	case MotionReceding:
		return "receding"
	case MotionCrossing:
		return "crossing"
	case MotionMoving:
		return "moving"
	default:
		return "stationary"
	}
}

// RiskLevel is the discrete collision risk reported for a track.  Levels
// are ordered so a higher value is always a greater hazard
type RiskLevel int

const (
	RiskNone RiskLevel = iota
	RiskLow
	RiskMedium
	RiskHigh
	RiskImminent
)

// String returns the risk level name used in narration prompts and overlays
func (r RiskLevel) String() string {
	switch r {
	case RiskImminent:
		return "imminent"
	case RiskHigh:
		return "high"
	case RiskMedium:
		return "medium"
	case RiskLow:
		return "low"
	default:
		return "none"
	}
}

// Observation is one matched sighting retained in a track's history
type Observation struct {
	// Center is the observed midpoint in normalized coordinates
	Center Point
	// Timestamp is the capture time of the sighting
	Timestamp time.Time
	// Bucket is the proximity category at the time of the sighting
	Bucket DistanceBucket
	// Area is the normalized bounding box area, kept as a depth motion
	// proxy when bucket information is missing
	Area float64
}

// Track is the persistent estimate of one physical object across processed
// frames.  Tracks are owned exclusively by the Store and mutated only by
// the engine during a cycle; collaborators read the annotated snapshot and
// must not modify it
type Track struct {
	id           int64
	label        string
	history      []Observation
	velocity     Point
	motion       MotionClass
	position     Point
	predicted    Point
	bucket       DistanceBucket
	box          Rect
	risk         RiskLevel
	reportedRisk RiskLevel
	lowerStreak  int
	missedFrames int
	lastSeen     time.Time
}

// newTrack creates a track from its first sighting.  The id is issued by
// the store and never changes or gets reused for the track's lifetime
func newTrack(id int64, det Detection) *Track {

	t := &Track{
		id:        id,
		label:     det.Label,
		position:  det.Center,
		predicted: det.Center,
		bucket:    det.Bucket,
		box:       det.Box,
		lastSeen:  det.Timestamp,
	}

	t.history = append(t.history, Observation{
		Center:    det.Center,
		Timestamp: det.Timestamp,
		Bucket:    det.Bucket,
		Area:      det.Box.Area(),
	})

	return t
}

// ID returns the stable track identifier used as a render key by the UI
func (t *Track) ID() int64 {
	return t.id
}

// Label returns the sticky object category set at creation
func (t *Track) Label() string {
	return t.label
}

// Velocity returns the smoothed velocity estimate in normalized
// coordinate units per second
func (t *Track) Velocity() Point {
	return t.velocity
}

// Motion returns the current motion classification
func (t *Track) Motion() MotionClass {
	return t.motion
}

// Position returns the track's current center.  For a track matched this
// cycle it is the observed center, for an unmatched track it is the
// coasted extrapolation
func (t *Track) Position() Point {
	return t.position
}

// Predicted returns the center extrapolated over the prediction horizon.
// It is not clamped to the frame, an out of frame point for a crossing
// object means it is leaving the field of view
func (t *Track) Predicted() Point {
	return t.predicted
}

// Bucket returns the proximity category of the most recent sighting,
// BucketUnknown when the depth pipeline produced nothing for it
func (t *Track) Bucket() DistanceBucket {
	return t.bucket
}

// Box returns the most recently observed bounding box
func (t *Track) Box() Rect {
	return t.box
}

// Risk returns the debounced risk level.  Escalations show up immediately,
// de-escalations only after they persist
func (t *Track) Risk() RiskLevel {
	return t.reportedRisk
}

// RawRisk returns the undebounced risk computed this cycle
func (t *Track) RawRisk() RiskLevel {
	return t.risk
}

// MissedFrames returns the count of consecutive cycles without a match
func (t *Track) MissedFrames() int {
	return t.missedFrames
}

// LastSeen returns the timestamp of the most recent matched sighting
func (t *Track) LastSeen() time.Time {
	return t.lastSeen
}

// History returns a copy of the retained observation window, oldest first
func (t *Track) History() []Observation {
	out := make([]Observation, len(t.history))
	copy(out, t.history)
	return out
}

// lastObservation returns the most recent history entry.  Every track has
// at least one, written at creation
func (t *Track) lastObservation() Observation {
	return t.history[len(t.history)-1]
}

// observe folds a matched detection into the track: appends to history,
// trims the retention window, resets the missed counter and recomputes the
// smoothed velocity
func (t *Track) observe(det Detection, smoothing float64, historySize int) {

	last := t.lastObservation()

	// history timestamps must strictly increase, drop a sighting that
	// would violate the ordering
	if !det.Timestamp.After(last.Timestamp) {
		return
	}

	t.history = append(t.history, Observation{
		Center:    det.Center,
		Timestamp: det.Timestamp,
		Bucket:    det.Bucket,
		Area:      det.Box.Area(),
	})

	if len(t.history) > historySize {
		t.history = t.history[len(t.history)-historySize:]
	}

	t.position = det.Center
	t.box = det.Box

	// the bucket always follows the current sighting.  A run of unknown
	// depth readings must drop the track to the conservative default so
	// an established alarm decays through the debounce window instead of
	// holding forever on stale distance
	t.bucket = det.Bucket

	t.missedFrames = 0
	t.lastSeen = det.Timestamp

	// instantaneous velocity from the two most recent sightings, blended
	// with the previous estimate to damp detector jitter
	dt := det.Timestamp.Sub(last.Timestamp).Seconds()

	if dt > 0 {
		inst := Point{
			X: (det.Center.X - last.Center.X) / dt,
			Y: (det.Center.Y - last.Center.Y) / dt,
		}
		t.velocity = Point{
			X: smoothing*inst.X + (1-smoothing)*t.velocity.X,
			Y: smoothing*inst.Y + (1-smoothing)*t.velocity.Y,
		}
	}
}

// coast carries an unmatched track forward one cycle.  The position is
// extrapolated rather than re-observed and the history is left untouched
func (t *Track) coast(now time.Time) {

	t.missedFrames++

	dt := now.Sub(t.lastObservation().Timestamp).Seconds()
	if dt > 0 {
		t.position = t.lastObservation().Center.Add(t.velocity, dt)
	}
}
