package ani

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// baseTime is the capture time of the first frame in every scenario
var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// mkDet builds a valid detection centered on (cx, cy) with a fixed size
// box, failing the test on invalid input
func mkDet(t *testing.T, label string, cx, cy float64, bucket DistanceBucket, ts time.Time) Detection {
	t.Helper()

	box := NewRect(cx-0.05, cy-0.1, cx+0.05, cy+0.1)
	det, err := NewDetection(label, 0.9, box, ts)
	require.NoError(t, err)

	return det.WithBucket(bucket)
}

func TestEngineApproachScenario(t *testing.T) {

	eng := NewEngine(DefaultConfig())

	steps := []struct {
		cy     float64
		bucket DistanceBucket
	}{
		{0.5, BucketClose},
		{0.45, BucketClose},
		{0.38, BucketClose},
		{0.30, BucketVeryClose},
	}

	var tracks []*Track

	for i, step := range steps {
		ts := baseTime.Add(time.Duration(i) * time.Second)
		tracks = eng.ProcessFrame([]Detection{
			mkDet(t, "person", 0.5, step.cy, step.bucket, ts),
		}, ts)
	}

	require.Len(t, tracks, 1)
	assert.Equal(t, MotionApproaching, tracks[0].Motion())
	assert.Equal(t, RiskImminent, tracks[0].Risk())
	assert.Equal(t, int64(1), tracks[0].ID())
}

func TestEngineCrossingScenario(t *testing.T) {

	cfg := DefaultConfig()
	// report de-escalation without delay so the zone exit is visible on
	// the cycle it happens
	cfg.RiskDeescalationMinCycles = 1
	eng := NewEngine(cfg)

	xs := []float64{0.1, 0.3, 0.5, 0.7}
	risks := make([]RiskLevel, 0, len(xs))
	motions := make([]MotionClass, 0, len(xs))

	for i, x := range xs {
		ts := baseTime.Add(time.Duration(i) * time.Second)
		tracks := eng.ProcessFrame([]Detection{
			mkDet(t, "bicycle", x, 0.5, BucketModerate, ts),
		}, ts)

		require.Len(t, tracks, 1)
		risks = append(risks, tracks[0].Risk())
		motions = append(motions, tracks[0].Motion())
	}

	// second cycle: prediction lands inside the forward path
	assert.Equal(t, MotionCrossing, motions[1])
	assert.Equal(t, RiskMedium, risks[1])

	// later cycles: prediction has left the forward path
	assert.Equal(t, MotionCrossing, motions[2])
	assert.Equal(t, RiskNone, risks[2])
	assert.Equal(t, RiskNone, risks[3])
}

func TestEnginePredictionMath(t *testing.T) {

	cfg := DefaultConfig()
	// unsmoothed velocity makes the extrapolation exact
	cfg.VelocitySmoothingFactor = 1
	eng := NewEngine(cfg)

	eng.ProcessFrame([]Detection{
		mkDet(t, "person", 0.5, 0.5, BucketModerate, baseTime),
	}, baseTime)

	ts := baseTime.Add(time.Second)
	tracks := eng.ProcessFrame([]Detection{
		mkDet(t, "person", 0.6, 0.5, BucketModerate, ts),
	}, ts)

	require.Len(t, tracks, 1)
	assert.InDelta(t, 0.1, tracks[0].Velocity().X, 1e-9)
	assert.InDelta(t, 0.6+0.1*1.5, tracks[0].Predicted().X, 1e-9)
	assert.InDelta(t, 0.5, tracks[0].Predicted().Y, 1e-9)
}

func TestEngineEscalationIsImmediate(t *testing.T) {

	eng := NewEngine(DefaultConfig())

	steps := []struct {
		cy     float64
		bucket DistanceBucket
	}{
		{0.5, BucketClose},
		{0.45, BucketClose},
		{0.35, BucketVeryClose},
	}

	var tracks []*Track

	for i, step := range steps {
		ts := baseTime.Add(time.Duration(i) * time.Second)
		tracks = eng.ProcessFrame([]Detection{
			mkDet(t, "car", 0.5, step.cy, step.bucket, ts),
		}, ts)
	}

	require.Len(t, tracks, 1)
	assert.Equal(t, RiskImminent, tracks[0].Risk(),
		"escalation must be reported on the cycle it happens")
}

func TestEngineDeescalationIsDelayed(t *testing.T) {

	eng := NewEngine(DefaultConfig()) // de-escalation after 3 cycles

	buckets := []DistanceBucket{
		BucketModerate,  // cycle 0: baseline
		BucketClose,     // cycle 1: bucket rank drops, approaching close -> HIGH
		BucketModerate,  // cycle 2: qualifies for NONE
		BucketModerate,  // cycle 3: qualifies for NONE
		BucketModerate,  // cycle 4: third qualifying cycle, NONE reported
	}

	var got []RiskLevel

	for i, b := range buckets {
		ts := baseTime.Add(time.Duration(i) * time.Second)
		tracks := eng.ProcessFrame([]Detection{
			mkDet(t, "person", 0.5, 0.5, b, ts),
		}, ts)

		require.Len(t, tracks, 1)
		got = append(got, tracks[0].Risk())
	}

	assert.Equal(t, RiskHigh, got[1])
	assert.Equal(t, RiskHigh, got[2], "single qualifying cycle must not cancel the warning")
	assert.Equal(t, RiskHigh, got[3])
	assert.Equal(t, RiskNone, got[4])
}

func TestEngineEmptyInputDecay(t *testing.T) {

	eng := NewEngine(DefaultConfig()) // max missed frames 5

	tracks := eng.ProcessFrame([]Detection{
		mkDet(t, "person", 0.2, 0.5, BucketModerate, baseTime),
		mkDet(t, "dog", 0.8, 0.5, BucketModerate, baseTime),
	}, baseTime)
	require.Len(t, tracks, 2)

	// five empty cycles keep the tracks alive at the ceiling
	for i := 1; i <= 5; i++ {
		ts := baseTime.Add(time.Duration(i) * time.Second)
		tracks = eng.ProcessFrame(nil, ts)
	}
	require.Len(t, tracks, 2)
	assert.Equal(t, 5, tracks[0].MissedFrames())

	// the sixth pushes them past the ceiling
	tracks = eng.ProcessFrame(nil, baseTime.Add(6*time.Second))
	assert.Empty(t, tracks)
}

func TestEngineLabelIsolation(t *testing.T) {

	eng := NewEngine(DefaultConfig())

	tracks := eng.ProcessFrame([]Detection{
		mkDet(t, "person", 0.5, 0.5, BucketModerate, baseTime),
	}, baseTime)
	require.Len(t, tracks, 1)
	personID := tracks[0].ID()

	// a chair at the exact same spot must spawn a new track, never update
	// the person
	ts := baseTime.Add(time.Second)
	tracks = eng.ProcessFrame([]Detection{
		mkDet(t, "chair", 0.5, 0.5, BucketModerate, ts),
	}, ts)

	require.Len(t, tracks, 2)
	assert.Equal(t, personID, tracks[0].ID())
	assert.Equal(t, "person", tracks[0].Label())
	assert.Equal(t, 1, tracks[0].MissedFrames())
	assert.Equal(t, "chair", tracks[1].Label())
	assert.Greater(t, tracks[1].ID(), personID)
}

func TestEngineDeterminism(t *testing.T) {

	// the same detection sequence fed to two engines must produce
	// identical matches, ids and annotations
	run := func() [][]int64 {
		eng := NewEngine(DefaultConfig())
		var idsPerCycle [][]int64

		for i := 0; i < 4; i++ {
			ts := baseTime.Add(time.Duration(i) * time.Second)
			offset := float64(i) * 0.02

			dets := []Detection{
				mkDet(t, "person", 0.3+offset, 0.5, BucketClose, ts),
				mkDet(t, "person", 0.4+offset, 0.5, BucketClose, ts),
				mkDet(t, "person", 0.5+offset, 0.5, BucketModerate, ts),
			}

			tracks := eng.ProcessFrame(dets, ts)

			ids := make([]int64, 0, len(tracks))
			for _, tr := range tracks {
				ids = append(ids, tr.ID())
			}
			idsPerCycle = append(idsPerCycle, ids)
		}

		return idsPerCycle
	}

	first := run()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, run())
	}

	// three persistent tracks, no identity churn
	assert.Equal(t, []int64{1, 2, 3}, first[len(first)-1])
}

func TestEngineCoastedPositionExtrapolates(t *testing.T) {

	cfg := DefaultConfig()
	cfg.VelocitySmoothingFactor = 1
	eng := NewEngine(cfg)

	eng.ProcessFrame([]Detection{
		mkDet(t, "person", 0.4, 0.5, BucketModerate, baseTime),
	}, baseTime)

	ts1 := baseTime.Add(time.Second)
	eng.ProcessFrame([]Detection{
		mkDet(t, "person", 0.5, 0.5, BucketModerate, ts1),
	}, ts1)

	// unmatched cycle: the track coasts at its estimated velocity
	ts2 := baseTime.Add(2 * time.Second)
	tracks := eng.ProcessFrame(nil, ts2)

	require.Len(t, tracks, 1)
	assert.Equal(t, 1, tracks[0].MissedFrames())
	assert.InDelta(t, 0.6, tracks[0].Position().X, 1e-9)

	// history holds observations only, never extrapolations
	assert.Len(t, tracks[0].History(), 2)
}

func TestEngineDropsMalformedDetections(t *testing.T) {

	eng := NewEngine(DefaultConfig())

	// zero value detections bypass NewDetection validation; the engine
	// must treat them as absent rather than failing the cycle
	tracks := eng.ProcessFrame([]Detection{{}, {Label: "person"}}, baseTime)
	assert.Empty(t, tracks)
}

func TestEngineCollisionZoneMarginWidensZone(t *testing.T) {

	cfg := DefaultConfig()
	cfg.CollisionZoneMargin = 0.05

	eng := NewEngine(cfg)

	// a point just to the right of the default zone at mid frame
	p := Point{X: 0.67, Y: 0.5}

	assert.False(t, DefaultZone().Contains(p))
	assert.True(t, eng.Config().CollisionZone.Contains(p),
		"margin must widen the effective zone")

	// zero margin leaves the zone untouched
	plain := NewEngine(DefaultConfig())
	assert.False(t, plain.Config().CollisionZone.Contains(p))
}

func TestEngineAlarmDecaysWhenDepthDegrades(t *testing.T) {

	eng := NewEngine(DefaultConfig()) // de-escalation after 3 cycles

	// establish an imminent warning on real depth readings
	steps := []DistanceBucket{BucketClose, BucketVeryClose}

	var tracks []*Track

	for i, b := range steps {
		ts := baseTime.Add(time.Duration(i) * time.Second)
		tracks = eng.ProcessFrame([]Detection{
			mkDet(t, "person", 0.5, 0.5, b, ts),
		}, ts)
	}

	require.Len(t, tracks, 1)
	require.Equal(t, RiskImminent, tracks[0].Risk())

	// the depth pipeline degrades: sightings keep arriving with no bucket.
	// The stale distance must not hold the alarm, only the debounce window
	// may delay the decay
	var got []RiskLevel

	for i := 2; i < 6; i++ {
		ts := baseTime.Add(time.Duration(i) * time.Second)
		tracks = eng.ProcessFrame([]Detection{
			mkDet(t, "person", 0.5, 0.5, BucketUnknown, ts),
		}, ts)

		require.Len(t, tracks, 1)
		got = append(got, tracks[0].Risk())
	}

	assert.Equal(t, RiskImminent, got[0], "first unknown cycle holds the warning")
	assert.Equal(t, RiskImminent, got[1])
	assert.Equal(t, RiskNone, got[2], "alarm must decay after the debounce window")
	assert.Equal(t, BucketUnknown, tracks[0].Bucket())
}

func TestEngineUnknownBucketDoesNotEscalate(t *testing.T) {

	eng := NewEngine(DefaultConfig())

	var tracks []*Track

	for i := 0; i < 3; i++ {
		ts := baseTime.Add(time.Duration(i) * time.Second)
		tracks = eng.ProcessFrame([]Detection{
			mkDet(t, "person", 0.5, 0.5, BucketUnknown, ts),
		}, ts)
	}

	require.Len(t, tracks, 1)
	assert.Equal(t, RiskNone, tracks[0].Risk())
}
