package ani

// scoreRisk derives the undebounced risk level for a track from its
// proximity bucket, motion class and predicted position.  Rules are
// evaluated top-down and the first match wins.  An unknown bucket never
// escalates on its own: a degraded depth pipeline must not raise false
// alarms, and an established warning is held by the debouncer instead
func scoreRisk(t *Track, zone Zone) RiskLevel {

	switch {
	case t.bucket == BucketVeryClose &&
		(t.motion == MotionApproaching || t.motion == MotionStationary):
		return RiskImminent

	case t.bucket == BucketVeryClose:
		return RiskHigh

	case t.motion == MotionApproaching && t.bucket == BucketClose:
		return RiskHigh

	case t.motion == MotionApproaching && t.bucket == BucketModerate:
		return RiskMedium

	case t.motion == MotionCrossing && zone.Contains(t.predicted):
		return RiskMedium

	case t.bucket == BucketClose:
		return RiskLow

	default:
		return RiskNone
	}
}

// applyRisk folds this cycle's raw risk into the reported level.
// Escalation is immediate, de-escalation only happens after the lower
// level persists for minCycles consecutive cycles.  The asymmetry is a
// safety bias: a single noisy frame must never cancel an active warning
func (t *Track) applyRisk(raw RiskLevel, minCycles int) {

	t.risk = raw

	if raw >= t.reportedRisk {
		t.reportedRisk = raw
		t.lowerStreak = 0
		return
	}

	t.lowerStreak++

	if t.lowerStreak >= minCycles {
		t.reportedRisk = raw
		t.lowerStreak = 0
	}
}
