/*
Package ani implements the Anticipatory Navigation Intelligence core: a
per-object temporal tracker that associates detections across processed
frames, estimates velocity, predicts near-future position, classifies
motion and derives a debounced collision risk level per track.

The engine is a pure synchronous transform from (detections, now) to an
annotated track snapshot.  It performs no I/O and has no internal
parallelism; callers invoking cycles from multiple goroutines are
serialized by the engine's mutex so every cycle sees a settled store.
*/
package ani

import (
	"sync"
	"time"
)

// Config holds the tunable parameters of the tracking engine
type Config struct {
	// PredictionHorizon is how far ahead positions are extrapolated
	PredictionHorizon time.Duration
	// MaxTrackingDistance is the largest normalized center distance at
	// which a detection may still update a track.  It is deliberately
	// large because cycles run at a low effective frame rate, so objects
	// move a lot between processed frames
	MaxTrackingDistance float64
	// MaxMissedFrames is the number of consecutive unmatched cycles a
	// track survives before being pruned
	MaxMissedFrames int
	// VelocitySmoothingFactor is the weight of the newest velocity sample
	// in the exponential blend.  Higher responds faster, lower is more
	// stable against detector jitter
	VelocitySmoothingFactor float64
	// RiskDeescalationMinCycles is how many consecutive cycles a lower
	// risk must persist before it replaces an active warning
	RiskDeescalationMinCycles int
	// StationaryVelocityThreshold is the speed below which a track counts
	// as stationary, in normalized units per second
	StationaryVelocityThreshold float64
	// CrossingVelocityThreshold is the minimum dominant lateral speed for
	// the crossing classification
	CrossingVelocityThreshold float64
	// ApproachAreaGrowth is the minimum relative bounding box growth over
	// the history window treated as depth convergence when no proximity
	// buckets are available
	ApproachAreaGrowth float64
	// HistorySize is the number of observations retained per track
	HistorySize int
	// CollisionZone is the forward path region used by the risk rules
	CollisionZone Zone
	// CollisionZoneMargin inflates the collision zone outward by the given
	// normalized distance, widening the region the crossing rule watches.
	// Zero leaves the zone as configured
	CollisionZoneMargin float64
}

// DefaultConfig returns the engine defaults tuned for roughly 1Hz
// processing of a walking-pace camera feed
func DefaultConfig() Config {
	return Config{
		PredictionHorizon:           1500 * time.Millisecond,
		MaxTrackingDistance:         0.3,
		MaxMissedFrames:             5,
		VelocitySmoothingFactor:     0.7,
		RiskDeescalationMinCycles:   3,
		StationaryVelocityThreshold: 0.01,
		CrossingVelocityThreshold:   0.04,
		ApproachAreaGrowth:          0.15,
		HistorySize:                 5,
		CollisionZone:               DefaultZone(),
	}
}

// Engine owns one camera session's track store and configuration.
// Multiple sessions use separate engines and never share state
type Engine struct {
	mu    sync.Mutex
	cfg   Config
	store *Store
}

// NewEngine creates a tracking engine.  Zero valued config fields fall
// back to their defaults so a partially filled Config stays usable
func NewEngine(cfg Config) *Engine {

	def := DefaultConfig()

	if cfg.PredictionHorizon <= 0 {
		cfg.PredictionHorizon = def.PredictionHorizon
	}
	if cfg.MaxTrackingDistance <= 0 {
		cfg.MaxTrackingDistance = def.MaxTrackingDistance
	}
	if cfg.MaxMissedFrames <= 0 {
		cfg.MaxMissedFrames = def.MaxMissedFrames
	}
	if cfg.VelocitySmoothingFactor <= 0 || cfg.VelocitySmoothingFactor > 1 {
		cfg.VelocitySmoothingFactor = def.VelocitySmoothingFactor
	}
	if cfg.RiskDeescalationMinCycles <= 0 {
		cfg.RiskDeescalationMinCycles = def.RiskDeescalationMinCycles
	}
	if cfg.StationaryVelocityThreshold <= 0 {
		cfg.StationaryVelocityThreshold = def.StationaryVelocityThreshold
	}
	if cfg.CrossingVelocityThreshold <= 0 {
		cfg.CrossingVelocityThreshold = def.CrossingVelocityThreshold
	}
	if cfg.ApproachAreaGrowth <= 0 {
		cfg.ApproachAreaGrowth = def.ApproachAreaGrowth
	}
	if cfg.HistorySize < 2 {
		cfg.HistorySize = def.HistorySize
	}
	if len(cfg.CollisionZone.points) < 3 {
		cfg.CollisionZone = def.CollisionZone
	}
	if cfg.CollisionZoneMargin > 0 {
		cfg.CollisionZone = cfg.CollisionZone.Inflate(cfg.CollisionZoneMargin)
	}

	return &Engine{
		cfg:   cfg,
		store: NewStore(),
	}
}

// Config returns the engine's effective configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// Reset drops all tracks.  Issued ids are not reset so ids stay unique
// across the engine's lifetime
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.store.tracks = make(map[int64]*Track)
}

// ProcessFrame runs one tracking cycle over the detections of a single
// processed frame: association, track update, motion classification,
// prediction, risk scoring and pruning.  It returns the full live track
// set ordered by id, including tracks that went unmatched this cycle but
// have not yet been pruned.  An empty detection list is a valid cycle and
// simply ages all tracks
func (e *Engine) ProcessFrame(detections []Detection, now time.Time) []*Track {

	e.mu.Lock()
	defer e.mu.Unlock()

	// drop malformed records defensively, a degraded collaborator must
	// never corrupt the store
	valid := make([]Detection, 0, len(detections))
	for _, d := range detections {
		if d.valid() {
			valid = append(valid, d)
		}
	}

	tracks := e.store.All()
	res := associate(tracks, valid, e.cfg.MaxTrackingDistance)

	// update matched tracks in id order for reproducible cycles
	for ti := range tracks {
		if di, ok := res.matched[ti]; ok {
			tracks[ti].observe(valid[di], e.cfg.VelocitySmoothingFactor, e.cfg.HistorySize)
		}
	}

	// unmatched tracks age and coast on an extrapolated position
	for _, ti := range res.unmatchedTracks {
		tracks[ti].coast(now)
	}

	// unmatched detections spawn fresh tracks
	for _, di := range res.unmatchedDets {
		t := newTrack(e.store.NextID(), valid[di])
		e.store.Upsert(t)
	}

	// annotate every live track with motion, prediction and risk
	for _, t := range e.store.All() {
		t.motion = classifyMotion(t, e.cfg)
		t.predicted = predictPosition(t, e.cfg.PredictionHorizon)
		t.applyRisk(scoreRisk(t, e.cfg.CollisionZone), e.cfg.RiskDeescalationMinCycles)
	}

	e.store.Prune(e.cfg.MaxMissedFrames)

	return e.store.All()
}
