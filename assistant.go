package visionvoice

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/visionvoice/go-visionvoice/ani"
	"github.com/visionvoice/go-visionvoice/camera"
	"github.com/visionvoice/go-visionvoice/depth"
	"github.com/visionvoice/go-visionvoice/detect"
	"github.com/visionvoice/go-visionvoice/eventlog"
	"github.com/visionvoice/go-visionvoice/narrate"
	"github.com/visionvoice/go-visionvoice/render"
	"github.com/visionvoice/go-visionvoice/server"
	"github.com/visionvoice/go-visionvoice/speech"
)

// Describer generates a guidance phrase from a track snapshot
type Describer interface {
	Describe(ctx context.Context, tracks []*ani.Track) (string, error)
}

// DepthEstimator produces a depth map for a camera frame
type DepthEstimator interface {
	Estimate(img gocv.Mat) (*depth.Map, error)
	Close() error
}

// Options configures an Assistant.  Detector is required, all other
// collaborators are optional and their features are disabled when nil
type Options struct {
	// Engine configures the temporal tracker
	Engine ani.Config
	// Detector finds objects in camera frames
	Detector detect.Detector
	// Depth estimates per pixel distance, detections carry an unknown
	// distance bucket when nil
	Depth DepthEstimator
	// Narrator phrases guidance via a language model, template phrasing
	// is used when nil or on narration failure
	Narrator Describer
	// Synthesizer speaks guidance aloud
	Synthesizer speech.Synthesizer
	// Events records risk transitions
	Events *eventlog.Store
	// Server publishes annotated frames and snapshots
	Server *server.Server
	// MinSpeakRisk is the lowest risk level worth interrupting the user
	// for
	MinSpeakRisk ani.RiskLevel
	// CaptionFont is the path of a TTF font used to render the guidance
	// banner; the built in Hershey font is used when empty
	CaptionFont string
	// CycleInterval paces the perception loop
	CycleInterval time.Duration
	// NarrateTimeout bounds a single narration request
	NarrateTimeout time.Duration
}

// Assistant runs the perception loop: detect, track, decide, speak
type Assistant struct {
	opts     Options
	engine   *ani.Engine
	decision *narrate.Decision

	// reported risk per track from the previous cycle, used to detect
	// transitions
	prevRisk map[int64]ani.RiskLevel

	font    render.Font
	caption *render.Caption
	trail   render.TrailStyle
	log     *logrus.Entry
}

// NewAssistant creates an Assistant from the given options
func NewAssistant(opts Options) (*Assistant, error) {

	if opts.Detector == nil {
		return nil, fmt.Errorf("a detector is required")
	}

	if opts.MinSpeakRisk == 0 {
		opts.MinSpeakRisk = ani.RiskMedium
	}
	if opts.CycleInterval == 0 {
		opts.CycleInterval = 200 * time.Millisecond
	}
	if opts.NarrateTimeout == 0 {
		opts.NarrateTimeout = 5 * time.Second
	}

	var caption *render.Caption

	if opts.CaptionFont != "" {
		var err error
		caption, err = render.NewCaption(opts.CaptionFont)

		if err != nil {
			return nil, fmt.Errorf("failed to load caption font: %w", err)
		}
	}

	return &Assistant{
		opts:     opts,
		engine:   ani.NewEngine(opts.Engine),
		decision: narrate.NewDecision(opts.MinSpeakRisk),
		prevRisk: make(map[int64]ani.RiskLevel),
		font:     render.DefaultFont(),
		caption:  caption,
		trail:    render.DefaultTrailStyle(),
		log:      logrus.WithField("component", "assistant"),
	}, nil
}

// Cycle runs one perception cycle on a frame and returns the updated
// track snapshot and the guidance phrase chosen for it, if any.  A
// failing detector or depth estimator degrades to an empty detection set
// so existing tracks coast instead of being cut off
func (a *Assistant) Cycle(ctx context.Context, img gocv.Mat,
	now time.Time) ([]*ani.Track, string) {

	results, err := a.opts.Detector.Detect(img)

	if err != nil {
		a.log.WithError(err).Warn("detection failed, coasting tracks")
		results = nil
	}

	// drop detections that don't matter for navigation.  The detector owns
	// the result slice, so filter into a fresh one
	relevant := make([]detect.Result, 0, len(results))

	for _, r := range results {
		if SafetyRelevant(r.Label) {
			relevant = append(relevant, r)
		}
	}

	var dmap *depth.Map

	if a.opts.Depth != nil && len(relevant) > 0 {
		dmap, err = a.opts.Depth.Estimate(img)

		if err != nil {
			a.log.WithError(err).Warn("depth estimation failed")
			dmap = nil
		}
	}

	tracks := a.engine.ProcessFrame(detect.ToDetections(relevant, dmap, now), now)

	guidance := a.decide(ctx, tracks)
	a.recordTransitions(tracks, guidance)

	return tracks, guidance
}

// decide settles on a guidance phrase for the snapshot and speaks it when
// the decision gate allows
func (a *Assistant) decide(ctx context.Context, tracks []*ani.Track) string {

	highest := narrate.HighestRisk(tracks)

	if highest < a.opts.MinSpeakRisk {
		return ""
	}

	if a.opts.Narrator != nil {
		nctx, cancel := context.WithTimeout(ctx, a.opts.NarrateTimeout)
		guidance, err := a.opts.Narrator.Describe(nctx, tracks)
		cancel()

		if err == nil && guidance != "" {
			return a.speak(ctx, guidance, highest)
		}

		a.log.WithError(err).Warn("narration failed, using fallback phrasing")
	}

	return a.speak(ctx, narrate.FallbackGuidance(tracks), highest)
}

// speak runs the guidance through the decision gate and synthesizes it
// asynchronously so audio latency never stalls the perception loop
func (a *Assistant) speak(ctx context.Context, guidance string,
	highest ani.RiskLevel) string {

	if !a.decision.ShouldSpeak(guidance, highest) {
		return ""
	}

	a.log.WithFields(logrus.Fields{
		"risk":     highest.String(),
		"guidance": guidance,
	}).Info("speaking guidance")

	if a.opts.Synthesizer != nil {
		go func() {
			if _, err := a.opts.Synthesizer.Synthesize(ctx, guidance); err != nil {
				a.log.WithError(err).Warn("speech synthesis failed")
			}
		}()
	}

	return guidance
}

// recordTransitions persists risk level changes since the previous cycle
func (a *Assistant) recordTransitions(tracks []*ani.Track, guidance string) {

	seen := make(map[int64]bool, len(tracks))

	for _, t := range tracks {
		seen[t.ID()] = true
		prev := a.prevRisk[t.ID()]

		if t.Risk() != prev {

			if a.opts.Events != nil {
				err := a.opts.Events.RecordTransition(eventlog.Transition{
					TrackID:  t.ID(),
					Label:    t.Label(),
					FromRisk: prev,
					ToRisk:   t.Risk(),
					Motion:   t.Motion(),
					Bucket:   t.Bucket(),
					Guidance: guidance,
				})
				if err != nil {
					a.log.WithError(err).Warn("failed to record risk transition")
				}
			}

			a.prevRisk[t.ID()] = t.Risk()
		}
	}

	// forget pruned tracks
	for id := range a.prevRisk {
		if !seen[id] {
			delete(a.prevRisk, id)
		}
	}
}

// Run drives the perception loop over frames from the source until the
// context is cancelled or the source is exhausted
func (a *Assistant) Run(ctx context.Context, source *camera.Source) error {

	img := gocv.NewMat()
	defer img.Close()

	ticker := time.NewTicker(a.opts.CycleInterval)
	defer ticker.Stop()

	a.log.WithField("source", source.Name()).Info("assistant started")

	for {
		select {
		case <-ctx.Done():
			a.log.Info("assistant stopped")
			return ctx.Err()

		case <-ticker.C:

			now, err := source.Read(&img)
			if err != nil {
				return fmt.Errorf("frame source failed: %w", err)
			}

			tracks, guidance := a.Cycle(ctx, img, now)

			if a.opts.Server != nil {
				a.publish(img, tracks, guidance)
			}
		}
	}
}

// publish annotates a copy of the frame and hands it to the HTTP server
func (a *Assistant) publish(img gocv.Mat, tracks []*ani.Track,
	guidance string) {

	resImg := gocv.NewMat()
	defer resImg.Close()

	img.CopyTo(&resImg)

	render.ZoneOutline(&resImg, a.engine.Config().CollisionZone, render.Yellow, 1)
	render.Trails(&resImg, tracks, a.trail)
	render.TrackBoxes(&resImg, tracks, a.font, 2)
	a.drawGuidance(&resImg, guidance)

	buf, err := gocv.IMEncode(".jpg", resImg)
	if err != nil {
		a.log.WithError(err).Error("failed to encode frame")
		return
	}
	defer buf.Close()

	frame := make([]byte, len(buf.GetBytes()))
	copy(frame, buf.GetBytes())

	a.opts.Server.Publish(frame, tracks, guidance)
}

// drawGuidance renders the guidance phrase along the bottom of the
// frame, using the TTF caption face when one was configured
func (a *Assistant) drawGuidance(img *gocv.Mat, guidance string) {

	if guidance == "" {
		return
	}

	if a.caption == nil {
		render.StatusBar(img, guidance, a.font, render.Black)
		return
	}

	err := a.caption.Draw(img, guidance,
		a.font.LeftPad, img.Rows()-a.font.BottomPad, render.White)

	if err != nil {
		a.log.WithError(err).Error("failed to draw caption")
	}
}
