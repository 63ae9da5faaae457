// Package server exposes the live guidance pipeline over HTTP: an MJPEG
// stream of annotated frames, the current track snapshot as JSON and the
// recent risk transition events
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/visionvoice/go-visionvoice/ani"
	"github.com/visionvoice/go-visionvoice/eventlog"
)

// streamInterval paces frame delivery to MJPEG clients
const streamInterval = 33 * time.Millisecond

// TrackView is the JSON shape of a track snapshot entry
type TrackView struct {
	ID        int64   `json:"id"`
	Label     string  `json:"label"`
	Distance  string  `json:"distance"`
	Motion    string  `json:"motion"`
	Risk      string  `json:"risk"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	PredX     float64 `json:"pred_x"`
	PredY     float64 `json:"pred_y"`
	VelocityX float64 `json:"vx"`
	VelocityY float64 `json:"vy"`
}

// EventView is the JSON shape of a recorded risk transition
type EventView struct {
	TrackID   int64     `json:"track_id"`
	Label     string    `json:"label"`
	FromRisk  string    `json:"from_risk"`
	ToRisk    string    `json:"to_risk"`
	Motion    string    `json:"motion"`
	Distance  string    `json:"distance"`
	Guidance  string    `json:"guidance,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Server publishes pipeline state to HTTP clients.  The pipeline pushes
// frames and snapshots in, handlers read the latest state out
type Server struct {
	mu       sync.RWMutex
	frame    []byte
	tracks   []TrackView
	guidance string

	events *eventlog.Store
	log    *logrus.Entry
}

// New returns a Server.  The event store may be nil when persistence is
// disabled, in which case /events reports an empty list
func New(events *eventlog.Store) *Server {
	return &Server{
		events: events,
		log:    logrus.WithField("component", "server"),
	}
}

// Publish stores the latest annotated JPEG frame, track snapshot and
// spoken guidance for delivery to clients
func (s *Server) Publish(frame []byte, tracks []*ani.Track, guidance string) {

	views := make([]TrackView, 0, len(tracks))

	for _, t := range tracks {
		views = append(views, TrackView{
			ID:        t.ID(),
			Label:     t.Label(),
			Distance:  t.Bucket().String(),
			Motion:    t.Motion().String(),
			Risk:      t.Risk().String(),
			X:         t.Position().X,
			Y:         t.Position().Y,
			PredX:     t.Predicted().X,
			PredY:     t.Predicted().Y,
			VelocityX: t.Velocity().X,
			VelocityY: t.Velocity().Y,
		})
	}

	s.mu.Lock()
	s.frame = frame
	s.tracks = views
	s.guidance = guidance
	s.mu.Unlock()
}

// ServeMux returns the route table for the server
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/stream", s.Stream)
	mux.HandleFunc("/tracks", s.listTracks)
	mux.HandleFunc("/events", s.listEvents)
	mux.HandleFunc("/", s.homeHandler)
	return mux
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("VisionVoice navigation assistant"))
}

// Stream is the HTTP handler function used to stream annotated video
// frames to the browser
func (s *Server) Stream(w http.ResponseWriter, r *http.Request) {

	s.log.Info("new stream client connected")

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			s.log.Info("stream client disconnected")
			return

		case <-ticker.C:

			s.mu.RLock()
			frame := s.frame
			s.mu.RUnlock()

			if len(frame) == 0 {
				continue
			}

			w.Write([]byte("--frame\r\n"))
			w.Write([]byte("Content-Type: image/jpeg\r\n\r\n"))
			w.Write(frame)
			w.Write([]byte("\r\n"))

			// Flush the buffer
			flusher, ok := w.(http.Flusher)
			if ok {
				flusher.Flush()
			}
		}
	}
}

func (s *Server) listTracks(w http.ResponseWriter, r *http.Request) {

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	resp := struct {
		Guidance string      `json:"guidance,omitempty"`
		Tracks   []TrackView `json:"tracks"`
	}{
		Guidance: s.guidance,
		Tracks:   s.tracks,
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.WithError(err).Error("failed to encode track snapshot")
	}
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	views := make([]EventView, 0)

	if s.events != nil {

		events, err := s.events.Recent(100)
		if err != nil {
			msg := fmt.Sprintf("Failed to retrieve events: %v", err)
			http.Error(w, msg, http.StatusInternalServerError)
			return
		}

		for _, e := range events {
			views = append(views, EventView{
				TrackID:   e.TrackID,
				Label:     e.Label,
				FromRisk:  e.FromRisk.String(),
				ToRisk:    e.ToRisk.String(),
				Motion:    e.Motion.String(),
				Distance:  e.Bucket.String(),
				Guidance:  e.Guidance,
				CreatedAt: e.CreatedAt,
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(views); err != nil {
		s.log.WithError(err).Error("failed to encode events")
	}
}
