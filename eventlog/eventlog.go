// Package eventlog persists risk transition events to SQLite so guidance
// sessions can be reviewed after the fact
package eventlog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/visionvoice/go-visionvoice/ani"
)

// Event is a single recorded risk transition for a track
type Event struct {
	ID        int64
	SessionID string
	TrackID   int64
	Label     string
	FromRisk  ani.RiskLevel
	ToRisk    ani.RiskLevel
	Motion    ani.MotionClass
	Bucket    ani.DistanceBucket
	Guidance  string
	CreatedAt time.Time
}

// Store records events for one guidance session.  All writes carry the
// session id generated when the store is opened
type Store struct {
	db        *sql.DB
	sessionID string
	log       *logrus.Entry
}

// Open creates or opens the event database at path and starts a new
// session
func Open(path string) (*Store, error) {

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS events (
			event_id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			track_id BIGINT NOT NULL,
			label TEXT NOT NULL,
			from_risk INTEGER NOT NULL,
			to_risk INTEGER NOT NULL,
			motion INTEGER NOT NULL,
			bucket INTEGER NOT NULL,
			guidance TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(session_id) REFERENCES sessions(session_id)
		);
		CREATE INDEX IF NOT EXISTS idx_events_session
			ON events(session_id, created_at);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create event schema: %w", err)
	}

	sessionID := uuid.NewString()

	if _, err := db.Exec(
		"INSERT INTO sessions (session_id) VALUES (?)", sessionID); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	return &Store{
		db:        db,
		sessionID: sessionID,
		log:       logrus.WithField("component", "eventlog"),
	}, nil
}

// SessionID returns the id of the current session
func (s *Store) SessionID() string {
	return s.sessionID
}

// Transition describes one risk level change for a track
type Transition struct {
	TrackID  int64
	Label    string
	FromRisk ani.RiskLevel
	ToRisk   ani.RiskLevel
	Motion   ani.MotionClass
	Bucket   ani.DistanceBucket
	// Guidance is the phrase spoken for the cycle, empty when silent
	Guidance string
}

// RecordTransition stores a risk transition for a track together with
// the guidance phrase spoken for it, if any
func (s *Store) RecordTransition(tr Transition) error {

	_, err := s.db.Exec(`
		INSERT INTO events (session_id, track_id, label, from_risk, to_risk,
			motion, bucket, guidance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.sessionID, tr.TrackID, tr.Label, int(tr.FromRisk), int(tr.ToRisk),
		int(tr.Motion), int(tr.Bucket), tr.Guidance)

	if err != nil {
		return fmt.Errorf("failed to record risk transition: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"track": tr.TrackID,
		"label": tr.Label,
		"from":  tr.FromRisk.String(),
		"to":    tr.ToRisk.String(),
	}).Debug("recorded risk transition")

	return nil
}

// Recent returns up to limit events of the current session, newest first
func (s *Store) Recent(limit int) ([]Event, error) {

	rows, err := s.db.Query(`
		SELECT event_id, session_id, track_id, label, from_risk, to_risk,
			motion, bucket, guidance, created_at
		FROM events
		WHERE session_id = ?
		ORDER BY event_id DESC
		LIMIT ?`, s.sessionID, limit)

	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []Event

	for rows.Next() {
		var e Event
		var from, to, motion, bucket int

		err := rows.Scan(&e.ID, &e.SessionID, &e.TrackID, &e.Label,
			&from, &to, &motion, &bucket, &e.Guidance, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		e.FromRisk = ani.RiskLevel(from)
		e.ToRisk = ani.RiskLevel(to)
		e.Motion = ani.MotionClass(motion)
		e.Bucket = ani.DistanceBucket(bucket)
		events = append(events, e)
	}

	return events, rows.Err()
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}
