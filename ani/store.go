package ani

import (
	"fmt"
	"sort"
)

// Store holds the live track set, keyed by identifier.  It owns track
// creation ids and pruning; all mutation happens inside an engine cycle
type Store struct {
	tracks map[int64]*Track
	lastID int64
}

// NewStore returns an empty track store
func NewStore() *Store {
	return &Store{
		tracks: make(map[int64]*Track),
	}
}

// NextID issues a new unique track identifier.  Ids increase monotonically
// and are never reused, even after their track is pruned, so a UI element
// keyed by id can never be re-bound to a different object
func (s *Store) NextID() int64 {
	s.lastID++
	return s.lastID
}

// Upsert inserts a new track or replaces the existing track with the same
// id.  A track whose id was never issued by NextID indicates corrupted
// bookkeeping and panics rather than silently poisoning the store
func (s *Store) Upsert(t *Track) {

	if t.id <= 0 || t.id > s.lastID {
		panic(fmt.Sprintf("track id %d was not issued by this store", t.id))
	}

	s.tracks[t.id] = t
}

// Get returns the track with the given id, or nil when absent
func (s *Store) Get(id int64) *Track {
	return s.tracks[id]
}

// Len returns the number of live tracks
func (s *Store) Len() int {
	return len(s.tracks)
}

// All returns the live track set ordered by ascending id.  Map iteration
// order is never exposed so repeated calls within a cycle are reproducible
func (s *Store) All() []*Track {

	out := make([]*Track, 0, len(s.tracks))

	for _, t := range s.tracks {
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].id < out[j].id
	})

	return out
}

// Prune removes tracks whose missed frame count exceeds the ceiling.  A
// pruned track never comes back, a reappearing object gets a fresh id
func (s *Store) Prune(maxMissedFrames int) {

	for id, t := range s.tracks {
		if t.missedFrames > maxMissedFrames {
			delete(s.tracks, id)
		}
	}
}
