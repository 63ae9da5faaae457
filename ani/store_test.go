package ani

import (
	"testing"
	"time"
)

// mkTrack builds a track directly for store level tests
func mkTrack(id int64, label string, missed int) *Track {

	det, _ := NewDetection(label, 0.9, NewRect(0.4, 0.4, 0.6, 0.6), time.Unix(100, 0))

	tr := newTrack(id, det)
	tr.missedFrames = missed
	return tr
}

func TestStoreNextIDMonotonic(t *testing.T) {

	s := NewStore()

	var prev int64

	for i := 0; i < 100; i++ {
		id := s.NextID()

		if id <= prev {
			t.Fatalf("NextID() = %d, want > %d", id, prev)
		}
		prev = id

		// pruning must not free ids for reuse
		if i == 50 {
			s.Upsert(mkTrack(id, "person", 99))
			s.Prune(1)
		}
	}
}

func TestStorePruneBoundary(t *testing.T) {

	tests := []struct {
		name    string
		missed  int
		ceiling int
		kept    bool
	}{
		{"below ceiling", 4, 5, true},
		{"at ceiling", 5, 5, true},
		{"over ceiling", 6, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			id := s.NextID()
			s.Upsert(mkTrack(id, "person", tt.missed))

			s.Prune(tt.ceiling)

			if got := s.Get(id) != nil; got != tt.kept {
				t.Errorf("track with %d missed frames kept = %v, want %v",
					tt.missed, got, tt.kept)
			}
		})
	}
}

func TestStoreAllOrderedByID(t *testing.T) {

	s := NewStore()

	// insert out of order relative to id issue order
	ids := make([]int64, 5)
	for i := range ids {
		ids[i] = s.NextID()
	}

	for i := len(ids) - 1; i >= 0; i-- {
		s.Upsert(mkTrack(ids[i], "person", 0))
	}

	all := s.All()

	if len(all) != len(ids) {
		t.Fatalf("expected %d tracks, got %d", len(ids), len(all))
	}

	for i, tr := range all {
		if tr.ID() != ids[i] {
			t.Errorf("position %d: got id %d, want %d", i, tr.ID(), ids[i])
		}
	}
}

func TestStoreUpsertUnissuedIDPanics(t *testing.T) {

	s := NewStore()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for track id never issued by the store")
		}
	}()

	s.Upsert(mkTrack(42, "person", 0))
}

func TestStoreUpsertReplacesByID(t *testing.T) {

	s := NewStore()
	id := s.NextID()

	s.Upsert(mkTrack(id, "person", 0))
	s.Upsert(mkTrack(id, "person", 3))

	if s.Len() != 1 {
		t.Fatalf("expected 1 track after replace, got %d", s.Len())
	}

	if got := s.Get(id).MissedFrames(); got != 3 {
		t.Errorf("expected replacement track, got missed frames %d", got)
	}
}
