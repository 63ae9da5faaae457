package ani

import (
	"sort"
)

// candidate is an eligible track/detection pairing considered during
// association
type candidate struct {
	trackIdx int
	detIdx   int
	dist     float64
}

// matchResult is the outcome of one association pass
type matchResult struct {
	// matched maps track index to detection index
	matched map[int]int
	// unmatchedTracks are indexes into the track slice with no detection
	unmatchedTracks []int
	// unmatchedDets are indexes into the detection slice with no track
	unmatchedDets []int
}

// associate produces a one to one matching between live tracks and the
// cycle's detections.  Pairs are gated on label equality and center
// distance, then resolved greedily nearest first.  Greedy resolution is
// not a globally optimal assignment but it is deterministic: ties resolve
// in detection arrival order, then track id order
func associate(tracks []*Track, dets []Detection, maxDistance float64) matchResult {

	res := matchResult{
		matched: make(map[int]int),
	}

	var cands []candidate

	for ti, t := range tracks {
		for di, d := range dets {

			// a detection never updates a track of a different label
			if d.Label != t.label {
				continue
			}

			dist := d.Center.DistanceTo(t.lastObservation().Center)

			if dist < maxDistance {
				cands = append(cands, candidate{trackIdx: ti, detIdx: di, dist: dist})
			}
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		// tie-break on arrival order for reproducible matching
		if cands[i].detIdx != cands[j].detIdx {
			return cands[i].detIdx < cands[j].detIdx
		}
		return cands[i].trackIdx < cands[j].trackIdx
	})

	usedTracks := make(map[int]bool)
	usedDets := make(map[int]bool)

	for _, c := range cands {
		if usedTracks[c.trackIdx] || usedDets[c.detIdx] {
			continue
		}
		usedTracks[c.trackIdx] = true
		usedDets[c.detIdx] = true
		res.matched[c.trackIdx] = c.detIdx
	}

	for ti := range tracks {
		if !usedTracks[ti] {
			res.unmatchedTracks = append(res.unmatchedTracks, ti)
		}
	}

	for di := range dets {
		if !usedDets[di] {
			res.unmatchedDets = append(res.unmatchedDets, di)
		}
	}

	return res
}
