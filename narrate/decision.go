package narrate

import (
	"sync"

	"github.com/visionvoice/go-visionvoice/ani"
)

// Decision gates what actually gets spoken: guidance below the minimum
// risk stays silent and a phrase identical to the previous one is not
// repeated, so the user is not flooded with the same warning every cycle
type Decision struct {
	mu      sync.Mutex
	minRisk ani.RiskLevel
	last    string
}

// NewDecision creates a speak gate.  minRisk is the lowest risk level
// worth interrupting the user for
func NewDecision(minRisk ani.RiskLevel) *Decision {
	return &Decision{minRisk: minRisk}
}

// ShouldSpeak reports whether the guidance for a cycle should be voiced,
// and records it as the last spoken phrase when it should
func (d *Decision) ShouldSpeak(guidance string, highest ani.RiskLevel) bool {

	d.mu.Lock()
	defer d.mu.Unlock()

	if guidance == "" || highest < d.minRisk {
		return false
	}

	if guidance == d.last {
		return false
	}

	d.last = guidance
	return true
}

// Reset clears the repeated-phrase memory, used when a new session starts
func (d *Decision) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.last = ""
}

// HighestRisk returns the maximum debounced risk across a snapshot
func HighestRisk(tracks []*ani.Track) ani.RiskLevel {

	highest := ani.RiskNone

	for _, t := range tracks {
		if t.Risk() > highest {
			highest = t.Risk()
		}
	}

	return highest
}
