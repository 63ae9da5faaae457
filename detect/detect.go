/*
Package detect provides the object detector collaborator: an interface the
pipeline consumes plus an OpenCV DNN reference implementation.  Detectors
emit normalized sightings; everything temporal is the tracking engine's
job.
*/
package detect

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/visionvoice/go-visionvoice/ani"
	"github.com/visionvoice/go-visionvoice/depth"
)

// Result is one raw sighting reported by a detector for a single frame
type Result struct {
	// Label is the object category name
	Label string
	// Confidence is the detector score in [0,1], already above the
	// detector's configured floor
	Confidence float64
	// Box is the normalized bounding box
	Box ani.Rect
}

// Detector is implemented by object detection backends
type Detector interface {
	// Detect runs inference over one frame and returns its sightings
	Detect(frame gocv.Mat) ([]Result, error)
	// Close releases backend resources
	Close() error
}

// ToDetections converts raw detector results into canonical detection
// records for the tracking engine, tagging each with the median depth of
// its box region when a depth map is available.  Malformed results are
// dropped rather than propagated
func ToDetections(results []Result, dm *depth.Map, ts time.Time) []ani.Detection {

	out := make([]ani.Detection, 0, len(results))

	for _, r := range results {

		det, err := ani.NewDetection(r.Label, r.Confidence, r.Box, ts)
		if err != nil {
			continue
		}

		if dm != nil {
			det = dm.Tag(det)
		}

		out = append(out, det)
	}

	return out
}
