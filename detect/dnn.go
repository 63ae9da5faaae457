package detect

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/visionvoice/go-visionvoice/ani"
)

// layout constants for YOLO single-output ONNX exports: each candidate row
// is [cx, cy, w, h, objectness, class scores...]
const yoloBoxFields = 5

// DNNDetector runs a YOLO ONNX model through the OpenCV DNN backend on the
// CPU.  It is safe for use from one goroutine at a time; the pipeline's
// cycle loop is the only expected caller
type DNNDetector struct {
	net           gocv.Net
	labels        []string
	confThreshold float32
	nmsThreshold  float32
	inputSize     int
	mu            sync.Mutex
}

// NewDNNDetector loads a YOLO ONNX model and its class name list.
// confThreshold is the confidence floor applied before results leave the
// detector, nmsThreshold the IoU limit for non-maximum suppression
func NewDNNDetector(modelPath string, labels []string, confThreshold, nmsThreshold float64, inputSize int) (*DNNDetector, error) {

	if len(labels) == 0 {
		return nil, fmt.Errorf("detector needs a class name list")
	}

	net := gocv.ReadNet(modelPath, "")

	if net.Empty() {
		return nil, fmt.Errorf("failed to load detection model from %s", modelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	if inputSize <= 0 {
		inputSize = 640
	}

	return &DNNDetector{
		net:           net,
		labels:        labels,
		confThreshold: float32(confThreshold),
		nmsThreshold:  float32(nmsThreshold),
		inputSize:     inputSize,
	}, nil
}

// Detect runs one frame through the model and returns normalized sightings
// above the confidence floor, de-duplicated by non-maximum suppression
func (d *DNNDetector) Detect(frame gocv.Mat) ([]Result, error) {

	d.mu.Lock()
	defer d.mu.Unlock()

	if frame.Empty() {
		return nil, fmt.Errorf("cannot detect on an empty frame")
	}

	blob := gocv.BlobFromImage(frame, 1.0/255.0,
		image.Pt(d.inputSize, d.inputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	output := d.net.Forward("")
	defer output.Close()

	return d.parseOutput(output)
}

// parseOutput decodes the raw model output into results in normalized
// coordinates.  Candidate boxes are collected in model input pixel space
// for suppression, then normalized on the way out
func (d *DNNDetector) parseOutput(output gocv.Mat) ([]Result, error) {

	dims := output.Size()

	if len(dims) < 2 {
		return nil, fmt.Errorf("unexpected detection output shape %v", dims)
	}

	rows := dims[len(dims)-2]
	cols := dims[len(dims)-1]

	if cols < yoloBoxFields+1 {
		return nil, fmt.Errorf("detection output has %d fields, want at least %d",
			cols, yoloBoxFields+1)
	}

	flat := output.Reshape(1, rows)
	defer flat.Close()

	var (
		rects  []image.Rectangle
		scores []float32
		ids    []int
	)

	for r := 0; r < rows; r++ {

		obj := flat.GetFloatAt(r, 4)

		// find best class for this candidate
		bestID := 0
		bestScore := float32(0)

		for c := yoloBoxFields; c < cols; c++ {
			if s := flat.GetFloatAt(r, c); s > bestScore {
				bestScore = s
				bestID = c - yoloBoxFields
			}
		}

		conf := obj * bestScore

		if conf < d.confThreshold || bestID >= len(d.labels) {
			continue
		}

		cx := flat.GetFloatAt(r, 0)
		cy := flat.GetFloatAt(r, 1)
		w := flat.GetFloatAt(r, 2)
		h := flat.GetFloatAt(r, 3)

		rects = append(rects, image.Rect(
			int(cx-w/2), int(cy-h/2), int(cx+w/2), int(cy+h/2)))
		scores = append(scores, conf)
		ids = append(ids, bestID)
	}

	if len(rects) == 0 {
		return nil, nil
	}

	keep := gocv.NMSBoxes(rects, scores, d.confThreshold, d.nmsThreshold)

	results := make([]Result, 0, len(keep))
	size := float64(d.inputSize)

	for _, i := range keep {

		box := ani.NewRect(
			clampUnit(float64(rects[i].Min.X)/size),
			clampUnit(float64(rects[i].Min.Y)/size),
			clampUnit(float64(rects[i].Max.X)/size),
			clampUnit(float64(rects[i].Max.Y)/size),
		)

		// degenerate boxes clamp to zero area at the frame edge
		if box.Validate() != nil {
			continue
		}

		results = append(results, Result{
			Label:      d.labels[ids[i]],
			Confidence: float64(scores[i]),
			Box:        box,
		})
	}

	return results, nil
}

// Close releases the model
func (d *DNNDetector) Close() error {
	return d.net.Close()
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
