package depth

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Estimator runs a monocular relative depth model (MiDaS small or
// compatible) through the OpenCV DNN backend
type Estimator struct {
	net       gocv.Net
	inputSize int
	// model outputs larger values for nearer pixels, so the normalized
	// map must be inverted to read 0=near
	invert bool
	mu     sync.Mutex
}

// NewEstimator loads a depth estimation ONNX model.  inputSize is the
// square tensor size the model was exported with (256 for MiDaS small)
func NewEstimator(modelPath string, inputSize int) (*Estimator, error) {

	net := gocv.ReadNet(modelPath, "")

	if net.Empty() {
		return nil, fmt.Errorf("failed to load depth model from %s", modelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	if inputSize <= 0 {
		inputSize = 256
	}

	return &Estimator{
		net:       net,
		inputSize: inputSize,
		invert:    true,
	}, nil
}

// Estimate produces a normalized depth map for a single frame.  The map
// is at model resolution, not frame resolution; region queries use
// normalized coordinates so no upsampling is needed
func (e *Estimator) Estimate(frame gocv.Mat) (*Map, error) {

	e.mu.Lock()
	defer e.mu.Unlock()

	if frame.Empty() {
		return nil, fmt.Errorf("cannot estimate depth of an empty frame")
	}

	blob := gocv.BlobFromImage(frame, 1.0/255.0,
		image.Pt(e.inputSize, e.inputSize),
		gocv.NewScalar(0.485, 0.456, 0.406, 0), true, false)
	defer blob.Close()

	e.net.SetInput(blob, "")

	output := e.net.Forward("")
	defer output.Close()

	raw, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read depth output tensor: %w", err)
	}

	// copy out of the Mat-owned buffer before it is closed
	values := make([]float32, len(raw))
	copy(values, raw)

	if len(values) != e.inputSize*e.inputSize {
		return nil, fmt.Errorf("unexpected depth output size %d for %dx%d model",
			len(values), e.inputSize, e.inputSize)
	}

	return Normalize(values, e.inputSize, e.inputSize, e.invert)
}

// Close releases the model
func (e *Estimator) Close() error {
	return e.net.Close()
}
