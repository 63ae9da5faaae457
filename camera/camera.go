// Package camera provides timestamped frame sources backed by a video
// capture device or a video file
package camera

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Source reads frames from an underlying video capture.  A Source is not
// safe for concurrent use, the capture loop owns it
type Source struct {
	cap  *gocv.VideoCapture
	name string
	loop bool
	log  *logrus.Entry
}

// OpenDevice opens a capture device by index, eg: 0 for the default
// webcam
func OpenDevice(device int) (*Source, error) {

	cap, err := gocv.VideoCaptureDevice(device)

	if err != nil {
		return nil, fmt.Errorf("failed to open capture device %d: %w", device, err)
	}

	return &Source{
		cap:  cap,
		name: fmt.Sprintf("device:%d", device),
		log:  logrus.WithField("component", "camera"),
	}, nil
}

// OpenFile opens a video file as a frame source.  When loop is set the
// source rewinds to the first frame on reaching the end of the file
func OpenFile(path string, loop bool) (*Source, error) {

	cap, err := gocv.VideoCaptureFile(path)

	if err != nil {
		return nil, fmt.Errorf("failed to open video file %s: %w", path, err)
	}

	return &Source{
		cap:  cap,
		name: path,
		loop: loop,
		log:  logrus.WithField("component", "camera"),
	}, nil
}

// Name returns a human readable identifier for the source
func (s *Source) Name() string {
	return s.name
}

// Read fetches the next frame into img and returns its capture time.
// An error is returned when the source is exhausted or the device
// produced an empty frame
func (s *Source) Read(img *gocv.Mat) (time.Time, error) {

	if ok := s.cap.Read(img); !ok {

		if !s.loop {
			return time.Time{}, fmt.Errorf("frame source %s is exhausted", s.name)
		}

		// rewind to the first frame
		s.cap.Set(gocv.VideoCapturePosFrames, 0)
		s.log.Debug("looping video source")

		if ok := s.cap.Read(img); !ok {
			return time.Time{}, fmt.Errorf("failed to rewind video source %s", s.name)
		}
	}

	if img.Empty() {
		return time.Time{}, fmt.Errorf("frame source %s returned an empty frame", s.name)
	}

	return time.Now(), nil
}

// Close releases the underlying capture handle
func (s *Source) Close() error {
	return s.cap.Close()
}
