package visionvoice

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// safetyLabels are the object classes relevant to pedestrian navigation.
// Detections outside this set are ignored by the assistant
var safetyLabels = map[string]bool{
	"person":        true,
	"bicycle":       true,
	"car":           true,
	"motorcycle":    true,
	"bus":           true,
	"truck":         true,
	"train":         true,
	"dog":           true,
	"chair":         true,
	"bench":         true,
	"fire hydrant":  true,
	"stop sign":     true,
	"traffic light": true,
	"pothole":       true,
}

// LoadLabels reads the class labels the detection model was trained with
// from the given text file.  It should contain one label per line.
func LoadLabels(file string) ([]string, error) {

	// open the file
	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	// create a scanner to read the file.
	scanner := bufio.NewScanner(f)

	var labels []string

	// read and trim each line
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		labels = append(labels, line)
	}

	// check for errors during scanning
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return labels, nil
}

// SafetyRelevant reports whether a detected label matters for navigation
// guidance
func SafetyRelevant(label string) bool {
	return safetyLabels[strings.ToLower(label)]
}
