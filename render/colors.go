package render

import (
	"image/color"

	"github.com/visionvoice/go-visionvoice/ani"
)

var (
	// riskColors maps a risk level to the color its overlay is painted
	// with.  Levels escalate from grey through to red
	riskColors = map[ani.RiskLevel]color.RGBA{
		ani.RiskNone:     {R: 160, G: 160, B: 160, A: 255}, // #A0A0A0
		ani.RiskLow:      {R: 72, G: 249, B: 10, A: 255},   // #48F90A
		ani.RiskMedium:   {R: 255, G: 178, B: 29, A: 255},  // #FFB21D
		ani.RiskHigh:     {R: 255, G: 112, B: 31, A: 255},  // #FF701F
		ani.RiskImminent: {R: 255, G: 56, B: 56, A: 255},   // #FF3838
	}

	// trailColors is a list of colors used to paint track trails so
	// neighbouring tracks remain distinguishable
	trailColors = []color.RGBA{
		{R: 0, G: 212, B: 187, A: 255},   // #00D4BB
		{R: 0, G: 194, B: 255, A: 255},   // #00C2FF
		{R: 100, G: 115, B: 255, A: 255}, // #6473FF
		{R: 132, G: 56, B: 255, A: 255},  // #8438FF
		{R: 255, G: 149, B: 200, A: 255}, // #FF95C8
		{R: 61, G: 219, B: 134, A: 255},  // #3DDB86
		{R: 203, G: 56, B: 255, A: 255},  // #CB38FF
		{R: 146, G: 204, B: 23, A: 255},  // #92CC17
	}

	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 50, A: 255}
	Pink   = color.RGBA{R: 255, G: 0, B: 255, A: 255}
)

// RiskColor returns the overlay color for a risk level
func RiskColor(r ani.RiskLevel) color.RGBA {
	if clr, ok := riskColors[r]; ok {
		return clr
	}
	return riskColors[ani.RiskNone]
}

// trailColor returns a stable per-track trail color
func trailColor(trackID int64) color.RGBA {
	return trailColors[int(trackID)%len(trailColors)]
}
