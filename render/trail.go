package render

import (
	"image/color"

	"gocv.io/x/gocv"

	"github.com/visionvoice/go-visionvoice/ani"
)

// TrailStyle defines the parameters used for rendering the trail style
type TrailStyle struct {
	// LineSame defines if the color of the trail line should be the
	// same per-track color as the trail palette.  If set to false then
	// use the color specified at LineColor
	LineSame      bool
	LineColor     color.RGBA
	LineThickness int
	// CircleSame defines if the color of the midpoint circle should be
	// the same per-track color as the trail palette.  If set to false
	// then use the color specified at CircleColor
	CircleSame   bool
	CircleColor  color.RGBA
	CircleRadius int
	// PredictedRadius is the radius of the hollow circle marking where
	// the track is expected to be at the prediction horizon
	PredictedRadius int
}

// DefaultTrailStyle returns default trail style settings
func DefaultTrailStyle() TrailStyle {
	return TrailStyle{
		LineSame:        true,
		LineColor:       Yellow,
		LineThickness:   1,
		CircleSame:      true,
		CircleColor:     Pink,
		CircleRadius:    3,
		PredictedRadius: 5,
	}
}

// Trails draws each track's observed path and its predicted position on
// the source image.  The trail follows the track's observation history,
// the predicted position is marked with a hollow circle in the track's
// risk color
func Trails(img *gocv.Mat, tracks []*ani.Track, style TrailStyle) {

	for _, trk := range tracks {

		objClr := trailColor(trk.ID())

		// determine style colors to use
		lineClr := objClr
		circleClr := objClr

		if !style.LineSame {
			lineClr = style.LineColor
		}

		if !style.CircleSame {
			circleClr = style.CircleColor
		}

		// draw trail line showing tracking history
		history := trk.History()

		if len(history) > 1 {
			for i := 1; i < len(history); i++ {
				// draw line segment of trail
				gocv.Line(img,
					toPixelPoint(history[i-1].Center, img),
					toPixelPoint(history[i].Center, img),
					lineClr, style.LineThickness,
				)
			}

			// draw center point circle on the current position
			gocv.Circle(img, toPixelPoint(trk.Position(), img),
				style.CircleRadius, circleClr, -1)
		}

		// mark where the track is headed
		gocv.Circle(img, toPixelPoint(trk.Predicted(), img),
			style.PredictedRadius, RiskColor(trk.Risk()), 1)
	}
}
