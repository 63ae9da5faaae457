// Package render draws tracking overlays on camera frames: bounding
// boxes colored by risk, motion trails, predicted positions and the
// walking zone outline
package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/visionvoice/go-visionvoice/ani"
)

// boxLabel holds the precalculated rendering details of a box label
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// TrackBoxes renders the bounding boxes of tracked objects on the frame.
// Track coordinates are normalized so boxes are scaled to the frame size,
// box color follows the track's reported risk level
func TrackBoxes(img *gocv.Mat, tracks []*ani.Track, font Font,
	lineThickness int) {

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0)

	for _, trk := range tracks {

		box := toPixels(trk.Box(), img)
		useClr := RiskColor(trk.Risk())

		// draw rectangle around tracked object
		gocv.Rectangle(img, box, useClr, lineThickness)

		// create text for label
		text := fmt.Sprintf("%s %d %s", trk.Label(), trk.ID(), trk.Motion())
		textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

		// Calculate the alignment of text label
		var centerX int

		switch font.Alignment {
		case Center:
			centerX = (box.Min.X + box.Max.X) / 2

		case Right:
			centerX = box.Max.X - (textSize.X / 2) - font.RightPad + (lineThickness / 2)

		case Left:
			fallthrough
		default:
			centerX = box.Min.X + (textSize.X / 2) + font.LeftPad - (lineThickness / 2)
		}

		// Adjust the label position so the text is centered horizontally
		labelPosition := image.Pt(centerX-textSize.X/2, box.Min.Y-font.BottomPad)

		// create box for placing text on
		bRect := image.Rect(centerX-textSize.X/2-font.LeftPad,
			box.Min.Y-textSize.Y-font.TopPad-font.BottomPad,
			centerX+textSize.X/2+font.RightPad, box.Min.Y)

		// record label rendering details
		nextLabel := boxLabel{
			rect:    bRect,
			clr:     useClr,
			text:    text,
			textPos: labelPosition,
		}
		boxLabels = append(boxLabels, nextLabel)
	}

	// draw all precalculated box labels so they are the top most layer on
	// the image and don't get overlapped by trail lines
	for _, box := range boxLabels {
		// draw box text gets written on
		gocv.Rectangle(img, box.rect, box.clr, -1)

		// Draw the label over box
		gocv.PutTextWithParams(img, box.text, box.textPos,
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}

// ZoneOutline draws the walking zone polygon on the frame
func ZoneOutline(img *gocv.Mat, zone ani.Zone, clr color.RGBA,
	lineThickness int) {

	pts := zone.Points()

	if len(pts) < 3 {
		return
	}

	for i := range pts {
		a := toPixelPoint(pts[i], img)
		b := toPixelPoint(pts[(i+1)%len(pts)], img)
		gocv.Line(img, a, b, clr, lineThickness)
	}
}

// toPixels scales a normalized rect to frame pixel coordinates
func toPixels(r ani.Rect, img *gocv.Mat) image.Rectangle {
	w := float64(img.Cols())
	h := float64(img.Rows())
	return image.Rect(int(r.X1*w), int(r.Y1*h), int(r.X2*w), int(r.Y2*h))
}

// toPixelPoint scales a normalized point to frame pixel coordinates
func toPixelPoint(p ani.Point, img *gocv.Mat) image.Point {
	return image.Pt(int(p.X*float64(img.Cols())),
		int(p.Y*float64(img.Rows())))
}
