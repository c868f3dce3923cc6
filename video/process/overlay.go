package process

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"stereocam/device"
	"stereocam/video/source"
)

// Gravity anchors overlay text to a corner of the frame.
type Gravity int

const (
	TopLeft Gravity = iota
	TopRight
	BottomLeft
	BottomRight
)

var (
	overlayFG = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	overlayBG = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

// Overlay draws diagnostic text onto frames before display: frame size,
// stream metadata, and the measured FPS.
type Overlay struct {
	font      gocv.HersheyFont
	scale     float64
	thickness int
	pad       int
}

func NewOverlay() *Overlay {
	return &Overlay{
		font:      gocv.FontHersheySimplex,
		scale:     0.5,
		thickness: 1,
		pad:       2,
	}
}

// DrawSize renders the frame dimensions, e.g. "1280x720".
func (o *Overlay) DrawSize(m *gocv.Mat, g Gravity) {
	o.DrawText(m, fmt.Sprintf("%dx%d", m.Cols(), m.Rows()), g, 0)
}

// DrawStreamData renders the frame's capture metadata.
func (o *Overlay) DrawStreamData(m *gocv.Mat, d device.StreamData, g Gravity) {
	if d.Img == nil {
		return
	}
	o.DrawText(m, fmt.Sprintf("fid: %d", d.Img.FrameID), g, 0)
	if d.Info != nil {
		o.DrawText(m, fmt.Sprintf("stamp: %d", d.Info.Timestamp), g, 1)
		o.DrawText(m, fmt.Sprintf("expos: %d", d.Info.ExposureTime), g, 2)
	}
}

// DrawText renders one line of boxed text at the given corner; row shifts
// the line down (or up, for bottom gravities) by whole text heights.
func (o *Overlay) DrawText(m *gocv.Mat, text string, g Gravity, row int) {
	sz := gocv.GetTextSize(text, o.font, o.scale, o.thickness)
	lineH := sz.Y + o.pad*2

	var org image.Point
	switch g {
	case TopLeft:
		org = image.Point{X: 0, Y: row * lineH}
	case TopRight:
		org = image.Point{X: m.Cols() - sz.X - o.pad*2, Y: row * lineH}
	case BottomLeft:
		org = image.Point{X: 0, Y: m.Rows() - (row+1)*lineH}
	case BottomRight:
		org = image.Point{X: m.Cols() - sz.X - o.pad*2, Y: m.Rows() - (row+1)*lineH}
	}

	box := image.Rectangle{
		Min: org,
		Max: image.Point{X: org.X + sz.X + o.pad*2, Y: org.Y + lineH},
	}
	gocv.Rectangle(m, box, overlayBG, -1)
	gocv.PutText(m, text, image.Point{X: org.X + o.pad, Y: org.Y + sz.Y + o.pad}, o.font, o.scale, overlayFG, o.thickness)
}

// DrawTimestamp renders a name and the frame's wall-clock time, used on
// frames headed for recorded clips.
func (o *Overlay) DrawTimestamp(name string, img source.Image) source.Image {
	text := name + " - " + img.Time.Format("2006-01-02 15:04:05 MST")
	o.DrawText(&img.Mat, text, TopLeft, 0)
	return img
}
