package sink

import (
	"gocv.io/x/gocv"

	"stereocam/video/source"
)

// Window displays a stream in an on-screen window. One window exists per
// stream type, keyed by the stream name.
type Window struct {
	window  *gocv.Window
	sizeSet bool
}

func NewWindow(name string) *Window {
	return &Window{
		window: gocv.NewWindow(name),
	}
}

// Show displays a raw Mat without taking ownership.
func (w *Window) Show(m gocv.Mat) {
	if !w.sizeSet {
		w.window.ResizeWindow(m.Cols(), m.Rows())
		w.sizeSet = true
	}
	w.window.IMShow(m)
}

// PollKey pumps the window event loop and returns the pressed key, or -1.
// Some window must be polled every loop iteration or nothing renders.
func (w *Window) PollKey() int {
	return w.window.WaitKey(1)
}

// Put implements Sink.
func (w *Window) Put(input source.Image) {
	w.Show(input.Mat)
	w.window.WaitKey(1)
}

func (w *Window) Close() {
	w.window.Close()
}
