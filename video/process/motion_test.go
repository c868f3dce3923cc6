package process

import (
	"image"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"stereocam/video/sink"
)

type triggerCounter struct {
	c chan bool
}

func (t *triggerCounter) Trigger() {
	select {
	case t.c <- true:
	default:
	}
}

func (t *triggerCounter) drain() {
	for {
		select {
		case <-t.c:
		default:
			return
		}
	}
}

func newTestMotion() (*Motion, *triggerCounter) {
	m := NewMotion(sink.NewMJPEGServer(), 0.005)
	tr := &triggerCounter{c: make(chan bool, 100)}
	m.Trigger = tr
	return m, tr
}

func feed(m *Motion, frame gocv.Mat, n int) {
	for i := 0; i < n; i++ {
		m.Process(frame)
		time.Sleep(20 * time.Millisecond)
	}
}

func TestMotionQuietOnStaticScene(t *testing.T) {
	m, tr := newTestMotion()

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 240, 320, gocv.MatTypeCV8UC3)
	defer frame.Close()

	// Let the background model settle, then discard any warmup triggers.
	feed(m, frame, 10)
	tr.drain()

	feed(m, frame, 10)
	select {
	case <-tr.c:
		t.Errorf("trigger fired on a static scene")
	default:
	}
}

func TestMotionTriggersOnSceneChange(t *testing.T) {
	m, tr := newTestMotion()

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 240, 320, gocv.MatTypeCV8UC3)
	defer frame.Close()

	feed(m, frame, 10)
	tr.drain()

	// A block of pixels flips bright, like something entering the scene.
	region := frame.Region(image.Rect(80, 60, 240, 180))
	region.SetTo(gocv.NewScalar(255, 255, 255, 0))
	region.Close()

	fired := false
	for i := 0; i < 10 && !fired; i++ {
		m.Process(frame)
		select {
		case <-tr.c:
			fired = true
		case <-time.After(50 * time.Millisecond):
		}
	}
	if !fired {
		t.Fatalf("no trigger after the scene changed")
	}
}
