package process

import (
	"image"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"stereocam/video/sink"
)

// Trigger is anything that wants to know when motion is seen, typically the
// clip recorder.
type Trigger interface {
	Trigger()
}

// Motion runs MOG2 background subtraction over the left color stream and
// fires a Trigger when the foreground exceeds a threshold. Frames are
// processed on a dedicated goroutine; Process drops frames when the detector
// is busy so it can never backpressure the capture loop.
type Motion struct {
	// Trigger, if set, fires on detected motion.
	Trigger Trigger

	// Thresh is the minimum ratio of foreground pixels considered motion.
	Thresh float64

	c     chan gocv.Mat
	mjpeg *sink.MJPEGServer

	// a is the double-buffer channel of reusable input mats.
	a chan gocv.Mat

	d gocv.BackgroundSubtractorMOG2

	m1, m2, m3 gocv.Mat
	st3        gocv.Mat
}

func NewMotion(ms *sink.MJPEGServer, thresh float64) *Motion {
	m := &Motion{
		Thresh: thresh,
		c:      make(chan gocv.Mat),
		mjpeg:  ms,

		a: make(chan gocv.Mat, 2),

		d: gocv.NewBackgroundSubtractorMOG2(),

		m1: gocv.NewMat(),
		m2: gocv.NewMat(),
		m3: gocv.NewMat(),

		st3: gocv.GetStructuringElement(gocv.MorphCross, image.Point{X: 3, Y: 3}),
	}

	// Fill mat buffer.
	m.a <- gocv.NewMat()
	m.a <- gocv.NewMat()

	go m.loop()
	return m
}

func (m *Motion) loop() {
	debug := m.mjpeg.NewStreamPool()
	defer debug.Close()

	for input := range m.c {
		gocv.Blur(input, &m.m1, image.Point{X: 10, Y: 10})

		m.d.Apply(m.m1, &m.m2)
		debug.Put("motion", m.m2)

		gocv.Threshold(m.m2, &m.m3, 128, 255, gocv.ThresholdBinary)
		gocv.Erode(m.m3, &m.m3, m.st3)
		debug.Put("motionfilter", m.m3)

		total := m.m3.Cols() * m.m3.Rows()
		if total > 0 {
			ratio := float64(gocv.CountNonZero(m.m3)) / float64(total)
			if ratio >= m.Thresh && m.Trigger != nil {
				log.WithField("ratio", ratio).Debug("Motion detected")
				m.Trigger.Trigger()
			}
		}

		m.a <- input
	}
}

// Process submits a frame for detection, skipping it if the detector is
// still busy with the previous one.
func (m *Motion) Process(input gocv.Mat) {
	mat := <-m.a
	input.CopyTo(&mat)

	select {
	case m.c <- mat:
	default:
		// Allow skipping frames if already processing.
		m.a <- mat
	}
}
