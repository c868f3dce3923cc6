package sink

import (
	"time"

	"gocv.io/x/gocv"

	"stereocam/video/source"
)

// FPSNormalize wraps another Sink so that an incoming stream of
// variable-timed video is converted to fixed-rate video. A camera feed has a
// variable frame rate but the encoded clip requires a fixed one; frames are
// dropped or duplicated to achieve the target rate.
type FPSNormalize struct {
	// sink is the wrapped Sink which will receive a FPS-normalized stream.
	sink Sink

	frameDur time.Duration
	last     gocv.Mat
	curFrame time.Time
}

// NewFPSNormalize creates an FPSNormalize, wrapping the provided sink and
// exporting at the given frame rate.
func NewFPSNormalize(sink Sink, fps int) *FPSNormalize {
	return &FPSNormalize{
		sink:     sink,
		frameDur: time.Second / time.Duration(fps),
		last:     gocv.NewMat(),
	}
}

func (f *FPSNormalize) Close() {
	f.sink.Close()
	f.last.Close()
}

func (f *FPSNormalize) Put(input source.Image) {
	if f.curFrame.IsZero() {
		f.sink.Put(input)
		input.Mat.CopyTo(&f.last)
		f.curFrame = input.Time
		return
	}

	nextFrame := f.curFrame.Add(f.frameDur)
	if input.Time.Before(nextFrame) {
		// Don't need a new frame yet. Ignore.
		return
	}

	for {
		f.curFrame = nextFrame
		nextFrame = f.curFrame.Add(f.frameDur)
		if input.Time.Before(nextFrame) {
			i := source.Image{
				Mat:     input.Mat,
				FrameID: input.FrameID,
				Time:    f.curFrame,
			}
			f.sink.Put(i)
			input.Mat.CopyTo(&f.last)
			return
		}
		// Missed a frame. Rewrite the last frame.
		i := source.Image{
			Mat:  f.last,
			Time: f.curFrame,
		}
		f.sink.Put(i)
	}
}
