package sink

import (
	"image"
	"path/filepath"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"stereocam/video/source"
)

// An unusable ffmpeg binary must only lose the clip; Put and Close still
// work and the process keeps running.
func TestFFmpegSinkDegradesWithoutBinary(t *testing.T) {
	t.Setenv("FFMPEG", filepath.Join(t.TempDir(), "no-such-ffmpeg"))

	f := NewFFmpegSink(filepath.Join(t.TempDir(), "clip.mp4"), FFmpegOptions{
		Size: image.Point{X: 4, Y: 4},
		FPS:  10,
	})

	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 4, 4, gocv.MatTypeCV8UC3)
	defer m.Close()

	done := make(chan bool)
	go func() {
		f.Put(source.Image{Mat: m, FrameID: 1, Time: time.Now()})
		f.Put(source.Image{Mat: m, FrameID: 2, Time: time.Now()})
		f.Close()
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("sink deadlocked after ffmpeg startup failure")
	}
}
