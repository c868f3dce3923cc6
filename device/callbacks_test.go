package device

import (
	"testing"
	"time"

	"stereocam/video/source"
)

func testImage(fid uint32) *source.Image {
	img := source.NewImage()
	img.FrameID = fid
	return &img
}

func TestDispatcherPublishFetch(t *testing.T) {
	d := newDispatcher()

	img := testImage(1)
	d.publish(StreamData{Type: StreamLeftColor, Img: img})

	d.wait()

	got := d.fetch(StreamLeftColor)
	if got.Img == nil {
		t.Fatalf("fetch returned no image after publish")
	}
	if got.Img.FrameID != 1 {
		t.Errorf("FrameID = %d, want 1", got.Img.FrameID)
	}
	got.Img.Release()

	// Fetching again before the next publish reports nothing fresh.
	if again := d.fetch(StreamLeftColor); again.Img != nil {
		t.Errorf("second fetch should have a nil Img")
	}
}

func TestDispatcherFetchUnknownStream(t *testing.T) {
	d := newDispatcher()
	got := d.fetch(StreamDepth)
	if got.Img != nil {
		t.Errorf("fetch with nothing published should have a nil Img")
	}
	if got.Type != StreamDepth {
		t.Errorf("Type = %v, want %v", got.Type, StreamDepth)
	}
}

func TestDispatcherReplacesUnconsumed(t *testing.T) {
	d := newDispatcher()

	d.publish(StreamData{Type: StreamLeftColor, Img: testImage(1)})
	d.publish(StreamData{Type: StreamLeftColor, Img: testImage(2)})

	got := d.fetch(StreamLeftColor)
	if got.Img == nil {
		t.Fatalf("fetch returned no image")
	}
	if got.Img.FrameID != 2 {
		t.Errorf("FrameID = %d, want the newer frame 2", got.Img.FrameID)
	}
	got.Img.Release()
}

func TestDispatcherWaitWakesOnPublish(t *testing.T) {
	d := newDispatcher()

	done := make(chan bool)
	go func() {
		d.wait()
		done <- true
	}()

	// Give the waiter a moment to block.
	time.Sleep(10 * time.Millisecond)
	d.publish(StreamData{Type: StreamLeftColor, Img: testImage(1)})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("wait did not wake on publish")
	}
	d.fetch(StreamLeftColor).Img.Release()
}

func TestDispatcherShutdownWakesWaiters(t *testing.T) {
	d := newDispatcher()

	done := make(chan bool)
	go func() {
		d.wait()
		done <- true
	}()

	time.Sleep(10 * time.Millisecond)
	d.shutdown()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("wait did not wake on shutdown")
	}
}

func TestDispatcherStreamCallback(t *testing.T) {
	d := newDispatcher()

	var fids []uint32
	d.setStreamCallback(StreamLeftColor, func(data StreamData) {
		fids = append(fids, data.Img.FrameID)
	})

	d.publish(StreamData{Type: StreamLeftColor, Img: testImage(7)})
	d.publish(StreamData{Type: StreamRightColor, Img: testImage(8)})

	if len(fids) != 1 || fids[0] != 7 {
		t.Errorf("callback saw %v, want [7]", fids)
	}
	d.fetch(StreamLeftColor).Img.Release()
	d.fetch(StreamRightColor).Img.Release()
}

func TestDispatcherImageInfoGating(t *testing.T) {
	d := newDispatcher()

	var got []uint32
	d.setImgInfoCallback(func(info *ImageInfo) {
		got = append(got, info.FrameID)
	})

	d.publishInfo(&ImageInfo{FrameID: 1})
	if len(got) != 0 {
		t.Errorf("info delivered while disabled")
	}

	d.enableImageInfo(true)
	d.publishInfo(&ImageInfo{FrameID: 2})
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("info callback saw %v, want [2]", got)
	}
}

func TestDispatcherMotionCacheBound(t *testing.T) {
	d := newDispatcher()
	d.enableMotionDatas(3)

	for i := 1; i <= 5; i++ {
		d.publishMotion(MotionData{Flag: FlagAccel, Timestamp: uint64(i)})
	}

	got := d.motionDatas()
	if len(got) != 3 {
		t.Fatalf("cached %d samples, want 3", len(got))
	}
	for i, m := range got {
		if want := uint64(i + 3); m.Timestamp != want {
			t.Errorf("sample %d has stamp %d, want %d", i, m.Timestamp, want)
		}
	}

	// The cache is drained by reading it.
	if got := d.motionDatas(); len(got) != 0 {
		t.Errorf("cache not drained, %d samples left", len(got))
	}
}

func TestDispatcherMotionDisabled(t *testing.T) {
	d := newDispatcher()

	called := false
	d.setMotionCallback(func(MotionData) { called = true })
	d.publishMotion(MotionData{Flag: FlagGyro})

	if called {
		t.Errorf("motion callback fired before EnableMotionDatas")
	}
	if got := d.motionDatas(); len(got) != 0 {
		t.Errorf("motion cached before EnableMotionDatas")
	}
}

func TestDispatcherMotionCallbackFlags(t *testing.T) {
	d := newDispatcher()
	d.enableMotionDatas(0)

	var flags []MotionFlag
	d.setMotionCallback(func(m MotionData) {
		flags = append(flags, m.Flag)
	})

	d.publishMotion(MotionData{Flag: FlagAccel})
	d.publishMotion(MotionData{Flag: FlagGyro})

	if len(flags) != 2 || flags[0] != FlagAccel || flags[1] != FlagGyro {
		t.Errorf("callback saw flags %v, want [accel gyro]", flags)
	}
	// With max 0, callbacks fire but nothing is cached.
	if got := d.motionDatas(); len(got) != 0 {
		t.Errorf("samples cached with max 0")
	}
}
