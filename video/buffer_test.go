package video

import (
	"testing"
	"time"

	"gocv.io/x/gocv"

	"stereocam/video/source"
)

type captureSink struct {
	fids []uint32
}

func (c *captureSink) Put(i source.Image) {
	c.fids = append(c.fids, i.FrameID)
}

func (c *captureSink) Close() {}

func bufFrame(m gocv.Mat, fid uint32, at time.Time) source.Image {
	return source.Image{Mat: m, FrameID: fid, Time: at}
}

func TestBufferEvictsOldFrames(t *testing.T) {
	b := NewBuffer(time.Second)
	defer b.Close()

	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 4, 4, gocv.MatTypeCV8UC3)
	defer m.Close()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	b.Put(bufFrame(m, 1, base))
	b.Put(bufFrame(m, 2, base.Add(600*time.Millisecond)))
	// Frame 1 is now a full MaxAge older than the newest input.
	b.Put(bufFrame(m, 3, base.Add(1200*time.Millisecond)))

	s := &captureSink{}
	b.FlushToSink(s)
	if len(s.fids) != 2 || s.fids[0] != 2 || s.fids[1] != 3 {
		t.Errorf("flushed fids = %v, want [2 3]", s.fids)
	}
}

func TestBufferGetLast(t *testing.T) {
	b := NewBuffer(time.Second)
	defer b.Close()

	// Nothing buffered yet yields an empty image.
	empty := b.GetLast()
	if !empty.Mat.Empty() || empty.FrameID != 0 {
		t.Errorf("GetLast on empty buffer = fid %d, empty %v", empty.FrameID, empty.Mat.Empty())
	}
	empty.Release()

	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 4, 4, gocv.MatTypeCV8UC3)
	defer m.Close()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	b.Put(bufFrame(m, 1, base))
	b.Put(bufFrame(m, 2, base.Add(100*time.Millisecond)))

	last := b.GetLast()
	if last.FrameID != 2 {
		t.Errorf("GetLast fid = %d, want the newest frame 2", last.FrameID)
	}
	last.Release()
}
