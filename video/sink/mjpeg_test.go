package sink

import (
	"bytes"
	"testing"

	"gocv.io/x/gocv"
)

func TestMJPEGStreamFramesImmutable(t *testing.T) {
	s := NewMJPEGServer().NewStream("left color")

	c := make(chan []byte, 2)
	s.lock.Lock()
	s.m[c] = true
	s.lock.Unlock()

	dark := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 120, 160, gocv.MatTypeCV8UC3)
	defer dark.Close()
	bright := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 120, 160, gocv.MatTypeCV8UC3)
	defer bright.Close()

	s.Put(dark)
	first := <-c
	saved := append([]byte(nil), first...)

	// A later frame must not rewrite bytes a client is still sending.
	s.Put(bright)
	second := <-c

	if !bytes.Equal(first, saved) {
		t.Errorf("delivered frame mutated by a later Put")
	}
	if bytes.Equal(first, second) {
		t.Errorf("distinct frames encoded identically")
	}
	if !bytes.HasPrefix(first, []byte("\r\n--"+boundaryWord)) {
		t.Errorf("frame missing multipart boundary header")
	}
}

func TestMJPEGStreamSkipsEncodeWithoutListeners(t *testing.T) {
	s := NewMJPEGServer().NewStream("depth")

	// No listeners registered; Put returns without doing any work.
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 4, 4, gocv.MatTypeCV8UC3)
	defer m.Close()
	s.Put(m)

	if !s.empty() {
		t.Errorf("stream reports listeners where none registered")
	}
}
