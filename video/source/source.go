package source

import (
	"image"
	"time"

	"gocv.io/x/gocv"
)

// Image is a single captured frame. The Mat is owned by the receiver of the
// Image; call Release when done so the backing buffer can be reused.
type Image struct {
	Mat gocv.Mat

	// FrameID is the capture sequence number assigned by the device,
	// monotonically increasing from 1.
	FrameID uint32

	// Time is the capture time (source time, not processing time).
	Time time.Time

	pool     *MatPool
	released bool
}

// NewImage allocates an unpooled Image backed by a fresh Mat.
func NewImage() Image {
	return Image{
		Mat:  gocv.NewMat(),
		Time: time.Now(),
	}
}

// NewPooledImage allocates an Image whose Mat is drawn from the given pool.
// Release returns the Mat to that pool.
func NewPooledImage(pool *MatPool, fid uint32, t time.Time) Image {
	return Image{
		Mat:     pool.NewMat(),
		FrameID: fid,
		Time:    t,
		pool:    pool,
	}
}

func (i *Image) Release() {
	if i.released {
		panic("image already released")
	}
	i.released = true
	if i.pool != nil {
		i.pool.ReleaseMat(i.Mat)
		return
	}
	i.Mat.Close()
}

// Clone deep-copies the image. The clone is unpooled.
func (i *Image) Clone() Image {
	n := Image{
		Mat:     gocv.NewMat(),
		FrameID: i.FrameID,
		Time:    i.Time,
	}
	i.Mat.CopyTo(&n.Mat)
	return n
}

// Source defines a stream of images, such as a camera.
type Source interface {
	// Get generates a channel for receiving images. Each Image is owned by
	// the caller once received and must be Released.
	Get() <-chan Image

	// Size returns the size of the capture source.
	Size() image.Point

	// Connected returns whether the capture source is considered "live".
	Connected() bool

	// Close disconnects from the capture source and frees up all resources.
	Close()
}
