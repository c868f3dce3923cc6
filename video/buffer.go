package video

import (
	"time"

	"stereocam/video/sink"
	"stereocam/video/source"
)

// Buffer keeps a rolling window of recent frames so that a triggered clip
// includes pre-roll from before the trigger.
type Buffer struct {
	MaxAge time.Duration

	// buffer contains image history, oldest first.
	buffer []source.Image
	pool   *source.MatPool

	input    chan source.Image
	close    chan chan bool
	flush    chan sink.Sink
	flushack chan bool
	last     chan chan source.Image
}

func NewBuffer(maxAge time.Duration) *Buffer {
	b := &Buffer{
		MaxAge: maxAge,
		pool:   source.NewMatPool(),

		input:    make(chan source.Image),
		close:    make(chan chan bool),
		flush:    make(chan sink.Sink),
		flushack: make(chan bool),
		last:     make(chan chan source.Image),
	}
	go func() {
		for {
			select {
			case in := <-b.input:
				// Add to buffer tail.
				b.buffer = append(b.buffer, in)
				// Clear out old images from head.
				for i, img := range b.buffer {
					if in.Time.Sub(img.Time) >= b.MaxAge {
						b.pool.ReleaseMat(img.Mat)
					} else {
						b.buffer = b.buffer[i:]
						break
					}
				}
			case s := <-b.flush:
				for _, img := range b.buffer {
					s.Put(img)
				}
				b.flushack <- true
			case r := <-b.last:
				if len(b.buffer) == 0 {
					r <- source.NewImage()
					break
				}
				newest := b.buffer[len(b.buffer)-1]
				r <- newest.Clone()
			case c := <-b.close:
				for _, img := range b.buffer {
					b.pool.ReleaseMat(img.Mat)
				}
				b.buffer = nil
				b.pool.Close()
				c <- true
				return
			}
		}
	}()
	return b
}

// Put copies the image into the buffer; the caller keeps ownership of input.
func (b *Buffer) Put(input source.Image) {
	m := b.pool.NewMat()
	input.Mat.CopyTo(&m)
	i := source.Image{
		Mat:     m,
		FrameID: input.FrameID,
		Time:    input.Time,
	}
	b.input <- i
}

// GetLast returns a clone of the newest buffered frame. The clone is owned
// by the caller. An empty Image is returned when nothing is buffered yet.
func (b *Buffer) GetLast() source.Image {
	r := make(chan source.Image)
	b.last <- r
	return <-r
}

func (b *Buffer) FlushToSink(s sink.Sink) {
	b.flush <- s
	<-b.flushack
}

func (b *Buffer) Close() {
	c := make(chan bool)
	b.close <- c
	<-c
}
