package video

import (
	"fmt"
	"net/http"
	"time"

	"stereocam/metrics"
	"stereocam/video/sink"
	"stereocam/video/source"
)

type RecorderOptions struct {
	// BufferTime of pre-roll included ahead of a trigger.
	BufferTime time.Duration

	// RecordTime past the most recent trigger.
	RecordTime time.Duration

	// MaxRecordTime bounds a clip even under continuous triggering.
	MaxRecordTime time.Duration
}

// Recorder turns triggers into recorded clips: on trigger it opens a sink
// from the producer, flushes the pre-roll buffer into it, and keeps writing
// frames until RecordTime elapses without another trigger (or MaxRecordTime
// elapses outright). All state lives on a single goroutine.
type Recorder struct {
	producer *VideoSinkProducer
	opts     *RecorderOptions
	buf      *Buffer

	input    chan source.Image
	inputack chan bool
	trigger  chan bool
	close    chan chan bool
}

func NewRecorder(p *VideoSinkProducer, o *RecorderOptions) *Recorder {
	r := &Recorder{
		producer: p,
		opts:     o,
		buf:      NewBuffer(o.BufferTime),

		input:    make(chan source.Image),
		inputack: make(chan bool),
		trigger:  make(chan bool),
		close:    make(chan chan bool),
	}
	go func() {
		recording := false
		var out sink.Sink
		var stop <-chan time.Time
		var stopLong <-chan time.Time

		stopFunc := func() {
			if !recording {
				panic("expected to be in state recording")
			}
			go out.Close()
			recording = false
			stop = nil
			stopLong = nil
		}

		for {
			select {
			case img := <-r.input:
				if recording {
					out.Put(img)
				}
				r.buf.Put(img)
				r.inputack <- true

			case <-r.trigger:
				if !recording {
					out = r.producer.New(r.buf.GetLast())
					r.buf.FlushToSink(out)
					recording = true
					stopLong = time.NewTimer(r.opts.MaxRecordTime).C
					metrics.ClipsRecorded.Inc()
				}
				stop = time.NewTimer(r.opts.RecordTime).C

			case <-stop:
				stopFunc()
			case <-stopLong:
				stopFunc()

			case c := <-r.close:
				if recording {
					out.Close()
				}
				r.buf.Close()
				c <- true
				return
			}
		}
	}()
	return r
}

func (r *Recorder) Put(input source.Image) {
	r.input <- input
	<-r.inputack
}

func (r *Recorder) Close() {
	c := make(chan bool)
	r.close <- c
	<-c
}

// Trigger will start recording to the SinkProducer, including `BufferTime`
// of history and lasting for `RecordTime`. Subsequent triggers will reset
// `RecordTime`.
func (r *Recorder) Trigger() {
	r.trigger <- true
}

// ServeHTTP implements http.Handler for manual triggering.
func (r *Recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.Trigger()

	w.Header().Add("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}
