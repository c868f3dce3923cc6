package device

import (
	"sync"

	"stereocam/metrics"
)

// dispatcher owns callback registration and the latest-frame state shared
// between the capture goroutines and WaitForStreams/GetStreamData callers.
//
// Frames are published with a global sequence number; WaitForStreams sleeps
// on a condition variable until the sequence advances past what it last
// returned. Callbacks run outside the lock so a slow callback cannot stall
// frame fetches.
type dispatcher struct {
	mu     sync.Mutex
	cond   *sync.Cond
	seq    uint64
	waited uint64
	closed bool

	latest map[Stream]StreamData

	imgInfoCb ImgInfoCallback
	streamCbs map[Stream]StreamCallback
	motionCb  MotionCallback

	infoEnabled   bool
	motionEnabled bool
	motionMax     int
	motions       []MotionData
}

func newDispatcher() *dispatcher {
	d := &dispatcher{
		latest:    make(map[Stream]StreamData),
		streamCbs: make(map[Stream]StreamCallback),
	}
	d.cond = sync.NewCond(&d.mu)
	return d
}

func (d *dispatcher) setImgInfoCallback(cb ImgInfoCallback) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.imgInfoCb = cb
}

func (d *dispatcher) setStreamCallback(s Stream, cb StreamCallback) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.streamCbs[s] = cb
}

func (d *dispatcher) setMotionCallback(cb MotionCallback) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.motionCb = cb
}

func (d *dispatcher) enableImageInfo(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.infoEnabled = enabled
}

func (d *dispatcher) enableMotionDatas(max int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.motionEnabled = true
	d.motionMax = max
	d.motions = nil
}

// publish replaces the latest unconsumed frame for the stream and wakes
// waiters. The replaced frame, if any, is returned so the caller can release
// it back to its pool.
func (d *dispatcher) publish(data StreamData) {
	d.mu.Lock()
	old, had := d.latest[data.Type]
	d.latest[data.Type] = data
	d.seq++
	cb := d.streamCbs[data.Type]
	d.cond.Broadcast()
	d.mu.Unlock()

	if had && old.Img != nil {
		metrics.DroppedFrames.WithLabelValues(data.Type.String()).Inc()
		old.Img.Release()
	}
	if cb != nil {
		cb(data)
	}
}

func (d *dispatcher) publishInfo(info *ImageInfo) {
	d.mu.Lock()
	cb := d.imgInfoCb
	enabled := d.infoEnabled
	d.mu.Unlock()
	if enabled && cb != nil {
		cb(info)
	}
}

func (d *dispatcher) publishMotion(m MotionData) {
	d.mu.Lock()
	if !d.motionEnabled {
		d.mu.Unlock()
		return
	}
	if d.motionMax > 0 {
		d.motions = append(d.motions, m)
		if n := len(d.motions) - d.motionMax; n > 0 {
			d.motions = d.motions[n:]
		}
	}
	cb := d.motionCb
	d.mu.Unlock()
	if cb != nil {
		cb(m)
	}
}

func (d *dispatcher) motionDatas() []MotionData {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.motions
	d.motions = nil
	return out
}

// wait blocks until a frame newer than the last wait has been published, or
// the dispatcher shuts down.
func (d *dispatcher) wait() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for d.seq == d.waited && !d.closed {
		d.cond.Wait()
	}
	d.waited = d.seq
}

// fetch hands the latest unconsumed frame to the caller, which takes
// ownership of the Img.
func (d *dispatcher) fetch(s Stream) StreamData {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, ok := d.latest[s]
	if !ok {
		return StreamData{Type: s}
	}
	delete(d.latest, s)
	return data
}

// shutdown wakes all waiters and releases any unconsumed frames.
func (d *dispatcher) shutdown() {
	d.mu.Lock()
	d.closed = true
	pending := d.latest
	d.latest = make(map[Stream]StreamData)
	d.cond.Broadcast()
	d.mu.Unlock()

	for _, data := range pending {
		if data.Img != nil {
			data.Img.Release()
		}
	}
}
