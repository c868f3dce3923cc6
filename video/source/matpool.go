package source

import (
	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// maxAllocations bounds the number of live Mats handed out by a pool. Hitting
// this limit almost always means an Image is never Released.
const maxAllocations = 500

// MatPool recycles gocv Mats to avoid continuous cgo allocation on the hot
// capture path. All bookkeeping happens on a single goroutine.
type MatPool struct {
	new   chan chan gocv.Mat
	free  chan gocv.Mat
	close chan bool

	allocated int
	available []gocv.Mat
}

func NewMatPool() *MatPool {
	p := &MatPool{
		new:   make(chan chan gocv.Mat),
		free:  make(chan gocv.Mat),
		close: make(chan bool),
	}
	go func() {
		closed := false
		for {
			select {
			case <-p.close:
				closed = true
				for _, m := range p.available {
					m.Close()
					p.allocated -= 1
				}
				p.available = nil
			case m := <-p.free:
				if closed {
					m.Close()
					p.allocated -= 1
				} else {
					p.available = append(p.available, m)
				}
			case r := <-p.new:
				var m gocv.Mat
				if len(p.available) > 0 {
					m, p.available = p.available[0], p.available[1:]
				} else {
					m = gocv.NewMat()
					p.allocated += 1
					if p.allocated > maxAllocations {
						log.Fatalf("Too many MatPool allocations. Perhaps an Image isn't being released?")
					}
				}
				r <- m
			}
		}
	}()
	return p
}

func (p *MatPool) NewMat() gocv.Mat {
	r := make(chan gocv.Mat)
	p.new <- r
	return <-r
}

func (p *MatPool) ReleaseMat(m gocv.Mat) {
	p.free <- m
}

func (p *MatPool) Close() {
	p.close <- true
}
