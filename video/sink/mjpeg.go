package sink

import (
	"fmt"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// MJPEG multi-streaming, based on implementation by saljam:
// https://github.com/saljam/mjpeg/blob/master/stream.go

const boundaryWord = "MJPEGBOUNDARY"
const headerf = "\r\n" +
	"--" + boundaryWord + "\r\n" +
	"Content-Type: image/jpeg\r\n" +
	"Content-Length: %d\r\n" +
	"X-Timestamp: 0.000000\r\n" +
	"\r\n"

// MJPEGServer serves live camera streams over multipart HTTP, one stream per
// stream name ("left color", "right color", "depth", plus debug streams).
type MJPEGServer struct {
	m map[string]*MJPEGStream

	lock sync.Mutex
}

func NewMJPEGServer() *MJPEGServer {
	return &MJPEGServer{
		m: make(map[string]*MJPEGStream),
	}
}

func (s *MJPEGServer) NewStream(name string) *MJPEGStream {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.m[name]; ok {
		log.Panicf("A stream named %q already exists", name)
	}

	ms := &MJPEGStream{
		name:   name,
		m:      make(map[chan []byte]bool),
		parent: s,
	}

	s.m[name] = ms
	return ms
}

func (s *MJPEGServer) getStream(name string) *MJPEGStream {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.m[name]
}

// ServeHTTP implements http.Handler, serving MJPEG for ?name=<stream>.
func (s *MJPEGServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	name := r.Form.Get("name")
	if name == "" {
		http.Error(w, "missing name", http.StatusBadRequest)
		return
	}

	stream := s.getStream(name)
	if stream == nil {
		http.Error(w, "unknown stream", http.StatusNotFound)
		return
	}

	log.WithField("addr", r.RemoteAddr).Infof("MJPEG client connected to %q", name)
	w.Header().Add("Content-Type", "multipart/x-mixed-replace;boundary="+boundaryWord)

	c := make(chan []byte)
	stream.lock.Lock()
	stream.m[c] = true
	stream.lock.Unlock()

	for {
		b := <-c
		if _, err := w.Write(b); err != nil {
			break
		}
	}

	stream.lock.Lock()
	delete(stream.m, c)
	stream.lock.Unlock()
	log.WithField("addr", r.RemoteAddr).Infof("MJPEG client disconnected from %q", name)
}

type MJPEGStream struct {
	name string
	m    map[chan []byte]bool

	parent *MJPEGServer
	lock   sync.Mutex
}

func (s *MJPEGStream) empty() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.m) == 0
}

func (s *MJPEGStream) Put(input gocv.Mat) {
	if s.empty() {
		// Nobody is listening; don't bother encoding.
		return
	}

	jpeg, err := gocv.IMEncode(".jpg", input)
	if err != nil {
		log.Errorf("Error encoding to JPG for MJPEG stream %q: %v", s.name, err)
		return
	}

	// Each frame gets its own buffer; clients may still be writing the
	// previous one to the network.
	header := fmt.Sprintf(headerf, len(jpeg))
	frame := make([]byte, 0, len(header)+len(jpeg))
	frame = append(frame, header...)
	frame = append(frame, jpeg...)

	s.lock.Lock()
	defer s.lock.Unlock()
	for c := range s.m {
		select {
		case c <- frame:
		default:
			// Skip listeners not ready for the next frame.
		}
	}
}

func (s *MJPEGStream) Close() {
	s.parent.lock.Lock()
	defer s.parent.lock.Unlock()
	delete(s.parent.m, s.name)
}

// MJPEGStreamPool holds streams that are created dynamically when first
// referenced, used for debug output.
type MJPEGStreamPool struct {
	server *MJPEGServer
	m      map[string]*MJPEGStream
}

func (s *MJPEGServer) NewStreamPool() *MJPEGStreamPool {
	return &MJPEGStreamPool{
		server: s,
		m:      make(map[string]*MJPEGStream),
	}
}

func (p *MJPEGStreamPool) Put(name string, img gocv.Mat) {
	stream, ok := p.m[name]
	if !ok {
		stream = p.server.NewStream(name)
		p.m[name] = stream
	}
	stream.Put(img)
}

func (p *MJPEGStreamPool) Close() {
	for _, s := range p.m {
		s.Close()
	}
	p.m = make(map[string]*MJPEGStream)
}
