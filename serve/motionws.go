package serve

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"stereocam/device"
)

// motionSample is the wire form of one IMU sample.
type motionSample struct {
	Flag        string  `json:"flag"`
	Timestamp   uint64  `json:"stamp"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
	Temperature float64 `json:"temp"`
}

// MotionStreamer pushes IMU samples to websocket clients as JSON. Clients
// that can't keep up skip samples rather than backpressure the device.
type MotionStreamer struct {
	upgrader websocket.Upgrader
	cs       map[chan []byte]bool
	addc     chan chan []byte
	delc     chan chan []byte
	in       chan []byte
}

func NewMotionStreamer() *MotionStreamer {
	m := &MotionStreamer{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		cs:   make(map[chan []byte]bool),
		addc: make(chan chan []byte),
		delc: make(chan chan []byte),
		in:   make(chan []byte, 16),
	}
	go func() {
		for {
			select {
			case c := <-m.addc:
				m.cs[c] = true
			case c := <-m.delc:
				delete(m.cs, c)
			case b := <-m.in:
				for c := range m.cs {
					select {
					case c <- b:
					default:
						// Client not ready for the next sample.
					}
				}
			}
		}
	}()
	return m
}

// Push queues a sample for broadcast. It is registered as the device's
// motion callback alongside the console sink.
func (m *MotionStreamer) Push(d device.MotionData) {
	s := motionSample{
		Flag:        d.Flag.String(),
		Timestamp:   d.Timestamp,
		Temperature: d.Temperature,
	}
	if d.Flag == device.FlagAccel {
		s.X, s.Y, s.Z = d.Accel.X, d.Accel.Y, d.Accel.Z
	} else {
		s.X, s.Y, s.Z = d.Gyro.X, d.Gyro.Y, d.Gyro.Z
	}
	b, err := json.Marshal(s)
	if err != nil {
		return
	}
	select {
	case m.in <- b:
	default:
		// Drop when the broadcast loop is saturated.
	}
}

func (m *MotionStreamer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if _, ok := err.(websocket.HandshakeError); !ok {
			log.WithField("addr", r.RemoteAddr).Errorf("Websocket handshake failed for motion stream: %v", err)
		}
		return
	}
	go m.serve(ws)
}

func (m *MotionStreamer) serve(ws *websocket.Conn) {
	clog := log.WithField("addr", ws.RemoteAddr())
	clog.Info("Connected to motion socket")
	defer func() {
		ws.Close()
		clog.Info("Disconnected from motion socket")
	}()
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	c := make(chan []byte, 4)
	m.addc <- c
	defer func() { m.delc <- c }()

	go func() {
		for {
			if _, _, err := ws.NextReader(); err != nil {
				ws.Close()
				return
			}
		}
	}()

	for {
		select {
		case b := <-c:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-pingTicker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}
