package serve

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang/geo/r3"

	"stereocam/device"
)

func recvSample(t *testing.T, c chan []byte) motionSample {
	t.Helper()
	select {
	case b := <-c:
		var s motionSample
		if err := json.Unmarshal(b, &s); err != nil {
			t.Fatalf("bad JSON: %v", err)
		}
		return s
	case <-time.After(time.Second):
		t.Fatalf("no sample broadcast")
		return motionSample{}
	}
}

func TestMotionStreamerRoutesAxes(t *testing.T) {
	m := NewMotionStreamer()
	c := make(chan []byte, 4)
	m.addc <- c

	m.Push(device.MotionData{
		Flag:        device.FlagAccel,
		Timestamp:   42,
		Accel:       r3.Vector{X: 0.1, Y: 0.2, Z: 1.0},
		Gyro:        r3.Vector{X: 9, Y: 9, Z: 9},
		Temperature: 33,
	})
	s := recvSample(t, c)
	if s.Flag != "accel" {
		t.Errorf("Flag = %q, want accel", s.Flag)
	}
	if s.Timestamp != 42 || s.Z != 1.0 || s.Temperature != 33 {
		t.Errorf("accel sample = %+v", s)
	}

	// Gyro samples carry the gyro axes, never the accel ones.
	m.Push(device.MotionData{
		Flag:  device.FlagGyro,
		Accel: r3.Vector{X: 9, Y: 9, Z: 9},
		Gyro:  r3.Vector{X: 1.5, Y: -1.5, Z: 0.2},
	})
	s = recvSample(t, c)
	if s.Flag != "gyro" {
		t.Errorf("Flag = %q, want gyro", s.Flag)
	}
	if s.X != 1.5 || s.Y != -1.5 || s.Z != 0.2 {
		t.Errorf("gyro sample = %+v", s)
	}
}
