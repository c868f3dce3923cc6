package device

import (
	"math"
	"time"

	"github.com/golang/geo/r3"
)

// IMUSample is one raw reading from an inertial measurement unit: both the
// accelerometer and gyroscope axes with a shared timestamp.
type IMUSample struct {
	// Timestamp in microseconds.
	Timestamp uint64

	// Accel in g.
	Accel r3.Vector

	// Gyro in deg/s.
	Gyro r3.Vector

	// Temperature of the IMU die in degrees Celsius.
	Temperature float64
}

// IMUReader provides motion samples. It is a light abstraction over a sensor
// driver so that other inertial hardware can slot in.
type IMUReader interface {
	// ReadOne returns the most recent sample.
	ReadOne() (IMUSample, error)

	// Close stops reading the sensor.
	Close() error
}

// SyntheticIMU produces a deterministic, smoothly varying motion stream. It
// backs file replay and tests where no inertial hardware is present.
type SyntheticIMU struct {
	start time.Time
	now   func() time.Time
}

func NewSyntheticIMU() *SyntheticIMU {
	return &SyntheticIMU{
		start: time.Now(),
		now:   time.Now,
	}
}

func (s *SyntheticIMU) ReadOne() (IMUSample, error) {
	t := s.now()
	el := t.Sub(s.start).Seconds()
	return IMUSample{
		Timestamp: uint64(t.UnixMicro()),
		Accel: r3.Vector{
			X: 0.02 * math.Sin(el),
			Y: 0.02 * math.Cos(el),
			Z: 1.0,
		},
		Gyro: r3.Vector{
			X: 1.5 * math.Sin(el/2),
			Y: 1.5 * math.Cos(el/2),
			Z: 0.2 * math.Sin(el/5),
		},
		Temperature: 32.5 + 0.5*math.Sin(el/30),
	}, nil
}

func (s *SyntheticIMU) Close() error {
	return nil
}
