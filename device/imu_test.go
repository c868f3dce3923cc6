package device

import (
	"math"
	"testing"
	"time"
)

func TestSyntheticIMUDeterministic(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := start
	imu := &SyntheticIMU{
		start: start,
		now:   func() time.Time { return clock },
	}

	a, err := imu.ReadOne()
	if err != nil {
		t.Fatalf("ReadOne failed: %v", err)
	}
	b, _ := imu.ReadOne()
	if a != b {
		t.Errorf("samples differ for the same clock reading")
	}

	if a.Timestamp != uint64(start.UnixMicro()) {
		t.Errorf("Timestamp = %d, want %d", a.Timestamp, start.UnixMicro())
	}
	if a.Accel.Z != 1.0 {
		t.Errorf("Accel.Z = %v, want gravity 1.0", a.Accel.Z)
	}

	clock = clock.Add(3 * time.Second)
	c, _ := imu.ReadOne()
	if c.Timestamp <= a.Timestamp {
		t.Errorf("timestamps not increasing: %d then %d", a.Timestamp, c.Timestamp)
	}
	if c.Accel == a.Accel {
		t.Errorf("accel did not vary over time")
	}
	if math.Abs(c.Temperature-32.5) > 1 {
		t.Errorf("Temperature = %v, want near 32.5", c.Temperature)
	}
}
