// Package metrics holds the process-wide Prometheus collectors, exported on
// /metrics by the viewer's HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stereocam_frames_total",
		Help: "Frames published, per stream type.",
	}, []string{"stream"})

	DroppedFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stereocam_dropped_frames_total",
		Help: "Frames replaced before any consumer fetched them, per stream type.",
	}, []string{"stream"})

	CaptureErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stereocam_capture_read_errors_total",
		Help: "Capture read failures.",
	})

	CaptureFPS = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stereocam_capture_fps",
		Help: "Measured capture frame rate.",
	})

	MotionSamples = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stereocam_motion_samples_total",
		Help: "IMU samples delivered, per accel/gyro flag.",
	}, []string{"flag"})

	ClipsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stereocam_clips_recorded_total",
		Help: "Video clips written to the recording filesystem.",
	})
)
