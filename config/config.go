package config

import (
	"fmt"

	"stereocam/device"
)

type Config struct {
	URI      string
	HTTPPort int

	// Capture parameters.
	Framerate   int
	DeviceMode  string
	StreamMode  string
	ColorMode   string
	DepthMode   string
	IRIntensity int

	DisableAutoExposure     bool
	DisableAutoWhiteBalance bool

	// Samples per second produced by the IMU reader.
	IMURate int

	Depth device.DepthOptions

	RecordPath        string
	FilesystemMaxSize int64

	BufferTimeSec    int
	RecordTimeSec    int
	MaxRecordTimeSec int

	MotionThresh float64

	NotificationHoursStart int
	NotificationHoursEnd   int

	MySQLDSN          string
	WebPushSubscriber string
}

var deviceModes = map[string]device.DeviceMode{
	"":      device.ModeAll,
	"all":   device.ModeAll,
	"color": device.ModeColor,
	"depth": device.ModeDepth,
}

var streamModes = map[string]device.StreamMode{
	"":         device.Stream1280x480,
	"640x480":  device.Stream640x480,
	"1280x720": device.Stream1280x720,
	"1280x480": device.Stream1280x480,
	"2560x720": device.Stream2560x720,
}

var colorModes = map[string]device.ColorMode{
	"":          device.ColorRaw,
	"raw":       device.ColorRaw,
	"rectified": device.ColorRectified,
}

var depthModes = map[string]device.DepthMode{
	"":         device.DepthColorful,
	"colorful": device.DepthColorful,
	"gray":     device.DepthGray,
	"raw":      device.DepthRaw,
}

// Request maps the configured capture parameters onto a device request.
func (c *Config) Request() (device.Request, error) {
	r := device.DefaultRequest()

	dm, ok := deviceModes[c.DeviceMode]
	if !ok {
		return r, fmt.Errorf("unknown device mode %q", c.DeviceMode)
	}
	r.Mode = dm

	sm, ok := streamModes[c.StreamMode]
	if !ok {
		return r, fmt.Errorf("unknown stream mode %q", c.StreamMode)
	}
	r.StreamMode = sm

	cm, ok := colorModes[c.ColorMode]
	if !ok {
		return r, fmt.Errorf("unknown color mode %q", c.ColorMode)
	}
	r.ColorMode = cm

	pm, ok := depthModes[c.DepthMode]
	if !ok {
		return r, fmt.Errorf("unknown depth mode %q", c.DepthMode)
	}
	r.DepthMode = pm

	if c.Framerate > 0 {
		r.Framerate = c.Framerate
	}
	r.IRIntensity = c.IRIntensity
	r.AutoExposure = !c.DisableAutoExposure
	r.AutoWhiteBalance = !c.DisableAutoWhiteBalance

	if err := r.Validate(); err != nil {
		return r, err
	}
	return r, nil
}
