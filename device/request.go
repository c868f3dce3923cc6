package device

import "fmt"

// Request is the stream configuration submitted to the device before Open.
type Request struct {
	// Framerate in frames per second. Legal range is [0,60], narrowed to
	// [0,30] for Stream2560x720. Zero keeps the capture backend's default.
	Framerate int

	Mode       DeviceMode
	StreamMode StreamMode
	ColorMode  ColorMode
	DepthMode  DepthMode

	AutoExposure     bool
	AutoWhiteBalance bool

	// IRIntensity drives the infrared projector, [0,10].
	IRIntensity int
}

// DefaultRequest mirrors the device defaults: 10 fps, all streams, VGA
// side-by-side stereo, raw color, colorful depth, AE/AWB on, IR off.
func DefaultRequest() Request {
	return Request{
		Framerate:        10,
		Mode:             ModeAll,
		StreamMode:       Stream1280x480,
		ColorMode:        ColorRaw,
		DepthMode:        DepthColorful,
		AutoExposure:     true,
		AutoWhiteBalance: true,
	}
}

// Validate checks the request against the documented legal ranges.
func (r Request) Validate() error {
	if r.StreamMode < Stream640x480 || r.StreamMode > Stream2560x720 {
		return fmt.Errorf("invalid stream mode %d", int(r.StreamMode))
	}
	maxFPS := 60
	if r.StreamMode == Stream2560x720 {
		maxFPS = 30
	}
	if r.Framerate < 0 || r.Framerate > maxFPS {
		return fmt.Errorf("framerate %d out of range [0,%d] for mode %v", r.Framerate, maxFPS, r.StreamMode)
	}
	if r.Mode < ModeAll || r.Mode > ModeDepth {
		return fmt.Errorf("invalid device mode %d", int(r.Mode))
	}
	if r.ColorMode != ColorRaw && r.ColorMode != ColorRectified {
		return fmt.Errorf("invalid color mode %d", int(r.ColorMode))
	}
	if r.DepthMode < DepthColorful || r.DepthMode > DepthRaw {
		return fmt.Errorf("invalid depth mode %d", int(r.DepthMode))
	}
	if r.IRIntensity < 0 || r.IRIntensity > 10 {
		return fmt.Errorf("infrared intensity %d out of range [0,10]", r.IRIntensity)
	}
	return nil
}

// Supports reports whether the request makes the given stream available.
// Right color needs a side-by-side mode; depth is reconstructed from the
// stereo pair, so it needs one too.
func (r Request) Supports(s Stream) bool {
	switch s {
	case StreamLeftColor:
		return r.Mode != ModeDepth
	case StreamRightColor:
		return r.Mode != ModeDepth && r.StreamMode.Stereo()
	case StreamDepth:
		return r.Mode != ModeColor && r.StreamMode.Stereo()
	}
	return false
}
