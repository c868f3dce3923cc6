// Package device implements the stereo camera: stream request
// configuration, capture, depth reconstruction, IMU sampling, and the typed
// callback surface consumed by the viewer.
package device

import (
	"image"

	"github.com/golang/geo/r3"

	"stereocam/video/source"
)

// Stream identifies a class of image data the camera can emit.
type Stream int

const (
	StreamLeftColor Stream = iota
	StreamRightColor
	StreamDepth
)

// AllStreams lists every stream type in display order.
var AllStreams = []Stream{StreamLeftColor, StreamRightColor, StreamDepth}

func (s Stream) String() string {
	switch s {
	case StreamLeftColor:
		return "left color"
	case StreamRightColor:
		return "right color"
	case StreamDepth:
		return "depth"
	}
	return "unknown"
}

// StreamMode selects the capture resolution. The 1280x480 and 2560x720 modes
// are side-by-side stereo: the device emits one wide frame holding the left
// and right eye images next to each other.
type StreamMode int

const (
	Stream640x480  StreamMode = iota // vga, left only
	Stream1280x720                   // hd, left only
	Stream1280x480                   // vga, left+right
	Stream2560x720                   // hd, left+right
)

func (m StreamMode) String() string {
	switch m {
	case Stream640x480:
		return "640x480"
	case Stream1280x720:
		return "1280x720"
	case Stream1280x480:
		return "1280x480"
	case Stream2560x720:
		return "2560x720"
	}
	return "unknown"
}

// Stereo reports whether the mode carries both eye images.
func (m StreamMode) Stereo() bool {
	return m == Stream1280x480 || m == Stream2560x720
}

// FrameSize returns the full size of a captured frame, including both eyes
// for the side-by-side modes.
func (m StreamMode) FrameSize() image.Point {
	switch m {
	case Stream640x480:
		return image.Point{X: 640, Y: 480}
	case Stream1280x720:
		return image.Point{X: 1280, Y: 720}
	case Stream1280x480:
		return image.Point{X: 1280, Y: 480}
	case Stream2560x720:
		return image.Point{X: 2560, Y: 720}
	}
	return image.Point{}
}

// EyeSize returns the size of a single eye image.
func (m StreamMode) EyeSize() image.Point {
	sz := m.FrameSize()
	if m.Stereo() {
		sz.X /= 2
	}
	return sz
}

// DeviceMode restricts which streams the device produces.
//
//	ModeColor: left color yes, right color if stereo, depth no
//	ModeDepth: left color no, right color no, depth yes
//	ModeAll:   left color yes, right color if stereo, depth yes
type DeviceMode int

const (
	ModeAll DeviceMode = iota
	ModeColor
	ModeDepth
)

func (m DeviceMode) String() string {
	switch m {
	case ModeAll:
		return "all"
	case ModeColor:
		return "color"
	case ModeDepth:
		return "depth"
	}
	return "unknown"
}

// ColorMode selects color image processing.
type ColorMode int

const (
	ColorRaw       ColorMode = iota
	ColorRectified           // requires calibration; falls back to raw without one
)

// DepthMode selects how the depth stream is rendered.
type DepthMode int

const (
	DepthColorful DepthMode = iota // colormapped BGR
	DepthGray                      // 8-bit, near is bright
	DepthRaw                       // 16-bit millimeters
)

// ImageInfo carries per-frame capture metadata, delivered through the image
// info callback and attached to stream data.
type ImageInfo struct {
	// FrameID is the capture sequence number, starting at 1.
	FrameID uint32

	// Timestamp is the capture time in microseconds.
	Timestamp uint64

	// ExposureTime is the exposure reported by the capture backend in
	// microseconds, or 0 when the backend doesn't expose it.
	ExposureTime uint32
}

// StreamData is one frame of one stream. Img is nil when no fresh frame is
// available for the requested stream.
type StreamData struct {
	Type Stream
	Img  *source.Image
	Info *ImageInfo
}

// MotionFlag tags a motion sample as accelerometer or gyroscope data.
type MotionFlag int

const (
	FlagAccel MotionFlag = iota
	FlagGyro
)

func (f MotionFlag) String() string {
	switch f {
	case FlagAccel:
		return "accel"
	case FlagGyro:
		return "gyro"
	}
	return "unknown"
}

// MotionData is a single IMU sample. Exactly one of Accel or Gyro is
// meaningful, selected by Flag.
type MotionData struct {
	Flag MotionFlag

	// Timestamp is the sample time in microseconds.
	Timestamp uint64

	// Accel holds acceleration in g when Flag is FlagAccel.
	Accel r3.Vector

	// Gyro holds angular rate in deg/s when Flag is FlagGyro.
	Gyro r3.Vector

	// Temperature is the IMU die temperature in degrees Celsius.
	Temperature float64
}
