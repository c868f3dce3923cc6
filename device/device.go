package device

// ImgInfoCallback receives per-frame capture metadata.
type ImgInfoCallback func(info *ImageInfo)

// StreamCallback receives every frame of one stream type.
type StreamCallback func(data StreamData)

// MotionCallback receives every IMU sample.
type MotionCallback func(data MotionData)

// Device is the contract of a stereo camera: apply a stream request, open,
// register typed data callbacks, block until new data is ready, fetch the
// latest frame per stream, close. Callbacks are invoked from the device's
// own goroutines; callers needing ordered output must serialize themselves.
type Device interface {
	// Open applies the configured request and starts capture. It is the
	// only operation whose failure is fatal to a viewer.
	Open() error

	// Close stops capture and releases all device resources.
	Close() error

	// Supports reports stream availability under the configured request.
	Supports(s Stream) bool

	SetImgInfoCallback(cb ImgInfoCallback)
	SetStreamCallback(s Stream, cb StreamCallback)
	SetMotionCallback(cb MotionCallback)

	// EnableImageInfo turns on delivery of ImageInfo to the info callback.
	EnableImageInfo(enabled bool)

	// EnableMotionDatas turns on motion capture. A max greater than zero
	// additionally caches up to max samples for GetMotionDatas.
	EnableMotionDatas(max int)

	// WaitForStreams blocks until a frame newer than the last one observed
	// by this method has been published.
	WaitForStreams()

	// GetStreamData returns the latest unconsumed frame for the stream, or
	// a StreamData with a nil Img when there is none.
	GetStreamData(s Stream) StreamData

	// GetMotionDatas drains the motion cache.
	GetMotionDatas() []MotionData
}
