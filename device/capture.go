package device

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"stereocam/metrics"
	"stereocam/util"
	"stereocam/video/source"
)

// CameraOptions configures a Camera.
type CameraOptions struct {
	// URI names the capture source: a device index ("0"), a V4L2 path, or
	// a video file for replay.
	URI string

	Request Request

	// IMU optionally provides motion samples.
	IMU IMUReader

	// IMURate is the motion sampling rate in Hz. Defaults to 100.
	IMURate int

	Depth DepthOptions
}

// Camera is the gocv-backed Device. A capture goroutine reads side-by-side
// frames, splits the stereo pair, reconstructs depth, and publishes through
// the dispatcher; a second goroutine polls the IMU.
type Camera struct {
	opts CameraOptions
	req  Request

	disp    *dispatcher
	pool    *source.MatPool
	depth   *depthEngine
	cap     *gocv.VideoCapture
	counter *util.Counter

	opened bool
	done   chan struct{}
	wg     sync.WaitGroup
}

func NewCamera(opts CameraOptions) *Camera {
	if opts.IMURate <= 0 {
		opts.IMURate = 100
	}
	return &Camera{
		opts: opts,
		req:  opts.Request,
		disp: newDispatcher(),
		done: make(chan struct{}),
	}
}

// ConfigRequest replaces the stream request. Must be called before Open.
func (c *Camera) ConfigRequest(r Request) error {
	if c.opened {
		return errors.New("device already open")
	}
	if err := r.Validate(); err != nil {
		return err
	}
	c.req = r
	return nil
}

func (c *Camera) Supports(s Stream) bool {
	return c.req.Supports(s)
}

func (c *Camera) SetImgInfoCallback(cb ImgInfoCallback) { c.disp.setImgInfoCallback(cb) }
func (c *Camera) SetStreamCallback(s Stream, cb StreamCallback) {
	c.disp.setStreamCallback(s, cb)
}
func (c *Camera) SetMotionCallback(cb MotionCallback) { c.disp.setMotionCallback(cb) }
func (c *Camera) EnableImageInfo(enabled bool)        { c.disp.enableImageInfo(enabled) }
func (c *Camera) EnableMotionDatas(max int)           { c.disp.enableMotionDatas(max) }
func (c *Camera) WaitForStreams()                     { c.disp.wait() }
func (c *Camera) GetStreamData(s Stream) StreamData   { return c.disp.fetch(s) }
func (c *Camera) GetMotionDatas() []MotionData        { return c.disp.motionDatas() }

func (c *Camera) Open() error {
	if c.opened {
		return errors.New("device already open")
	}
	if err := c.req.Validate(); err != nil {
		return err
	}

	// Requested options the capture backend can't honor degrade with a
	// warning rather than failing the open.
	if c.req.ColorMode == ColorRectified {
		log.Warn("No calibration loaded; rectified color falls back to raw")
	}
	if c.req.IRIntensity > 0 {
		log.Warnf("Infrared projector not available on this backend, intensity %d ignored", c.req.IRIntensity)
	}

	cap, err := gocv.OpenVideoCapture(c.opts.URI)
	if err != nil {
		return fmt.Errorf("open capture %q: %w", c.opts.URI, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return fmt.Errorf("capture %q did not open", c.opts.URI)
	}

	sz := c.req.StreamMode.FrameSize()
	cap.Set(gocv.VideoCaptureFrameWidth, float64(sz.X))
	cap.Set(gocv.VideoCaptureFrameHeight, float64(sz.Y))
	if c.req.Framerate > 0 {
		cap.Set(gocv.VideoCaptureFPS, float64(c.req.Framerate))
	}
	if !c.req.AutoExposure {
		cap.Set(gocv.VideoCaptureAutoExposure, 0)
	}
	if !c.req.AutoWhiteBalance {
		cap.Set(gocv.VideoCaptureAutoWB, 0)
	}

	c.cap = cap
	c.pool = source.NewMatPool()
	c.counter = util.NewCounter()
	if c.req.Supports(StreamDepth) {
		c.depth = newDepthEngine(c.opts.Depth, c.req.DepthMode)
	}
	c.opened = true

	c.wg.Add(1)
	go c.captureLoop()
	if c.opts.IMU != nil {
		c.wg.Add(1)
		go c.motionLoop()
	}

	log.WithField("uri", c.opts.URI).Infof("Capture open: mode %v, stream %v, %d fps", c.req.Mode, c.req.StreamMode, c.req.Framerate)
	return nil
}

func (c *Camera) Close() error {
	if !c.opened {
		return nil
	}
	c.opened = false
	close(c.done)
	c.wg.Wait()
	c.disp.shutdown()

	var err error
	if c.cap != nil {
		err = c.cap.Close()
	}
	if c.depth != nil {
		c.depth.Close()
	}
	if c.pool != nil {
		c.pool.Close()
	}
	if c.opts.IMU != nil {
		if cerr := c.opts.IMU.Close(); err == nil {
			err = cerr
		}
	}
	log.Info("Capture closed")
	return err
}

func (c *Camera) captureLoop() {
	defer c.wg.Done()

	frame := gocv.NewMat()
	defer frame.Close()

	var fid uint32
	fails := 0
	for {
		select {
		case <-c.done:
			return
		default:
		}

		if ok := c.cap.Read(&frame); !ok || frame.Empty() {
			metrics.CaptureErrors.Inc()
			fails++
			if fails == 1 || fails%100 == 0 {
				log.Warnf("Capture read failure (%d), retrying", fails)
			}
			select {
			case <-c.done:
				return
			case <-time.After(10 * time.Millisecond):
			}
			continue
		}
		fails = 0
		fid++
		now := time.Now()
		c.counter.Update()
		metrics.CaptureFPS.Set(c.counter.FPS())

		info := &ImageInfo{
			FrameID:      fid,
			Timestamp:    uint64(now.UnixMicro()),
			ExposureTime: c.exposure(),
		}
		c.disp.publishInfo(info)

		stereo := c.req.StreamMode.Stereo()
		left := frame
		var right gocv.Mat
		if stereo {
			half := frame.Cols() / 2
			left = frame.Region(image.Rect(0, 0, half, frame.Rows()))
			right = frame.Region(image.Rect(half, 0, frame.Cols(), frame.Rows()))
		}

		if c.req.Supports(StreamLeftColor) {
			c.publishImage(StreamLeftColor, left, fid, now, info)
		}
		if c.req.Supports(StreamRightColor) {
			c.publishImage(StreamRightColor, right, fid, now, info)
		}
		if c.req.Supports(StreamDepth) {
			img := source.NewPooledImage(c.pool, fid, now)
			if err := c.depth.Compute(left, right, &img.Mat); err != nil {
				log.Errorf("Depth reconstruction failed: %v", err)
				img.Release()
			} else {
				metrics.FramesTotal.WithLabelValues(StreamDepth.String()).Inc()
				c.disp.publish(StreamData{Type: StreamDepth, Img: &img, Info: info})
			}
		}

		if stereo {
			left.Close()
			right.Close()
		}
	}
}

func (c *Camera) publishImage(s Stream, m gocv.Mat, fid uint32, t time.Time, info *ImageInfo) {
	img := source.NewPooledImage(c.pool, fid, t)
	m.CopyTo(&img.Mat)
	metrics.FramesTotal.WithLabelValues(s.String()).Inc()
	c.disp.publish(StreamData{Type: s, Img: &img, Info: info})
}

// exposure reports the backend's exposure property scaled to microseconds
// (V4L2 uses 100us units), or 0 when the backend doesn't support it.
func (c *Camera) exposure() uint32 {
	v := c.cap.Get(gocv.VideoCaptureExposure)
	if v <= 0 {
		return 0
	}
	return uint32(v * 100)
}

func (c *Camera) motionLoop() {
	defer c.wg.Done()

	t := time.NewTicker(time.Second / time.Duration(c.opts.IMURate))
	defer t.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-t.C:
		}

		s, err := c.opts.IMU.ReadOne()
		if err != nil {
			log.Errorf("IMU read failed: %v", err)
			continue
		}

		// The hardware interleaves accelerometer and gyroscope readings;
		// deliver each half of the sample under its own flag.
		metrics.MotionSamples.WithLabelValues(FlagAccel.String()).Inc()
		c.disp.publishMotion(MotionData{
			Flag:        FlagAccel,
			Timestamp:   s.Timestamp,
			Accel:       s.Accel,
			Temperature: s.Temperature,
		})
		metrics.MotionSamples.WithLabelValues(FlagGyro.String()).Inc()
		c.disp.publishMotion(MotionData{
			Flag:        FlagGyro,
			Timestamp:   s.Timestamp,
			Gyro:        s.Gyro,
			Temperature: s.Temperature,
		})
	}
}
