package device

import (
	"encoding/binary"
	"fmt"
	"math"

	"gocv.io/x/gocv"
)

// DepthOptions configures stereo depth reconstruction.
type DepthOptions struct {
	// Baseline is the distance between the two eyes in meters.
	Baseline float64

	// FocalLength of the eyes in pixels.
	FocalLength float64

	// Disparities outside (MinDisparity, MaxDisparity) are treated as no
	// measurement.
	MinDisparity float64
	MaxDisparity float64

	// DisparityStep and PixelStep trade density for speed: higher values
	// skip candidate disparities / image pixels.
	DisparityStep int
	PixelStep     int
}

// DefaultDepthOptions matches a 120mm-baseline stereo rig at VGA focal
// length.
func DefaultDepthOptions() DepthOptions {
	return DepthOptions{
		Baseline:      0.12,
		FocalLength:   700,
		MinDisparity:  1,
		MaxDisparity:  64,
		DisparityStep: 1,
		PixelStep:     4,
	}
}

// maxDepthMM caps the rendered depth range at 10 meters.
const maxDepthMM = 10000

// depthEngine reconstructs a depth image from a stereo pair by searching for
// the best-matching pixel along the epipolar line (sum of absolute
// differences over a small horizontal window) and converting the winning
// disparity through baseline*focal/disparity.
type depthEngine struct {
	opts DepthOptions
	mode DepthMode

	grayL gocv.Mat
	grayR gocv.Mat

	depth []uint16
	buf   []byte
}

func newDepthEngine(opts DepthOptions, mode DepthMode) *depthEngine {
	if opts.Baseline <= 0 || opts.FocalLength <= 0 {
		opts = DefaultDepthOptions()
	}
	if opts.PixelStep < 1 {
		opts.PixelStep = 1
	}
	if opts.DisparityStep < 1 {
		opts.DisparityStep = 1
	}
	return &depthEngine{
		opts:  opts,
		mode:  mode,
		grayL: gocv.NewMat(),
		grayR: gocv.NewMat(),
	}
}

func (e *depthEngine) Close() {
	e.grayL.Close()
	e.grayR.Close()
}

// Compute reconstructs depth from a BGR stereo pair into dst, rendered
// according to the engine's DepthMode.
func (e *depthEngine) Compute(left, right gocv.Mat, dst *gocv.Mat) error {
	if left.Cols() != right.Cols() || left.Rows() != right.Rows() {
		return fmt.Errorf("stereo pair size mismatch: %dx%d vs %dx%d",
			left.Cols(), left.Rows(), right.Cols(), right.Rows())
	}
	gocv.CvtColor(left, &e.grayL, gocv.ColorBGRToGray)
	gocv.CvtColor(right, &e.grayR, gocv.ColorBGRToGray)

	lb := e.grayL.ToBytes()
	rb := e.grayR.ToBytes()
	w, h := e.grayL.Cols(), e.grayL.Rows()
	if len(e.depth) != w*h {
		e.depth = make([]uint16, w*h)
	}

	step := e.opts.PixelStep
	for y := 0; y < h; y += step {
		for x := 0; x < w; x += step {
			d := e.disparityAt(lb, rb, w, x, y)
			var mm uint16
			if d > e.opts.MinDisparity && d < e.opts.MaxDisparity {
				z := e.opts.Baseline * e.opts.FocalLength / d * 1000
				if z > maxDepthMM {
					z = maxDepthMM
				}
				mm = uint16(z)
			}
			// Fill the whole cell so the output stays full resolution.
			for yy := y; yy < y+step && yy < h; yy++ {
				for xx := x; xx < x+step && xx < w; xx++ {
					e.depth[yy*w+xx] = mm
				}
			}
		}
	}

	return e.render(w, h, dst)
}

// disparityAt finds the disparity minimizing SAD along the epipolar line.
func (e *depthEngine) disparityAt(lb, rb []byte, w, x, y int) float64 {
	maxD := int(e.opts.MaxDisparity)
	if x < maxD {
		maxD = x
	}
	row := y * w
	best := 0
	minDiff := math.MaxInt32
	for d := 0; d <= maxD; d += e.opts.DisparityStep {
		diff := 0
		for k := -2; k <= 2; k++ {
			xx := x + k
			if xx-d < 0 || xx >= w {
				continue
			}
			diff += absInt(int(lb[row+xx]) - int(rb[row+xx-d]))
		}
		if diff < minDiff {
			minDiff = diff
			best = d
		}
	}
	return float64(best)
}

func (e *depthEngine) render(w, h int, dst *gocv.Mat) error {
	switch e.mode {
	case DepthRaw:
		if len(e.buf) != w*h*2 {
			e.buf = make([]byte, w*h*2)
		}
		for i, mm := range e.depth {
			binary.LittleEndian.PutUint16(e.buf[i*2:], mm)
		}
		m, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV16UC1, e.buf)
		if err != nil {
			return err
		}
		defer m.Close()
		m.CopyTo(dst)
		return nil
	default:
		if len(e.buf) != w*h {
			e.buf = make([]byte, w*h)
		}
		for i, mm := range e.depth {
			e.buf[i] = shade(mm)
		}
		m, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC1, e.buf)
		if err != nil {
			return err
		}
		defer m.Close()
		if e.mode == DepthColorful {
			gocv.ApplyColorMap(m, dst, gocv.ColormapJet)
		} else {
			m.CopyTo(dst)
		}
		return nil
	}
}

// shade maps depth to an 8-bit intensity, near is bright, no measurement is
// black.
func shade(mm uint16) byte {
	if mm == 0 {
		return 0
	}
	v := 255 - int(mm)*255/maxDepthMM
	if v < 1 {
		v = 1
	}
	return byte(v)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
