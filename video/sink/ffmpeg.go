package sink

import (
	"fmt"
	"image"
	"os"
	"os/exec"
	"time"

	log "github.com/sirupsen/logrus"

	"stereocam/util"
	"stereocam/video/source"
)

// FFmpegOptions configures clip encoding.
type FFmpegOptions struct {
	// Size of the incoming frames.
	Size image.Point

	// FPS of the produced clip.
	FPS int

	// BufferTime of pre-roll included ahead of the trigger.
	BufferTime time.Duration
}

// FFmpegSink pipes raw BGR frames to an ffmpeg child process encoding h264.
type FFmpegSink struct {
	b     chan []byte
	close chan chan bool
}

func NewFFmpegSink(path string, opts FFmpegOptions) *FFmpegSink {
	f := &FFmpegSink{
		b:     make(chan []byte),
		close: make(chan chan bool),
	}
	go func() {
		ffmpeg, err := util.LocateFFmpeg()
		if err != nil {
			log.Errorf("Clip %v lost, no ffmpeg binary: %v", path, err)
			f.drain()
			return
		}
		c := exec.Command(
			ffmpeg,
			// Configure ffmpeg to read raw frames from stdin.
			"-f", "rawvideo",
			"-pixel_format", "bgr24",
			"-video_size", fmt.Sprintf("%dx%d", opts.Size.X, opts.Size.Y),
			"-framerate", fmt.Sprintf("%d", opts.FPS),
			"-i", "-",
			// h264 with reasonable quality and speed. "preset" can be
			// adjusted if the system is too slow to keep up.
			"-c:v", "libx264",
			"-preset", "superfast",
			"-crf", "30",
			// Fast-start so clips play in the browser without a full
			// download.
			"-movflags", "+faststart",
			path,
		)

		// Allows for debugging ffmpeg in shell.
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr

		pipe, err := c.StdinPipe()
		if err != nil {
			log.Errorf("Clip %v lost, error getting ffmpeg stdin: %v", path, err)
			f.drain()
			return
		}

		if err := c.Start(); err != nil {
			log.Errorf("Clip %v lost, error starting ffmpeg: %v", path, err)
			f.drain()
			return
		}

		var closer chan bool
	loop:
		for {
			select {
			case closer = <-f.close:
				pipe.Close()
				break loop
			case b := <-f.b:
				if _, err := pipe.Write(b); err != nil {
					log.Errorf("Error writing frame to ffmpeg: %v", err)
				}
			}
		}

		log.Debugf("Waiting for ffmpeg shutdown")
		err = c.Wait()
		log.Infof("ffmpeg exit with status %v", err)
		closer <- true // Signal close is completed.
	}()
	return f
}

// drain keeps Put and Close usable after the encoder is gone. Frames are
// discarded; only the clip is lost, never the process.
func (f *FFmpegSink) drain() {
	for {
		select {
		case closer := <-f.close:
			closer <- true
			return
		case <-f.b:
		}
	}
}

func (f *FFmpegSink) Close() {
	c := make(chan bool)
	f.close <- c
	<-c
}

func (f *FFmpegSink) Put(input source.Image) {
	f.b <- input.Mat.ToBytes()
}
