package process

import (
	"os"
	"os/exec"

	log "github.com/sirupsen/logrus"

	"stereocam/util"
)

const (
	ExtTemp = ".temp"
)

// VThumbProducer converts recorded clips into short, sped-up preview videos
// on a single worker goroutine.
type VThumbProducer struct {
	c     chan *workItem
	close chan chan bool
}

type workItem struct {
	src, dst string
	donec    chan bool
}

func NewVThumbProducer() *VThumbProducer {
	f := &VThumbProducer{
		c:     make(chan *workItem, 100),
		close: make(chan chan bool, 1),
	}
	go func() {
		for {
			var w *workItem
			select {
			case cc := <-f.close:
				cc <- true
				return
			case w = <-f.c:
			}

			ffmpeg, err := util.LocateFFmpeg()
			if err != nil {
				log.Errorf("Skipping thumbnail conversion for %v, no ffmpeg binary: %v", w.src, err)
				w.donec <- true
				continue
			}

			c := exec.Command(
				ffmpeg,
				"-i", w.src,
				// Thumbnails can be choppy to reduce size.
				"-r", "3",
				"-c:v", "libx264",
				// Speed up video and resize to thumbnail size.
				"-vf", "setpts=0.1*PTS,scale=320:180",
				"-preset", "fast",
				"-crf", "28",
				// Keep CPU usage down. Thumbnail conversion doesn't need
				// to be fast.
				"-threads", "1",
				"-t", "5",
				// Allow playback on a wider range of devices.
				"-pix_fmt", "yuv420p",
				"-profile:v", "baseline",
				"-level", "3.0",
				"-f", "mp4",
				w.dst+ExtTemp,
			)

			// Allows for debugging ffmpeg in shell.
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr

			if err := c.Start(); err != nil {
				log.Errorf("Failed to start thumbnail conversion for %v: %v", w.src, err)
				continue
			}

			wait := make(chan error)
			go func() {
				wait <- c.Wait()
			}()

			select {
			case cc := <-f.close:
				c.Process.Kill()
				cc <- true
				return
			case err := <-wait:
				if err == nil {
					if err := os.Rename(w.dst+ExtTemp, w.dst); err != nil {
						log.Errorf("Error moving thumbnail to its final destination: %v", err)
					} else {
						log.Debugf("Thumbnail conversion succeeded for %v", w.dst)
					}
				} else {
					log.Errorf("Thumbnail conversion failed for %v: %v", w.src, err)
				}
				w.donec <- true
			}
		}
	}()
	return f
}

// Process queues a conversion. The returned channel reports completion, or
// nil if the request was dropped due to backlog.
func (f *VThumbProducer) Process(src, dst string) <-chan bool {
	w := &workItem{
		src:   src,
		dst:   dst,
		donec: make(chan bool),
	}
	select {
	case f.c <- w:
	default:
		log.Warnf("Thumbnail processing dropped due to backlog")
		return nil
	}
	return w.donec
}

func (f *VThumbProducer) Close() {
	c := make(chan bool)
	f.close <- c
	<-c
}
