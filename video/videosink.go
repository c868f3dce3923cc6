package video

import (
	log "github.com/sirupsen/logrus"

	"stereocam/video/process"
	"stereocam/video/sink"
	"stereocam/video/source"
)

// RecordListener is told when clips start and finish, e.g. to send
// notifications.
type RecordListener interface {
	RecordStarted(vr *VideoRecord)
	RecordStopped(vr *VideoRecord)
}

// VideoSinkProducer builds the sink chain for one recorded clip: ffmpeg
// encode behind FPS normalization, with thumbnail generation on the side.
type VideoSinkProducer struct {
	FFmpegOptions  sink.FFmpegOptions
	Filesystem     *Filesystem
	VThumbProducer *process.VThumbProducer
	Listeners      []RecordListener
}

type sinkWrap struct {
	sink sink.Sink
	vr   *VideoRecord

	p *VideoSinkProducer
}

// New opens a clip keyed by the trigger frame's time. The producer takes
// ownership of the trigger image, using it for the clip thumbnail.
func (p *VideoSinkProducer) New(trigger source.Image) sink.Sink {
	r := p.Filesystem.NewRecord(trigger.Time)

	go func() {
		defer trigger.Release()
		if trigger.Mat.Empty() {
			return
		}
		path := r.Paths().ThumbPath
		if err := process.WriteThumb(path, trigger); err != nil {
			log.Errorf("Failed to generate thumbnail: %v", err)
			return
		}
		log.Infof("Thumbnail written to %v", path)
		r.UpdateThumb()
	}()

	for _, l := range p.Listeners {
		go l.RecordStarted(r)
	}

	var s sink.Sink
	s = sink.NewFFmpegSink(r.Paths().VideoPath, p.FFmpegOptions)
	// Ensure video is output with constant FPS.
	s = sink.NewFPSNormalize(s, p.FFmpegOptions.FPS)

	return &sinkWrap{
		sink: s,
		vr:   r,
		p:    p,
	}
}

func (w *sinkWrap) Put(i source.Image) {
	w.sink.Put(i)
}

func (w *sinkWrap) Close() {
	w.sink.Close()
	w.vr.UpdateVideo()

	// Create video thumbnail.
	paths := w.vr.Paths()
	c := w.p.VThumbProducer.Process(paths.VideoPath, paths.VThumbPath)
	go func() {
		if c != nil {
			<-c
			w.vr.UpdateVThumb()
		}
		for _, l := range w.p.Listeners {
			l.RecordStopped(w.vr)
		}
	}()
}
