package video

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pillash/mp4util"
	log "github.com/sirupsen/logrus"
)

const (
	ExtVideo  = "_video.mp4"
	ExtThumb  = "_thumb.jpg"
	ExtVThumb = "_vthumb.mp4"

	// FileTimeLayout defines the format of clip identifiers and filenames.
	// See https://golang.org/src/time/format.go.
	FileTimeLayout = "20060102-150405-Z0700"
)

// FilesystemListener is notified whenever the set of records changes.
type FilesystemListener interface {
	FilesystemUpdated()
}

type FilesystemOptions struct {
	BasePath string

	// MaxSize of all clips in bytes. The oldest clips are garbage
	// collected once the total exceeds it. Zero disables GC.
	MaxSize int64
}

type RecordPaths struct {
	VideoPath  string
	ThumbPath  string
	VThumbPath string
}

// VideoRecord is one recorded clip and its sidecar files.
type VideoRecord struct {
	Identifier  string
	TriggeredAt time.Time

	HaveVideo  bool
	HaveThumb  bool
	HaveVThumb bool

	// Size of the clip file in bytes.
	Size int64

	VideoDurationSec int

	fs *Filesystem
}

func (r *VideoRecord) Paths() RecordPaths {
	base := filepath.Join(r.fs.opts.BasePath, r.Identifier)
	return RecordPaths{
		VideoPath:  base + ExtVideo,
		ThumbPath:  base + ExtThumb,
		VThumbPath: base + ExtVThumb,
	}
}

// UpdateVideo refreshes record state after the clip file has been written.
func (r *VideoRecord) UpdateVideo() {
	p := r.Paths().VideoPath
	fi, err := os.Stat(p)
	if err != nil {
		log.Errorf("Recorded clip missing from disk: %v", err)
		return
	}
	dur, err := mp4util.Duration(p)
	if err != nil {
		log.Warnf("Unable to probe clip duration for %v: %v", p, err)
		dur = 0
	}

	r.fs.l.Lock()
	r.HaveVideo = true
	r.Size = fi.Size()
	r.VideoDurationSec = dur
	r.fs.l.Unlock()

	r.fs.gc()
	r.fs.notifyUpdated()
}

func (r *VideoRecord) UpdateThumb() {
	r.fs.l.Lock()
	r.HaveThumb = true
	r.fs.l.Unlock()
	r.fs.notifyUpdated()
}

func (r *VideoRecord) UpdateVThumb() {
	r.fs.l.Lock()
	r.HaveVThumb = true
	r.fs.l.Unlock()
	r.fs.notifyUpdated()
}

// Delete removes the clip and its sidecar files.
func (r *VideoRecord) Delete() {
	paths := r.Paths()
	for _, p := range []string{paths.VideoPath, paths.ThumbPath, paths.VThumbPath} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.Errorf("Failed to remove %v: %v", p, err)
		}
	}

	r.fs.l.Lock()
	delete(r.fs.records, r.Identifier)
	r.fs.l.Unlock()

	log.Infof("Deleted clip %v", r.Identifier)
	r.fs.notifyUpdated()
}

// Filesystem is the on-disk store of recorded clips.
type Filesystem struct {
	// Listeners receive update notifications, e.g. for websocket pushes.
	Listeners []FilesystemListener

	opts    FilesystemOptions
	records map[string]*VideoRecord
	l       sync.Mutex
}

func NewFilesystem(opts FilesystemOptions) (*Filesystem, error) {
	if err := os.MkdirAll(opts.BasePath, 0755); err != nil {
		return nil, err
	}
	f := &Filesystem{
		opts:    opts,
		records: make(map[string]*VideoRecord),
	}
	if err := f.refresh(); err != nil {
		return nil, err
	}
	return f, nil
}

// refresh rebuilds the record set from the files on disk.
func (f *Filesystem) refresh() error {
	files, err := os.ReadDir(f.opts.BasePath)
	if err != nil {
		return err
	}

	f.l.Lock()
	defer f.l.Unlock()
	for _, file := range files {
		b := file.Name()
		if len(b) < len(FileTimeLayout) {
			continue
		}
		id := b[:len(FileTimeLayout)]
		t, err := time.Parse(FileTimeLayout, id)
		if err != nil {
			continue
		}

		v := f.records[id]
		if v == nil {
			v = &VideoRecord{
				Identifier:  id,
				TriggeredAt: t,
				fs:          f,
			}
			f.records[id] = v
		}

		p := filepath.Join(f.opts.BasePath, b)
		switch {
		case strings.HasSuffix(b, ExtVideo):
			v.HaveVideo = true
			if fi, err := os.Stat(p); err == nil {
				v.Size = fi.Size()
			}
			if dur, err := mp4util.Duration(p); err == nil {
				v.VideoDurationSec = dur
			}
		case strings.HasSuffix(b, ExtThumb):
			v.HaveThumb = true
		case strings.HasSuffix(b, ExtVThumb):
			v.HaveVThumb = true
		}
	}
	return nil
}

// NewRecord registers a record for a clip triggered at the given time.
func (f *Filesystem) NewRecord(t time.Time) *VideoRecord {
	v := &VideoRecord{
		Identifier:  t.Format(FileTimeLayout),
		TriggeredAt: t,
		fs:          f,
	}
	f.l.Lock()
	f.records[v.Identifier] = v
	f.l.Unlock()
	f.notifyUpdated()
	return v
}

// GetRecords returns all records, newest first.
func (f *Filesystem) GetRecords() []*VideoRecord {
	f.l.Lock()
	defer f.l.Unlock()
	records := make([]*VideoRecord, 0, len(f.records))
	for _, v := range f.records {
		records = append(records, v)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].TriggeredAt.After(records[j].TriggeredAt)
	})
	return records
}

func (f *Filesystem) GetRecordByID(id string) *VideoRecord {
	f.l.Lock()
	defer f.l.Unlock()
	return f.records[id]
}

// TotalSize returns the combined clip size in bytes.
func (f *Filesystem) TotalSize() int64 {
	f.l.Lock()
	defer f.l.Unlock()
	var sz int64
	for _, v := range f.records {
		sz += v.Size
	}
	return sz
}

// gc deletes the oldest clips until the store fits MaxSize again.
func (f *Filesystem) gc() {
	if f.opts.MaxSize <= 0 {
		return
	}
	for f.TotalSize() > f.opts.MaxSize {
		records := f.GetRecords()
		oldest := records[len(records)-1]
		log.Infof("Garbage collecting clip %v to reclaim %d bytes", oldest.Identifier, oldest.Size)
		oldest.Delete()
	}
}

func (f *Filesystem) notifyUpdated() {
	for _, l := range f.Listeners {
		go l.FilesystemUpdated()
	}
}
