package serve

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"stereocam/video"
)

// FileServer serves one class of clip artifact (video, thumbnail, or video
// thumbnail) addressed by record id.
type FileServer struct {
	FS          *video.Filesystem
	PathFunc    func(r *video.VideoRecord) string
	ContentType string
}

func NewVideoServer(fs *video.Filesystem) *FileServer {
	return &FileServer{
		FS: fs,
		PathFunc: func(r *video.VideoRecord) string {
			return r.Paths().VideoPath
		},
		ContentType: "video/mp4",
	}
}

func NewThumbServer(fs *video.Filesystem) *FileServer {
	return &FileServer{
		FS: fs,
		PathFunc: func(r *video.VideoRecord) string {
			return r.Paths().ThumbPath
		},
		ContentType: "image/jpeg",
	}
}

func NewVThumbServer(fs *video.Filesystem) *FileServer {
	return &FileServer{
		FS: fs,
		PathFunc: func(r *video.VideoRecord) string {
			return r.Paths().VThumbPath
		},
		ContentType: "video/mp4",
	}
}

func (s *FileServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := r.Form.Get("id")
	vr := s.FS.GetRecordByID(id)
	if vr == nil {
		http.Error(w, fmt.Sprintf("No record found for id %v", id), http.StatusNotFound)
		return
	}

	f, err := os.Open(s.PathFunc(vr))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	defer f.Close()

	w.Header().Add("Content-Type", s.ContentType)
	io.Copy(w, f)
}
