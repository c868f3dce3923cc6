package process

import (
	"image"
	"os"

	"gocv.io/x/gocv"

	"stereocam/video/source"
)

// WriteThumb saves a small JPEG preview of the trigger frame for a clip.
func WriteThumb(path string, input source.Image) error {
	tmat := gocv.NewMat()
	defer tmat.Close()
	gocv.Resize(input.Mat, &tmat, image.Point{X: 230, Y: 135}, 0, 0, gocv.InterpolationCubic)

	jpeg, err := gocv.IMEncode(".jpg", tmat)
	if err != nil {
		return err
	}

	return os.WriteFile(path, jpeg, 0644)
}
