package util

import (
	"fmt"
	"os"
	"os/exec"
)

// LocateFFmpeg finds the ffmpeg binary used for clip encoding: $FFMPEG if
// set, otherwise $PATH.
func LocateFFmpeg() (string, error) {
	if p := os.Getenv("FFMPEG"); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("FFMPEG env set but not usable: %w", err)
		}
		return p, nil
	}
	p, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	return p, nil
}
