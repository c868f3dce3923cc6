package device

import (
	"strings"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
)

func TestOpenWarnsUnsupportedOptions(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	r := DefaultRequest()
	r.ColorMode = ColorRectified
	r.IRIntensity = 5
	cam := NewCamera(CameraOptions{URI: "/nonexistent/capture.mp4", Request: r})
	if err := cam.Open(); err == nil {
		cam.Close()
		t.Fatalf("Open succeeded on a nonexistent source")
	}

	var rectified, infrared bool
	for _, e := range hook.AllEntries() {
		if strings.Contains(e.Message, "rectified") {
			rectified = true
		}
		if strings.Contains(e.Message, "Infrared") {
			infrared = true
		}
	}
	if !rectified {
		t.Errorf("no warning for the rectified color fallback")
	}
	if !infrared {
		t.Errorf("no warning for the ignored infrared intensity")
	}
}

func TestOpenIRZeroSilent(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	cam := NewCamera(CameraOptions{URI: "/nonexistent/capture.mp4", Request: DefaultRequest()})
	if err := cam.Open(); err == nil {
		cam.Close()
		t.Fatalf("Open succeeded on a nonexistent source")
	}

	for _, e := range hook.AllEntries() {
		if strings.Contains(e.Message, "Infrared") {
			t.Errorf("infrared warning logged for the default intensity 0")
		}
	}
}
