package config

import (
	"os"
	"path/filepath"
	"testing"

	"stereocam/device"
)

func TestRequestDefaults(t *testing.T) {
	req, err := Default().Request()
	if err != nil {
		t.Fatalf("Request failed on defaults: %v", err)
	}
	if req.Mode != device.ModeAll {
		t.Errorf("Mode = %v, want all", req.Mode)
	}
	if req.StreamMode != device.Stream1280x480 {
		t.Errorf("StreamMode = %v, want 1280x480", req.StreamMode)
	}
	if !req.AutoExposure || !req.AutoWhiteBalance {
		t.Errorf("AE/AWB should default on")
	}
	if req.Framerate != 10 {
		t.Errorf("Framerate = %d, want 10", req.Framerate)
	}
}

func TestRequestMapping(t *testing.T) {
	c := Default()
	c.DeviceMode = "color"
	c.StreamMode = "2560x720"
	c.ColorMode = "rectified"
	c.DepthMode = "gray"
	c.Framerate = 30
	c.DisableAutoExposure = true

	req, err := c.Request()
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if req.Mode != device.ModeColor {
		t.Errorf("Mode = %v, want color", req.Mode)
	}
	if req.StreamMode != device.Stream2560x720 {
		t.Errorf("StreamMode = %v, want 2560x720", req.StreamMode)
	}
	if req.ColorMode != device.ColorRectified {
		t.Errorf("ColorMode = %v, want rectified", req.ColorMode)
	}
	if req.DepthMode != device.DepthGray {
		t.Errorf("DepthMode = %v, want gray", req.DepthMode)
	}
	if req.AutoExposure {
		t.Errorf("AutoExposure should be off")
	}
	if !req.AutoWhiteBalance {
		t.Errorf("AutoWhiteBalance should stay on")
	}
}

func TestRequestRejectsUnknownMode(t *testing.T) {
	c := Default()
	c.DeviceMode = "infrared"
	if _, err := c.Request(); err == nil {
		t.Errorf("unknown device mode accepted")
	}

	c = Default()
	c.StreamMode = "800x600"
	if _, err := c.Request(); err == nil {
		t.Errorf("unknown stream mode accepted")
	}
}

func TestRequestRejectsIllegalFramerate(t *testing.T) {
	c := Default()
	c.StreamMode = "2560x720"
	c.Framerate = 60
	if _, err := c.Request(); err == nil {
		t.Errorf("60 fps at 2560x720 accepted")
	}
}

func TestConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereocam.json")
	body := `{"URI": "/dev/video2", "Framerate": 25, "HTTPPort": 9000}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := configFromFile(path)
	if err != nil {
		t.Fatalf("configFromFile failed: %v", err)
	}
	if c.URI != "/dev/video2" {
		t.Errorf("URI = %q", c.URI)
	}
	if c.Framerate != 25 {
		t.Errorf("Framerate = %d, want 25", c.Framerate)
	}
	if c.HTTPPort != 9000 {
		t.Errorf("HTTPPort = %d, want 9000", c.HTTPPort)
	}
	// Fields absent from the file keep their defaults.
	if c.IMURate != Default().IMURate {
		t.Errorf("IMURate = %d, want default %d", c.IMURate, Default().IMURate)
	}
}

func TestConfigFromFileMissing(t *testing.T) {
	_, err := configFromFile(filepath.Join(t.TempDir(), "absent.json"))
	if !os.IsNotExist(err) {
		t.Errorf("expected a not-exist error, got %v", err)
	}
}
