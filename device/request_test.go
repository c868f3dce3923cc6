package device

import "testing"

func TestDefaultRequestValid(t *testing.T) {
	r := DefaultRequest()
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate failed on default request: %v", err)
	}
	if r.Framerate != 10 {
		t.Errorf("Framerate = %d, want 10", r.Framerate)
	}
	if !r.AutoExposure || !r.AutoWhiteBalance {
		t.Errorf("AE/AWB should default on")
	}
}

func TestValidateFramerate(t *testing.T) {
	r := DefaultRequest()

	r.Framerate = 60
	if err := r.Validate(); err != nil {
		t.Errorf("60 fps should be valid: %v", err)
	}
	r.Framerate = 61
	if err := r.Validate(); err == nil {
		t.Errorf("61 fps should be rejected")
	}
	r.Framerate = -1
	if err := r.Validate(); err == nil {
		t.Errorf("negative fps should be rejected")
	}

	// The widest mode narrows the legal range.
	r.StreamMode = Stream2560x720
	r.Framerate = 30
	if err := r.Validate(); err != nil {
		t.Errorf("30 fps at 2560x720 should be valid: %v", err)
	}
	r.Framerate = 31
	if err := r.Validate(); err == nil {
		t.Errorf("31 fps at 2560x720 should be rejected")
	}
}

func TestValidateIRIntensity(t *testing.T) {
	r := DefaultRequest()
	for _, v := range []int{0, 5, 10} {
		r.IRIntensity = v
		if err := r.Validate(); err != nil {
			t.Errorf("IR intensity %d should be valid: %v", v, err)
		}
	}
	for _, v := range []int{-1, 11} {
		r.IRIntensity = v
		if err := r.Validate(); err == nil {
			t.Errorf("IR intensity %d should be rejected", v)
		}
	}
}

func TestSupports(t *testing.T) {
	tests := []struct {
		mode   DeviceMode
		stream StreamMode
		s      Stream
		want   bool
	}{
		{ModeAll, Stream1280x480, StreamLeftColor, true},
		{ModeAll, Stream1280x480, StreamRightColor, true},
		{ModeAll, Stream1280x480, StreamDepth, true},

		// Single-eye modes have no right image and no stereo depth.
		{ModeAll, Stream640x480, StreamLeftColor, true},
		{ModeAll, Stream640x480, StreamRightColor, false},
		{ModeAll, Stream640x480, StreamDepth, false},
		{ModeAll, Stream1280x720, StreamRightColor, false},

		{ModeColor, Stream1280x480, StreamLeftColor, true},
		{ModeColor, Stream1280x480, StreamRightColor, true},
		{ModeColor, Stream1280x480, StreamDepth, false},

		{ModeDepth, Stream1280x480, StreamLeftColor, false},
		{ModeDepth, Stream1280x480, StreamRightColor, false},
		{ModeDepth, Stream1280x480, StreamDepth, true},

		{ModeAll, Stream2560x720, StreamRightColor, true},
		{ModeAll, Stream2560x720, StreamDepth, true},
	}
	for _, tc := range tests {
		r := DefaultRequest()
		r.Mode = tc.mode
		r.StreamMode = tc.stream
		if got := r.Supports(tc.s); got != tc.want {
			t.Errorf("Supports(%v) with mode %v stream mode %v = %v, want %v",
				tc.s, tc.mode, tc.stream, got, tc.want)
		}
	}
}
