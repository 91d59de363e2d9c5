package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "bad value: %d", 42)

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("code = %s, want %s", err.Code, ErrCodeInvalidInput)
	}
	if err.Message != "bad value: 42" {
		t.Errorf("message = %q, want %q", err.Message, "bad value: 42")
	}
	if err.Cause != nil {
		t.Errorf("cause should be nil, got %v", err.Cause)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("pipe closed")
	err := Wrap(ErrCodeEncoderFailed, cause, "ffmpeg exited")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match its cause via errors.Is")
	}
	if !strings.Contains(err.Error(), "pipe closed") {
		t.Errorf("Error() should include cause, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), string(ErrCodeEncoderFailed)) {
		t.Errorf("Error() should include code, got %q", err.Error())
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"matching code", New(ErrCodeEmptyHistory, "no commits"), ErrCodeEmptyHistory, true},
		{"different code", New(ErrCodeEmptyHistory, "no commits"), ErrCodeRenderFailed, false},
		{"wrapped in fmt", fmt.Errorf("context: %w", New(ErrCodeFileNotFound, "gone")), ErrCodeFileNotFound, true},
		{"plain error", stderrors.New("plain"), ErrCodeInternal, false},
		{"nil", nil, ErrCodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeInvalidResolution, "odd width")); got != ErrCodeInvalidResolution {
		t.Errorf("GetCode = %s, want %s", got, ErrCodeInvalidResolution)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode on plain error = %s, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeInvalidFrameRate, "frame rate must be between 1 and 120, got 500")
	if got := UserMessage(err); got != "frame rate must be between 1 and 120, got 500" {
		t.Errorf("UserMessage = %q", got)
	}

	plain := stderrors.New("something broke")
	if got := UserMessage(plain); got != "something broke" {
		t.Errorf("UserMessage on plain error = %q", got)
	}
}

func TestValidateResolution(t *testing.T) {
	tests := []struct {
		name     string
		w, h     int
		wantCode Code
	}{
		{"valid 1080p", 1920, 1080, ""},
		{"valid small", 640, 480, ""},
		{"zero width", 0, 1080, ErrCodeInvalidResolution},
		{"negative height", 1920, -2, ErrCodeInvalidResolution},
		{"odd width", 1921, 1080, ErrCodeInvalidResolution},
		{"odd height", 1920, 1081, ErrCodeInvalidResolution},
		{"too large", MaxDimension + 2, 1080, ErrCodeInvalidResolution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResolution(tt.w, tt.h)
			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !Is(err, tt.wantCode) {
				t.Errorf("expected %s, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestValidateFrameRate(t *testing.T) {
	for _, fps := range []int{1, 30, 120} {
		if err := ValidateFrameRate(fps); err != nil {
			t.Errorf("fps %d: unexpected error %v", fps, err)
		}
	}
	for _, fps := range []int{0, -1, 121} {
		if !Is(ValidateFrameRate(fps), ErrCodeInvalidFrameRate) {
			t.Errorf("fps %d: expected INVALID_FRAME_RATE", fps)
		}
	}
}

func TestValidateDuration(t *testing.T) {
	if err := ValidateDuration(0); err != nil {
		t.Errorf("zero duration means unset, got %v", err)
	}
	if err := ValidateDuration(90); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !Is(ValidateDuration(-5), ErrCodeInvalidInput) {
		t.Error("negative duration should be rejected")
	}
}
