package errors

// MaxDimension is the largest accepted frame edge, in pixels. 8K is far
// beyond what the encoder defaults handle gracefully, so anything larger is
// assumed to be a typo.
const MaxDimension = 7680

// ValidateResolution checks that a target resolution is usable for video
// encoding. Both dimensions must be positive, even (a yuv420p requirement:
// chroma is subsampled 2x2, so odd dimensions are rejected by the encoder),
// and within MaxDimension.
func ValidateResolution(width, height int) error {
	for _, d := range []struct {
		name  string
		value int
	}{{"width", width}, {"height", height}} {
		if d.value <= 0 {
			return New(ErrCodeInvalidResolution, "%s must be positive, got %d", d.name, d.value)
		}
		if d.value%2 != 0 {
			return New(ErrCodeInvalidResolution, "%s must be even for yuv420p output, got %d", d.name, d.value)
		}
		if d.value > MaxDimension {
			return New(ErrCodeInvalidResolution, "%s exceeds maximum of %d, got %d", d.name, MaxDimension, d.value)
		}
	}
	return nil
}

// ValidateFrameRate checks that fps is within a sane encoding range.
func ValidateFrameRate(fps int) error {
	if fps < 1 || fps > 120 {
		return New(ErrCodeInvalidFrameRate, "frame rate must be between 1 and 120, got %d", fps)
	}
	return nil
}

// ValidateDuration checks an explicit duration override, in seconds.
// Zero means "not set" and is accepted (the pipeline derives a duration
// from the commit count instead).
func ValidateDuration(secs int) error {
	if secs < 0 {
		return New(ErrCodeInvalidInput, "duration must not be negative, got %d", secs)
	}
	return nil
}
