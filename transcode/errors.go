package transcode

import (
	"fmt"
	"strings"
	"time"
)

// UnsupportedFormatError is returned for PCM WAV data whose sample width is
// not one of 8, 16 or 32 bits.
type UnsupportedFormatError struct {
	BitDepth int
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported PCM sample width: %d bits (supported: 8, 16, 32)", e.BitDepth)
}

// TranscodeError is returned when the external transcoder is missing or
// exits with a non-zero status. Stderr holds whatever the tool printed.
type TranscodeError struct {
	Tool   string
	Stderr string
	Err    error
}

func (e *TranscodeError) Error() string {
	msg := fmt.Sprintf("transcode with %s failed: %v", e.Tool, e.Err)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}

// DurationLimitError is returned for signals longer than the configured cap
type DurationLimitError struct {
	Duration time.Duration
	Limit    time.Duration
}

func (e *DurationLimitError) Error() string {
	return fmt.Sprintf("audio duration %.2fs exceeds limit of %.2fs", e.Duration.Seconds(), e.Limit.Seconds())
}

// CheckDuration returns a *DurationLimitError when numSamples at sampleRate
// lasts longer than limit. A non-positive limit disables the check.
func CheckDuration(numSamples, sampleRate int, limit time.Duration) error {
	if limit <= 0 || sampleRate <= 0 {
		return nil
	}

	duration := SamplesToDuration(numSamples, sampleRate)
	if duration > limit {
		return &DurationLimitError{Duration: duration, Limit: limit}
	}
	return nil
}

// SamplesToDuration converts a mono sample count to a duration
func SamplesToDuration(numSamples, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(numSamples) / float64(sampleRate) * float64(time.Second))
}
