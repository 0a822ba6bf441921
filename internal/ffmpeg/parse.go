package ffmpeg

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// errNoDuration is returned when FFmpeg output carries no usable timestamp.
var errNoDuration = errors.New("could not parse duration from ffmpeg output")

var (
	// Duration: 00:05:23.45 (container header, may be missing or wrong for raw streams)
	durationRe = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+)\.(\d+)`)
	// time=00:05:23.45 (decode statistics, last one is the decoded length)
	timeRe = regexp.MustCompile(`time=(\d+):(\d+):(\d+)\.(\d+)`)
)

// ParseDuration extracts the container duration from FFmpeg stderr,
// falling back to the last decode timestamp.
func ParseDuration(output string) (time.Duration, error) {
	if d, ok := containerDuration(output); ok {
		return d, nil
	}
	if d, ok := decodedDuration(output); ok {
		return d, nil
	}
	return 0, errNoDuration
}

// ParseDecodedDuration extracts the length actually decoded by a
// "-f null -" run, falling back to the container duration. Decoded length is
// preferred because byte slices of an encoded stream often carry headers that
// describe the whole file.
func ParseDecodedDuration(output string) (time.Duration, error) {
	if d, ok := decodedDuration(output); ok {
		return d, nil
	}
	if d, ok := containerDuration(output); ok {
		return d, nil
	}
	return 0, errNoDuration
}

func containerDuration(output string) (time.Duration, bool) {
	m := durationRe.FindStringSubmatch(output)
	if m == nil {
		return 0, false
	}
	return parseTimeComponents(m[1], m[2], m[3], m[4]), true
}

func decodedDuration(output string) (time.Duration, bool) {
	all := timeRe.FindAllStringSubmatch(output, -1)
	if len(all) == 0 {
		return 0, false
	}
	m := all[len(all)-1]
	return parseTimeComponents(m[1], m[2], m[3], m[4]), true
}

// parseTimeComponents converts HH:MM:SS.frac strings to a Duration.
// The fractional part may have any number of digits; it is read as
// milliseconds, truncating extra precision.
func parseTimeComponents(hours, minutes, seconds, fractional string) time.Duration {
	h, _ := strconv.Atoi(hours)
	m, _ := strconv.Atoi(minutes)
	s, _ := strconv.Atoi(seconds)

	if len(fractional) > 3 {
		fractional = fractional[:3]
	}
	fractional += strings.Repeat("0", 3-len(fractional))
	ms, _ := strconv.Atoi(fractional)

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond
}

// lastLines returns at most n trailing non-empty lines of s, for error messages.
func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
