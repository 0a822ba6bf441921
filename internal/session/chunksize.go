package session

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// leadingNumber matches the numeric prefix of a chunk size entry, so
// "4.5 MB" reads as 4.5.
var leadingNumber = regexp.MustCompile(`^\s*[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseChunkSize reads a chunk size in megabytes from user input.
// Entries that are not numbers, not finite or below floor yield floor.
func ParseChunkSize(input string, floor float64) float64 {
	m := strings.TrimSpace(leadingNumber.FindString(input))
	if m == "" {
		return floor
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < floor {
		return floor
	}
	return v
}
