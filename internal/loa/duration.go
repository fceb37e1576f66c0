package loa

import (
	"regexp"
	"strconv"
)

const secondsPerDay = 86400

var durationPattern = regexp.MustCompile(`(?i)^(\d+)([dw])$`)

// parseDurationSeconds turns a duration expression into seconds. The grammar
// is <integer><d|w> case-insensitive; a bare integer counts as days. Anything
// unparseable yields zero, which gives the request a zero-length range rather
// than failing it.
func parseDurationSeconds(expr string) int64 {
	if m := durationPattern.FindStringSubmatch(expr); m != nil {
		val, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0
		}
		switch m[2] {
		case "d", "D":
			return val * secondsPerDay
		case "w", "W":
			return val * 7 * secondsPerDay
		}
	}
	if n, err := strconv.ParseInt(expr, 10, 64); err == nil {
		return n * secondsPerDay
	}
	return 0
}
