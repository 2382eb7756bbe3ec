package services

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTimestamp is returned when a play time cannot be parsed
var ErrInvalidTimestamp = errors.New("invalid timestamp format")

var (
	fullTimestampPattern  = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{1,2})(?:\.(\d{1,3}))?$`)
	shortTimestampPattern = regexp.MustCompile(`^(\d{1,2})(?:\.(\d{1,3}))?$`)
)

// ParsePlayTime parses an advance-bet play time relative to the cycle start.
//
// Accepted forms are hh:mm:ss.SSS, hh:mm:ss, ss.SSS and ss. The short forms take
// the hour and minute of the cycle start. Fractions are read as milliseconds, so
// "3.45" means 3 seconds 450 milliseconds. All values are interpreted on the
// cycle's calendar date in loc.
func ParsePlayTime(input string, cycleStart time.Time, loc *time.Location) (time.Time, error) {
	input = strings.TrimSpace(input)
	start := cycleStart.In(loc)

	var hour, minute, second, millis int
	var err error

	if m := fullTimestampPattern.FindStringSubmatch(input); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		second, _ = strconv.Atoi(m[3])
		millis, err = parseMillis(m[4])
	} else if m := shortTimestampPattern.FindStringSubmatch(input); m != nil {
		hour, minute = start.Hour(), start.Minute()
		second, _ = strconv.Atoi(m[1])
		millis, err = parseMillis(m[2])
	} else {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, input)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, input)
	}

	if hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, fmt.Errorf("%w: %q is out of range", ErrInvalidTimestamp, input)
	}

	return time.Date(start.Year(), start.Month(), start.Day(), hour, minute, second, millis*int(time.Millisecond), loc).UTC(), nil
}

// parseMillis right-pads a fraction to three digits
func parseMillis(fraction string) (int, error) {
	if fraction == "" {
		return 0, nil
	}
	padded := fraction + strings.Repeat("0", 3-len(fraction))
	return strconv.Atoi(padded)
}

// FormatPlayTime renders an instant as hh:mm:ss.SSS in loc
func FormatPlayTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("15:04:05.000")
}
