package lorepo

import (
	"strconv"
	"time"
)

// NowMillis returns the current time as string epoch milliseconds, the wire
// format used for learning object last-modified dates.
func NowMillis() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

// MillisToTime converts a string epoch-milliseconds timestamp back to a
// time.Time. Returns the zero time for unparsable input.
func MillisToTime(millis string) time.Time {
	n, err := strconv.ParseInt(millis, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(n)
}
