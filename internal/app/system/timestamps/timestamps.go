// Package timestamps formats creation times for reference entries.
package timestamps

import "time"

// Layout is wall-clock time in IST with nanosecond precision and no zone
// suffix, e.g. 2025-09-17T08:30:45.912124364.
const Layout = "2006-01-02T15:04:05.000000000"

// IST is India Standard Time. It has no DST, so a fixed zone avoids a
// dependency on the host's tzdata.
var IST = time.FixedZone("IST", 5*60*60+30*60)

// Format renders t in IST using Layout.
func Format(t time.Time) string {
	return t.In(IST).Format(Layout)
}

// NowIST returns the current time formatted with Format.
func NowIST() string {
	return Format(time.Now())
}

// Parse reads a value produced by Format.
func Parse(s string) (time.Time, error) {
	return time.ParseInLocation(Layout, s, IST)
}
