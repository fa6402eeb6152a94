package coerce

import (
	"math"
	"strings"
	"time"
)

// layouts are tried in order. Layouts without a zone parse as UTC.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-0700",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	time.DateOnly,
	"2006/01/02 15:04:05",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"2006-01",
}

// ParseDatetime parses s into a naive (UTC) instant. Strings carrying an
// offset are converted to UTC.
func ParseDatetime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FromEpoch interprets n as a Unix timestamp, choosing the unit by
// magnitude: seconds below 1e11, milliseconds below 1e14, microseconds
// below 1e17, nanoseconds otherwise.
func FromEpoch(n int64) time.Time {
	abs := n
	if abs < 0 {
		abs = -abs
		if abs < 0 { // math.MinInt64
			abs = math.MaxInt64
		}
	}
	switch {
	case abs < 1e11:
		return time.Unix(n, 0).UTC()
	case abs < 1e14:
		return time.UnixMilli(n).UTC()
	case abs < 1e17:
		return time.UnixMicro(n).UTC()
	default:
		return time.Unix(0, n).UTC()
	}
}

func toDatetime(v any) (any, bool) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), true
	case int64:
		return FromEpoch(x), true
	case float64:
		// beyond int64 an epoch has no instant to convert to
		if math.IsNaN(x) || math.Abs(x) >= 9.2e18 || x != math.Trunc(x) && math.Abs(x) >= 1e11 {
			return nil, false
		}
		if x == math.Trunc(x) {
			return FromEpoch(int64(x)), true
		}
		sec, frac := math.Modf(x)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
	case string:
		t, ok := ParseDatetime(x)
		if !ok {
			return nil, false
		}
		return t, true
	}
	return nil, false
}
