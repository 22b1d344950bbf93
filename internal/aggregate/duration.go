package aggregate

import (
	"strings"
	"time"

	"github.com/hako/durafmt"
)

var shortUnits, _ = durafmt.DefaultUnitsCoder.Decode("y:y,w:w,d:d,h:h,m:m,s:s,ms:ms,µs:µs")

// FormatElapsed renders d with its two most significant non-zero units,
// e.g. "2h 15m", "3d 4h", "5m 10s" or "42s". Anything under a second,
// including negative durations, renders as "0s".
func FormatElapsed(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d <= 0 {
		return "0s"
	}
	// durafmt separates values from units; join each pair back up.
	parts := strings.Fields(durafmt.Parse(d).LimitFirstN(2).Format(shortUnits))
	pairs := make([]string, 0, len(parts)/2)
	for i := 0; i+1 < len(parts); i += 2 {
		pairs = append(pairs, parts[i]+parts[i+1])
	}
	return strings.Join(pairs, " ")
}
