package countdown

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// MaxSeconds is the longest countdown accepted from user input, the largest
// whole number of seconds a time.Duration can hold.
const MaxSeconds = int64(math.MaxInt64 / int64(time.Second))

// Format renders seconds as mm:ss. Minutes are not capped, so 6000 seconds
// renders as "100:00". Negative input renders as "00:00".
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// ParseDuration parses user input into whole seconds. Accepted forms are
// plain seconds ("90"), clock notation ("1:30", "01:02:03") and Go duration
// syntax ("1m30s"). The result must be at least one second.
func ParseDuration(text string) (int, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}

	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return int(n), n > 0 && n <= MaxSeconds
	}

	if strings.Contains(text, ":") {
		return parseClock(text)
	}

	d, err := time.ParseDuration(text)
	if err != nil {
		return 0, false
	}
	seconds := int(d / time.Second)
	return seconds, seconds > 0
}

// parseClock handles mm:ss and hh:mm:ss.
func parseClock(text string) (int, bool) {
	parts := strings.Split(text, ":")
	if len(parts) > 3 {
		return 0, false
	}

	var total int64
	for i, part := range parts {
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil || n < 0 {
			return 0, false
		}
		// Only the leading field may exceed 59.
		if i > 0 && n > 59 {
			return 0, false
		}
		if total > (MaxSeconds-n)/60 {
			return 0, false
		}
		total = total*60 + n
	}
	if total > MaxSeconds {
		return 0, false
	}
	return int(total), total > 0
}
