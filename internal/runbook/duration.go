package runbook

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

// Duration hints are free text such as "2 minutes" or "1 hour 30 minutes".
// The first number attached to each unit counts; anything else is ignored.
var durationUnits = []struct {
	re   *regexp.Regexp
	unit time.Duration
}{
	{regexp.MustCompile(`(?i)(\d+)\s*(?:seconds?|secs?)\b`), time.Second},
	{regexp.MustCompile(`(?i)(\d+)\s*(?:minutes?|mins?)\b`), time.Minute},
	{regexp.MustCompile(`(?i)(\d+)\s*(?:hours?|hrs?)\b`), time.Hour},
}

// ParseDuration reads a free-text duration hint. Unparseable hints are zero.
func ParseDuration(hint string) time.Duration {
	var total time.Duration
	for _, u := range durationUnits {
		m := u.re.FindStringSubmatch(hint)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		total += time.Duration(n) * u.unit
	}
	return total
}

// TotalDuration sums the estimated duration of every step.
func TotalDuration(steps []Step) time.Duration {
	var total time.Duration
	for _, s := range steps {
		total += ParseDuration(s.EstimatedDuration)
	}
	return total
}

// FormatDuration renders d rounded to whole minutes as "M minutes",
// "H hour(s)" or "H hour(s) M minutes".
func FormatDuration(d time.Duration) string {
	minutes := int(math.Round(d.Minutes()))
	if minutes < 60 {
		return fmt.Sprintf("%d minutes", minutes)
	}

	hours := minutes / 60
	minutes %= 60
	unit := "hours"
	if hours == 1 {
		unit = "hour"
	}
	if minutes > 0 {
		return fmt.Sprintf("%d %s %d minutes", hours, unit, minutes)
	}
	return fmt.Sprintf("%d %s", hours, unit)
}
