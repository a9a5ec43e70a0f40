package market

import "time"

// NextFriday returns the next Friday on or after base, as YYYY-MM-DD.
func NextFriday(base time.Time) string {
	base = base.UTC()
	ahead := (int(time.Friday) - int(base.Weekday()) + 7) % 7
	return base.AddDate(0, 0, ahead).Format("2006-01-02")
}

// NextFridays returns the next n Friday dates strictly after base, weekly
// spaced, as YYYY-MM-DD strings.
func NextFridays(base time.Time, n int) []string {
	if n < 1 {
		n = 1
	}
	base = base.UTC()
	ahead := (int(time.Friday) - int(base.Weekday()) + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	first := base.AddDate(0, 0, ahead)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, first.AddDate(0, 0, 7*i).Format("2006-01-02"))
	}
	return out
}
