package types

import "time"

// DateLayout is the calendar date format used by the history endpoint and the
// CSV output.
const DateLayout = "2006-01-02"

// Record is the average temperature of one city on one calendar day.
type Record struct {
	City     string    `json:"city"`
	Date     time.Time `json:"date"` // UTC midnight
	AvgTempC float64   `json:"avg_temp"`
}

// Window is an inclusive range of calendar days.
type Window struct {
	Start time.Time
	End   time.Time
}

// WindowEndingAt returns the window [day(now)-days, day(now)].
func WindowEndingAt(now time.Time, days int) Window {
	end := Day(now)
	return Window{Start: end.AddDate(0, 0, -days), End: end}
}

// Days lists every day of the window in ascending order.
func (w Window) Days() []time.Time {
	var out []time.Time
	end := Day(w.End)
	for d := Day(w.Start); !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// Day truncates t to its calendar date, expressed as UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
