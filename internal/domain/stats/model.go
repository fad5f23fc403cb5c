package stats

import "time"

// dateLayout renders a calendar date the way the day-rollover check compares it.
const dateLayout = "Mon Jan 02 2006"

// Stats are the running vote counters.
type Stats struct {
	TotalVotes int64 `json:"totalVotes"`
	TodayVotes int64 `json:"todayVotes"`
	// WeekVotes is never reset by a week boundary, only by ResetAll.
	WeekVotes     int64  `json:"weekVotes"`
	LastResetDate string `json:"lastResetDate"`
}

// CalendarDate returns the local calendar date of t.
func CalendarDate(t time.Time) string {
	return t.Local().Format(dateLayout)
}
