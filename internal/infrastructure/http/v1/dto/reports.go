package dto

import "time"

// ReportRangeQuery is the period of a report. Empty bounds fall back to the
// 30 days ending today.
type ReportRangeQuery struct {
	DateRangeQuery
}

// DailyQuery selects one day; empty means today.
type DailyQuery struct {
	Date string `form:"date"`
}

// Day parses the requested day.
func (q DailyQuery) Day() (*time.Time, error) {
	return ParseDate("date", q.Date)
}
