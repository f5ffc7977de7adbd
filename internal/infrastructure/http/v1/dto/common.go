// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"retailpos/internal/core/apperror"
	"retailpos/internal/domain"
)

// DateLayout is the calendar-date format of query parameters.
const DateLayout = "2006-01-02"

// PageQuery contains pagination parameters.
type PageQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// Page converts the query to a domain page.
func (q PageQuery) Page() domain.Page {
	return domain.Page{Limit: q.Limit, Offset: q.Offset}.Normalize()
}

// DateRangeQuery is an optional inclusive [from, to] pair of calendar dates.
type DateRangeQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}

// Dates parses both bounds; empty values stay nil.
func (q DateRangeQuery) Dates() (from, to *time.Time, err error) {
	if from, err = ParseDate("from", q.From); err != nil {
		return nil, nil, err
	}
	if to, err = ParseDate("to", q.To); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

// Bounds returns the half-open [from, to+1 day) timestamps for listing filters.
func (q DateRangeQuery) Bounds() (start, end *time.Time, err error) {
	from, to, err := q.Dates()
	if err != nil {
		return nil, nil, err
	}
	if to != nil {
		next := to.AddDate(0, 0, 1)
		to = &next
	}
	return from, to, nil
}

// ParseDate parses a YYYY-MM-DD value. Empty input yields nil.
func ParseDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return nil, apperror.NewValidation("dates must be formatted as YYYY-MM-DD").
			WithDetail("field", field).
			WithDetail("value", value)
	}
	return &t, nil
}

// SuccessResponse is a generic acknowledgement.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
