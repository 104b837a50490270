package entities

import (
	"fmt"
	"time"

	"btc-price-service/internal/domain/apperror"
)

// DefaultMaxHistoryRange is the longest history window served in one request.
const DefaultMaxHistoryRange = 90 * 24 * time.Hour

// TimeRange is an inclusive [Start, End] window in UTC.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange validates ordering and span. Equal bounds are valid.
// maxSpan <= 0 disables the span check.
func NewTimeRange(start, end time.Time, maxSpan time.Duration) (TimeRange, error) {
	start, end = start.UTC(), end.UTC()

	if end.Before(start) {
		return TimeRange{}, apperror.Validation("End time must be after start time")
	}
	if maxSpan > 0 && end.Sub(start) > maxSpan {
		return TimeRange{}, apperror.Validation(fmt.Sprintf("Time range cannot exceed %s", humanDays(maxSpan)))
	}

	return TimeRange{Start: start, End: end}, nil
}

// Contains reports whether t falls inside the inclusive window
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

func humanDays(d time.Duration) string {
	days := d / (24 * time.Hour)
	if days*24*time.Hour == d {
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	return d.String()
}
