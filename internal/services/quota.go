package services

import (
	"strings"
	"time"
)

const timestampDateLayout = "2006-01-02"

// QuotaTracker computes how many submissions a user may still make today.
// A record counts against the quota when its timestamp id falls on the
// current calendar day in the serving process's local time zone.
type QuotaTracker struct {
	limit int
	now   func() time.Time
}

func NewQuotaTracker(limit int) *QuotaTracker {
	return &QuotaTracker{limit: limit, now: time.Now}
}

// Remaining returns limit minus the number of records stamped today. An
// empty history yields the full limit.
func (q *QuotaTracker) Remaining(history []ScoreRecord) int {
	ref := q.now().Format(timestampDateLayout)
	remaining := q.limit
	for _, rec := range history {
		if strings.HasPrefix(rec.Timestamp, ref) {
			remaining--
		}
	}
	return remaining
}
