// Package warranty holds the warranty registration aggregate and the lifecycle
// rules that derive coverage dates and status from the clock.
package warranty

import (
	"time"

	"github.com/warrantyhub/backend/internal/domain/shared"
)

// DateLayout is the calendar-date wire format (YYYY-MM-DD)
const DateLayout = "2006-01-02"

// DefaultExpiringSoonDays is the window before the end date in which a
// warranty is reported as expiring soon.
const DefaultExpiringSoonDays = 30

const day = 24 * time.Hour

// Status is the derived coverage state of a registration
type Status string

const (
	StatusActive       Status = "active"
	StatusExpiringSoon Status = "expiring_soon"
	StatusExpired      Status = "expired"
)

// Policy evaluates warranty status against a configurable expiring-soon window
type Policy struct {
	ExpiringSoonDays int
}

// DefaultPolicy uses the 30 day expiring-soon window
var DefaultPolicy = Policy{ExpiringSoonDays: DefaultExpiringSoonDays}

// StatusAt derives the status of a warranty ending at end, as seen at now
func (p Policy) StatusAt(end, now time.Time) Status {
	days := DaysRemaining(end, now)
	switch {
	case days < 0:
		return StatusExpired
	case days <= p.ExpiringSoonDays:
		return StatusExpiringSoon
	default:
		return StatusActive
	}
}

// StatusAt derives status with the default policy
func StatusAt(end, now time.Time) Status {
	return DefaultPolicy.StatusAt(end, now)
}

// DaysRemaining is ceil((end - now) / 1 day). It is negative once the
// warranty has lapsed by at least a full day.
func DaysRemaining(end, now time.Time) int {
	diff := end.Sub(now)
	days := diff / day
	if diff%day > 0 {
		days++
	}
	return int(days)
}

// CalculateEndDate adds months calendar months to purchase. When the purchase
// day does not exist in the target month the result is clamped to that
// month's last day (2024-01-31 + 1 month = 2024-02-29).
func CalculateEndDate(purchase time.Time, months int) time.Time {
	y, m, d := purchase.Date()
	target := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, purchase.Location())
	if last := daysIn(target.Year(), target.Month(), purchase.Location()); d > last {
		d = last
	}
	hh, mm, ss := purchase.Clock()
	return time.Date(target.Year(), target.Month(), d, hh, mm, ss, purchase.Nanosecond(), purchase.Location())
}

// ParseDate parses a YYYY-MM-DD calendar date as UTC midnight
func ParseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, shared.NewDomainError("INVALID_DATE", "Date must be in YYYY-MM-DD format")
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Today truncates now to UTC midnight
func Today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
