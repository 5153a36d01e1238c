package inventory

import (
	"math"
	"time"
)

// ExpirationStatus is derived state, recomputed on every read. It is never
// trusted from the persisted is_expired column, which only exists so the
// database can filter on it between sweeps.
type ExpirationStatus struct {
	DaysToExpire int  `json:"days_to_expire"`
	IsExpired    bool `json:"is_expired"`
}

// EvaluateExpiration computes whole-day distance to expiration, truncated
// toward the earlier boundary: an item expiring at 00:01 tomorrow is 0 days
// away today and expired (negative) once the timestamp has passed.
func EvaluateExpiration(expirationDate, now time.Time) ExpirationStatus {
	days := int(math.Floor(expirationDate.Sub(now).Hours() / 24))
	return ExpirationStatus{
		DaysToExpire: days,
		IsExpired:    expirationDate.Before(now),
	}
}

// expiringSoonWindow returns the half-open timestamp range [from, to) that
// contains every item whose DaysToExpire falls in [0, daysAhead], inclusive
// of items expiring later today.
func expiringSoonWindow(now time.Time, daysAhead int) (time.Time, time.Time) {
	return now, now.Add(time.Duration(daysAhead+1) * 24 * time.Hour)
}
