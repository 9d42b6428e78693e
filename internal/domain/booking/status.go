package booking

import "time"

// DeriveSessionStatus places now relative to the [start, end] window. Both
// bounds count as started.
func DeriveSessionStatus(now, start, end time.Time) SessionStatus {
	switch {
	case now.Before(start):
		return SessionPending
	case now.After(end):
		return SessionCompleted
	default:
		return SessionStarted
	}
}

func (b *Booking) RefreshSessionStatus(now time.Time) {
	b.SessionStatus = DeriveSessionStatus(now, b.StartTime, b.EndTime)
}
