package utils

import (
	"time"

	"cnstock/internal/models"
)

// Session is a phase of the A-share trading day.
type Session string

const (
	SessionClosed    Session = "CLOSED"
	SessionAuction   Session = "AUCTION"
	SessionMorning   Session = "MORNING"
	SessionLunch     Session = "LUNCH_BREAK"
	SessionAfternoon Session = "AFTERNOON"
)

// SessionAt returns the session in effect at t, evaluated in exchange time.
// Holidays are not known and count as trading days.
func SessionAt(t time.Time) Session {
	now := t.In(models.CST)

	// Check if weekend
	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return SessionClosed
	}

	minutes := now.Hour()*60 + now.Minute()
	switch {
	case minutes >= 555 && minutes < 570: // 9:15 - 9:30
		return SessionAuction
	case minutes >= 570 && minutes < 690: // 9:30 - 11:30
		return SessionMorning
	case minutes >= 690 && minutes < 780: // 11:30 - 13:00
		return SessionLunch
	case minutes >= 780 && minutes < 900: // 13:00 - 15:00
		return SessionAfternoon
	}
	return SessionClosed
}

// IsTrading reports whether continuous trading is running at t.
func IsTrading(t time.Time) bool {
	s := SessionAt(t)
	return s == SessionMorning || s == SessionAfternoon
}

// SessionOpen returns the start of the morning or afternoon session on t's
// exchange day.
func SessionOpen(t time.Time, s Session) time.Time {
	now := t.In(models.CST)
	switch s {
	case SessionAfternoon:
		return time.Date(now.Year(), now.Month(), now.Day(), 13, 0, 0, 0, models.CST)
	default:
		return time.Date(now.Year(), now.Month(), now.Day(), 9, 30, 0, 0, models.CST)
	}
}

// SameExchangeDay reports whether a and b fall on the same exchange date.
func SameExchangeDay(a, b time.Time) bool {
	ay, am, ad := a.In(models.CST).Date()
	by, bm, bd := b.In(models.CST).Date()
	return ay == by && am == bm && ad == bd
}
