package calendar

import "errors"

var (
	ErrInvalidDate     = errors.New("calendar: invalid date")
	ErrInvalidMonth    = errors.New("calendar: invalid month")
	ErrDateUnavailable = errors.New("calendar: date is not available")
	ErrSlotTaken       = errors.New("calendar: date already booked or blocked")
	ErrSlotBooked      = errors.New("calendar: date is booked")
	ErrSlotNotBlocked  = errors.New("calendar: date is not blocked")
)
