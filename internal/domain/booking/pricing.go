package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultDPWindow = 72 * time.Hour

var hundred = decimal.NewFromInt(100)

// DPAmount is ceil(total * percentage / 100) computed exactly. Never negative.
func DPAmount(total int64, percentage int) int64 {
	if total <= 0 || percentage <= 0 {
		return 0
	}
	return decimal.NewFromInt(total).
		Mul(decimal.NewFromInt(int64(percentage))).
		Div(hundred).
		Ceil().
		IntPart()
}

// DPDeadline is invoiceAt plus the payment window. It is an absolute instant, so
// the distance to invoiceAt does not depend on the time zone.
func DPDeadline(invoiceAt time.Time, window time.Duration) time.Time {
	if window <= 0 {
		window = DefaultDPWindow
	}
	return invoiceAt.Add(window)
}
