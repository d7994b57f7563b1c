package booking

import (
	"fmt"
	"time"
)

var statusLabels = map[Status]string{
	StatusInvoiceGenerated:    "Menunggu Pembayaran",
	StatusWaitingVerification: "Menunggu Verifikasi",
	StatusDPApproved:          "DP Disetujui",
	StatusDPRejected:          "DP Ditolak",
	StatusCancelled:           "Dibatalkan",
}

func StatusLabel(s Status) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// RemainingTime renders the time left until deadline in Indonesian.
func RemainingTime(deadline, now time.Time) string {
	diff := deadline.Sub(now)
	if diff <= 0 {
		return "Waktu habis"
	}

	hours := int(diff / time.Hour)
	minutes := int((diff % time.Hour) / time.Minute)
	if hours > 24 {
		return fmt.Sprintf("%d hari %d jam", hours/24, hours%24)
	}
	return fmt.Sprintf("%d jam %d menit", hours, minutes)
}
