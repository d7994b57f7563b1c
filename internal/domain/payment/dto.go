package payment

import (
	"time"

	"studiobook/internal/domain/booking"
)

// UploadDetails are the optional transfer fields a client may add to a proof.
type UploadDetails struct {
	BankName       string `form:"bankName" validate:"omitempty,max=100"`
	AccountName    string `form:"accountName" validate:"omitempty,max=200"`
	TransferAmount string `form:"transferAmount" validate:"omitempty,numeric"`
	TransferDate   string `form:"transferDate" validate:"omitempty,date_ymd"`
}

type UploadResponse struct {
	PaymentProofID string         `json:"paymentProofId"`
	Status         booking.Status `json:"status"`
	Message        string         `json:"message"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type VerifyResponse struct {
	PaymentProofID     string              `json:"paymentProofId"`
	VerificationStatus booking.ProofStatus `json:"verificationStatus"`
	BookingID          string              `json:"bookingId"`
	BookingStatus      booking.Status      `json:"bookingStatus"`
	VerifiedAt         *time.Time          `json:"verifiedAt"`
}

type ProofURLResponse struct {
	URL       string    `json:"url"`
	FileName  string    `json:"fileName"`
	FileType  string    `json:"fileType"`
	ExpiresAt time.Time `json:"expiresAt"`
}
