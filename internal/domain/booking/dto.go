package booking

import "time"

type CreateRequest struct {
	PackageID     string `json:"packageId" validate:"required,uuid"`
	EventDate     string `json:"eventDate" validate:"required,date_ymd"`
	EventType     string `json:"eventType" validate:"required,min=1,max=100"`
	EventLocation string `json:"eventLocation" validate:"required,min=3,max=500"`
	ClientName    string `json:"clientName" validate:"required,min=3,max=200"`
	ClientEmail   string `json:"clientEmail" validate:"required,email"`
	ClientPhone   string `json:"clientPhone" validate:"required,min=10,max=20,phone"`
	ClientAddress string `json:"clientAddress" validate:"omitempty,max=1000"`
	Notes         string `json:"notes" validate:"omitempty,max=2000"`
}

type CreateResponse struct {
	BookingID   string    `json:"bookingId"`
	BookingCode string    `json:"bookingCode"`
	AccessToken string    `json:"accessToken"`
	Status      Status    `json:"status"`
	DPAmount    int64     `json:"dpAmount"`
	DPDeadline  time.Time `json:"dpDeadline"`
}

type PaymentInstructions struct {
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber"`
	AccountName   string `json:"accountName"`
	Amount        int64  `json:"amount"`
	Reference     string `json:"reference"`
}

// TrackResponse is what the holder of an access token sees.
type TrackResponse struct {
	ID                 string          `json:"id"`
	BookingCode        string          `json:"bookingCode"`
	Status             Status          `json:"status"`
	StatusLabel        string          `json:"statusLabel"`
	ClientName         string          `json:"clientName"`
	ClientEmail        string          `json:"clientEmail"`
	ClientPhone        string          `json:"clientPhone"`
	ClientAddress      *string         `json:"clientAddress,omitempty"`
	EventType          string          `json:"eventType"`
	EventDate          string          `json:"eventDate"`
	EventLocation      string          `json:"eventLocation"`
	Notes              *string         `json:"notes,omitempty"`
	PackageSnapshot    PackageSnapshot `json:"packageSnapshot"`
	TotalPrice         int64           `json:"totalPrice"`
	DPAmount           int64           `json:"dpAmount"`
	DPDeadline         time.Time       `json:"dpDeadline"`
	RemainingTime      string          `json:"remainingTime"`
	IsOverdue          bool            `json:"isOverdue"`
	CanUploadProof     bool            `json:"canUploadProof"`
	InvoiceGeneratedAt time.Time       `json:"invoiceGeneratedAt"`
	DPApprovedAt       *time.Time      `json:"dpApprovedAt,omitempty"`
	CancelledAt        *time.Time      `json:"cancelledAt,omitempty"`
	CancellationReason *string         `json:"cancellationReason,omitempty"`
	PaymentProofs      []ProofSummary  `json:"paymentProofs"`

	PaymentInstructions *PaymentInstructions `json:"paymentInstructions,omitempty"`
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// AdminView adds the full proof history to a booking.
type AdminView struct {
	Booking
	StatusLabel   string         `json:"statusLabel"`
	PaymentProofs []PaymentProof `json:"paymentProofs"`
}

type ListResponse struct {
	Bookings []Booking `json:"bookings"`
	Total    int64     `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

// ProofSummary is the client's view of an uploaded proof. Transfer details and the
// verifying admin stay out of it.
type ProofSummary struct {
	ID                 string      `json:"id"`
	FileName           string      `json:"fileName"`
	VerificationStatus ProofStatus `json:"verificationStatus"`
	RejectionReason    *string     `json:"rejectionReason,omitempty"`
	UploadedAt         time.Time   `json:"uploadedAt"`
	VerifiedAt         *time.Time  `json:"verifiedAt,omitempty"`
}

func summarizeProofs(proofs []PaymentProof) []ProofSummary {
	out := make([]ProofSummary, 0, len(proofs))
	for _, p := range proofs {
		out = append(out, ProofSummary{
			ID:                 p.ID,
			FileName:           p.FileName,
			VerificationStatus: p.VerificationStatus,
			RejectionReason:    p.RejectionReason,
			UploadedAt:         p.UploadedAt,
			VerifiedAt:         p.VerifiedAt,
		})
	}
	return out
}
