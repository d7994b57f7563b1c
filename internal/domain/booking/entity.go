package booking

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Status string

const (
	StatusInvoiceGenerated    Status = "INVOICE_GENERATED"
	StatusWaitingVerification Status = "WAITING_VERIFICATION"
	StatusDPApproved          Status = "DP_APPROVED"
	StatusDPRejected          Status = "DP_REJECTED"
	StatusCancelled           Status = "CANCELLED"
)

// PackageSnapshot freezes the booked package at creation time.
type PackageSnapshot struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	ServiceName  string   `json:"serviceName"`
	Price        int64    `json:"price"`
	DPPercentage int      `json:"dpPercentage"`
	Inclusions   []string `json:"inclusions"`
}

type Booking struct {
	ID          string `gorm:"type:varchar(36);primaryKey" json:"id"`
	BookingCode string `gorm:"size:32;uniqueIndex;not null" json:"bookingCode"`
	AccessToken string `gorm:"size:64;uniqueIndex;not null" json:"-"`

	ClientName    string  `gorm:"size:200;not null" json:"clientName"`
	ClientEmail   string  `gorm:"size:255;not null;index" json:"clientEmail"`
	ClientPhone   string  `gorm:"size:32;not null" json:"clientPhone"`
	ClientAddress *string `gorm:"type:text" json:"clientAddress,omitempty"`

	EventType     string  `gorm:"size:100;not null" json:"eventType"`
	EventDate     string  `gorm:"type:varchar(10);not null;index" json:"eventDate"`
	EventLocation string  `gorm:"size:500;not null" json:"eventLocation"`
	Notes         *string `gorm:"type:text" json:"notes,omitempty"`

	PackageID       string                              `gorm:"type:varchar(36);not null;index" json:"packageId"`
	PackageSnapshot datatypes.JSONType[PackageSnapshot] `json:"packageSnapshot"`

	TotalPrice         int64      `gorm:"not null" json:"totalPrice"`
	DPAmount           int64      `gorm:"column:dp_amount;not null" json:"dpAmount"`
	DPDeadline         time.Time  `gorm:"column:dp_deadline;not null;index" json:"dpDeadline"`
	InvoiceGeneratedAt time.Time  `gorm:"not null" json:"invoiceGeneratedAt"`
	DPApprovedAt       *time.Time `gorm:"column:dp_approved_at" json:"dpApprovedAt,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	CancellationReason *string    `gorm:"type:text" json:"cancellationReason,omitempty"`

	Status    Status    `gorm:"size:30;not null;index" json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Booking) TableName() string { return "bookings" }

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

func (b *Booking) Snapshot() PackageSnapshot { return b.PackageSnapshot.Data() }

type ProofStatus string

const (
	ProofPending  ProofStatus = "PENDING"
	ProofApproved ProofStatus = "APPROVED"
	ProofRejected ProofStatus = "REJECTED"
)

// PaymentProof is one upload attempt. Rows are appended; the newest decides what the client sees.
type PaymentProof struct {
	ID         string `gorm:"type:varchar(36);primaryKey" json:"id"`
	BookingID  string `gorm:"type:varchar(36);not null;index" json:"bookingId"`
	FileName   string `gorm:"size:255;not null" json:"fileName"`
	FileType   string `gorm:"size:100;not null" json:"fileType"`
	FileSize   int64  `gorm:"not null" json:"fileSize"`
	FileURL    string `gorm:"size:500" json:"-"`
	StorageKey string `gorm:"size:500;not null" json:"-"`

	BankName       *string `gorm:"size:100" json:"bankName,omitempty"`
	AccountName    *string `gorm:"size:200" json:"accountName,omitempty"`
	TransferAmount *int64  `json:"transferAmount,omitempty"`
	TransferDate   *string `gorm:"type:varchar(10)" json:"transferDate,omitempty"`

	VerificationStatus ProofStatus `gorm:"size:20;not null;index" json:"verificationStatus"`
	RejectionReason    *string     `gorm:"type:text" json:"rejectionReason,omitempty"`
	VerifiedBy         *string     `gorm:"size:64" json:"verifiedBy,omitempty"`
	UploadedAt         time.Time   `gorm:"not null;index" json:"uploadedAt"`
	VerifiedAt         *time.Time  `json:"verifiedAt,omitempty"`
}

func (PaymentProof) TableName() string { return "payment_proofs" }

func (p *PaymentProof) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
