package calendar

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SlotStatus string

const (
	SlotAvailable SlotStatus = "AVAILABLE"
	SlotBooked    SlotStatus = "BOOKED"
	SlotBlocked   SlotStatus = "BLOCKED"
)

// Slot is the per-date availability row. A date without a row is available.
type Slot struct {
	ID            string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Date          string     `gorm:"type:varchar(10);uniqueIndex;not null" json:"date"`
	Status        SlotStatus `gorm:"size:20;not null;index" json:"status"`
	BookingID     *string    `gorm:"type:varchar(36)" json:"bookingId,omitempty"`
	BlockedReason *string    `gorm:"size:500" json:"blockedReason,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (Slot) TableName() string { return "calendar_slots" }

func (s *Slot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// SlotView is the public projection of a slot.
type SlotView struct {
	ID     string     `json:"id"`
	Date   string     `json:"date"`
	Status SlotStatus `json:"status"`
}

type View struct {
	StartDate string     `json:"startDate"`
	EndDate   string     `json:"endDate"`
	Slots     []SlotView `json:"slots"`
}
