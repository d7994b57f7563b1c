package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service is a top-level offering such as wedding or portrait photography.
type Service struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Slug         string    `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Name         string    `gorm:"size:200;not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description"`
	ThumbnailURL string    `gorm:"size:500" json:"thumbnailUrl,omitempty"`
	DisplayOrder int       `gorm:"not null" json:"displayOrder"`
	IsActive     bool      `gorm:"not null;index" json:"isActive"`
	Packages     []Package `gorm:"foreignKey:ServiceID" json:"packages"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (Service) TableName() string { return "services" }

func (s *Service) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Package is a priced tier of a Service. Bookings copy it into a snapshot,
// so editing a package never changes existing bookings.
type Package struct {
	ID            string                      `gorm:"type:varchar(36);primaryKey" json:"id"`
	ServiceID     string                      `gorm:"type:varchar(36);not null;uniqueIndex:idx_package_service_slug" json:"serviceId"`
	Slug          string                      `gorm:"size:100;not null;uniqueIndex:idx_package_service_slug" json:"slug"`
	Name          string                      `gorm:"size:200;not null" json:"name"`
	Description   string                      `gorm:"type:text" json:"description,omitempty"`
	Price         int64                       `gorm:"not null" json:"price"`
	DPPercentage  int                         `gorm:"column:dp_percentage;not null" json:"dpPercentage"`
	Inclusions    datatypes.JSONSlice[string] `json:"inclusions"`
	DurationHours int                         `json:"durationHours,omitempty"`
	DisplayOrder  int                         `gorm:"not null" json:"displayOrder"`
	IsActive      bool                        `gorm:"not null;index" json:"isActive"`
	CreatedAt     time.Time                   `json:"createdAt"`
	UpdatedAt     time.Time                   `json:"updatedAt"`
}

func (Package) TableName() string { return "packages" }

func (p *Package) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
