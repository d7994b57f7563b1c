package calendar

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"studiobook/internal/database"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Ensure creates an AVAILABLE row for date if none exists and returns the row locked
// for the rest of the surrounding transaction. An existing row keeps its status.
func (r *Repository) Ensure(ctx context.Context, date string) (*Slot, error) {
	db := database.Conn(ctx, r.db)
	seed := Slot{Date: date, Status: SlotAvailable}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoNothing: true,
	}).Create(&seed).Error; err != nil {
		return nil, err
	}

	var slot Slot
	if err := database.ForUpdate(db).Where("date = ?", date).First(&slot).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

// GetByDate returns nil, nil when the date has no row.
func (r *Repository) GetByDate(ctx context.Context, date string) (*Slot, error) {
	var slot Slot
	err := database.Conn(ctx, r.db).Where("date = ?", date).First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// ListRange returns rows with from <= date <= to. Dates are YYYY-MM-DD so string order is date order.
func (r *Repository) ListRange(ctx context.Context, from, to string) ([]Slot, error) {
	var slots []Slot
	err := database.Conn(ctx, r.db).
		Where("date >= ? AND date <= ?", from, to).
		Order("date ASC").
		Find(&slots).Error
	return slots, err
}

func (r *Repository) Save(ctx context.Context, slot *Slot) error {
	return database.Conn(ctx, r.db).Save(slot).Error
}
