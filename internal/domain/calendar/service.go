package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"studiobook/internal/database"
	"studiobook/internal/domain/audit"
)

const (
	monthLayout   = "2006-01"
	defaultMonths = 3
)

type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry)
}

// Notifier is told about committed slot status changes.
type Notifier interface {
	SlotChanged(date string, status SlotStatus)
}

type Calendar struct {
	repo     *Repository
	tx       *database.TxManager
	audit    AuditRecorder
	notifier Notifier
	loc      *time.Location
	now      func() time.Time
}

func NewCalendar(repo *Repository, tx *database.TxManager, recorder AuditRecorder, notifier Notifier, loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{repo: repo, tx: tx, audit: recorder, notifier: notifier, loc: loc, now: time.Now}
}

// ParseDate validates a YYYY-MM-DD date string.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t, nil
}

// Range returns the dates covered by a calendar request. An empty month means the
// current month through the end of the second following month.
func (c *Calendar) Range(month string) (start, end time.Time, err error) {
	if month == "" {
		now := c.now().In(c.loc)
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, c.loc)
		end = start.AddDate(0, defaultMonths, -1)
		return start, end, nil
	}

	start, err = time.ParseInLocation(monthLayout, month, c.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}
	return start, start.AddDate(0, 1, -1), nil
}

func (c *Calendar) View(ctx context.Context, month string) (*View, error) {
	start, end, err := c.Range(month)
	if err != nil {
		return nil, err
	}

	from, to := start.Format(time.DateOnly), end.Format(time.DateOnly)
	slots, err := c.repo.ListRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	views := make([]SlotView, 0, len(slots))
	for _, s := range slots {
		views = append(views, SlotView{ID: s.ID, Date: s.Date, Status: s.Status})
	}
	return &View{StartDate: from, EndDate: to, Slots: views}, nil
}

// CheckAvailable ensures the slot row exists and is AVAILABLE. Call inside a transaction:
// the row stays locked until commit.
func (c *Calendar) CheckAvailable(ctx context.Context, date string) error {
	slot, err := c.repo.Ensure(ctx, date)
	if err != nil {
		return err
	}
	if slot.Status != SlotAvailable {
		return ErrDateUnavailable
	}
	return nil
}

// Lock marks the date BOOKED for bookingID. Call inside the approval transaction.
// The first approved booking wins; a later one gets ErrSlotTaken.
func (c *Calendar) Lock(ctx context.Context, date, bookingID string) (*Slot, error) {
	slot, err := c.repo.Ensure(ctx, date)
	if err != nil {
		return nil, err
	}
	if slot.Status == SlotBooked && slot.BookingID != nil && *slot.BookingID == bookingID {
		return slot, nil
	}
	if slot.Status != SlotAvailable {
		return nil, ErrSlotTaken
	}

	slot.Status = SlotBooked
	slot.BookingID = &bookingID
	slot.BlockedReason = nil
	if err := c.repo.Save(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// Announce pushes a committed change to live subscribers.
func (c *Calendar) Announce(slot *Slot) {
	if c.notifier != nil && slot != nil {
		c.notifier.SlotChanged(slot.Date, slot.Status)
	}
}

func (c *Calendar) Block(ctx context.Context, actor audit.Actor, date, reason string, meta audit.Meta) (*Slot, error) {
	if _, err := ParseDate(date, c.loc); err != nil {
		return nil, err
	}

	var (
		slot *Slot
		old  SlotStatus
	)
	err := c.tx.Do(ctx, func(ctx context.Context) error {
		var err error
		slot, err = c.repo.Ensure(ctx, date)
		if err != nil {
			return err
		}
		old = slot.Status
		if slot.Status == SlotBooked {
			return ErrSlotBooked
		}
		slot.Status = SlotBlocked
		if r := strings.TrimSpace(reason); r != "" {
			slot.BlockedReason = &r
		}
		return c.repo.Save(ctx, slot)
	})
	if err != nil {
		return nil, err
	}

	c.recordChange(ctx, actor, slot, old, meta)
	c.Announce(slot)
	return slot, nil
}

func (c *Calendar) Unblock(ctx context.Context, actor audit.Actor, date string, meta audit.Meta) (*Slot, error) {
	if _, err := ParseDate(date, c.loc); err != nil {
		return nil, err
	}

	var slot *Slot
	err := c.tx.Do(ctx, func(ctx context.Context) error {
		var err error
		slot, err = c.repo.Ensure(ctx, date)
		if err != nil {
			return err
		}
		if slot.Status != SlotBlocked {
			return ErrSlotNotBlocked
		}
		slot.Status = SlotAvailable
		slot.BlockedReason = nil
		return c.repo.Save(ctx, slot)
	})
	if err != nil {
		return nil, err
	}

	c.recordChange(ctx, actor, slot, SlotBlocked, meta)
	c.Announce(slot)
	return slot, nil
}

func (c *Calendar) recordChange(ctx context.Context, actor audit.Actor, slot *Slot, old SlotStatus, meta audit.Meta) {
	newValues := map[string]any{"date": slot.Date, "status": slot.Status}
	if slot.BlockedReason != nil {
		newValues["reason"] = *slot.BlockedReason
	}
	c.audit.Record(ctx, audit.Entry{
		Actor:      actor,
		EntityType: audit.EntityCalendarSlot,
		EntityID:   slot.ID,
		Action:     audit.ActionStatusChanged,
		Old:        map[string]any{"status": old},
		New:        newValues,
		Meta:       meta,
	})
}
