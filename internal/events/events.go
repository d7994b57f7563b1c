// Package events publishes booking lifecycle events to downstream consumers.
package events

import (
	"context"
	"time"
)

type Type string

const (
	BookingCreated   Type = "booking.created"
	ProofUploaded    Type = "booking.proof_uploaded"
	DPApproved       Type = "booking.dp_approved"
	DPRejected       Type = "booking.dp_rejected"
	BookingCancelled Type = "booking.cancelled"
)

type Event struct {
	Type        Type           `json:"type"`
	BookingID   string         `json:"bookingId"`
	BookingCode string         `json:"bookingCode"`
	Status      string         `json:"status"`
	EventDate   string         `json:"eventDate,omitempty"`
	OccurredAt  time.Time      `json:"occurredAt"`
	Data        map[string]any `json:"data,omitempty"`
}

// Publisher delivers events. Callers publish after commit and treat errors as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error { return nil }
