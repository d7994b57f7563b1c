package payment

import (
	"context"
	"io"
	"time"

	"studiobook/internal/domain/audit"
	"studiobook/internal/domain/booking"
	"studiobook/internal/domain/calendar"
	"studiobook/internal/domain/ratelimit"
	"studiobook/internal/storage"
)

type bookingStore interface {
	GetByToken(ctx context.Context, token string) (*booking.Booking, error)
	LockByID(ctx context.Context, id string) (*booking.Booking, error)
	SaveTransition(ctx context.Context, b *booking.Booking, from booking.Status) error
	CreateProof(ctx context.Context, p *booking.PaymentProof) error
	GetProof(ctx context.Context, id string) (*booking.PaymentProof, error)
	LockProof(ctx context.Context, id string) (*booking.PaymentProof, error)
	SaveVerification(ctx context.Context, p *booking.PaymentProof) error
}

// Lifecycle runs the post-commit effects of a booking transition.
type Lifecycle interface {
	AfterTransition(ctx context.Context, actor audit.Actor, b *booking.Booking, step booking.Step, meta audit.Meta, data map[string]any)
}

type SlotLocker interface {
	Lock(ctx context.Context, date, bookingID string) (*calendar.Slot, error)
	Announce(slot *calendar.Slot)
}

type RateLimiter interface {
	Check(ctx context.Context, identifier string, action ratelimit.Action) ratelimit.Result
}

type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry)
}

type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, r io.Reader) error
	Delete(ctx context.Context, bucket, key string) error
}

type URLSigner interface {
	URL(bucket, key string, ttl time.Duration) (string, time.Time, error)
}

var _ ObjectStore = (*storage.Disk)(nil)
