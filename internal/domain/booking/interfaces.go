package booking

import (
	"context"

	"studiobook/internal/domain/audit"
	"studiobook/internal/domain/catalog"
	"studiobook/internal/domain/ratelimit"
	"studiobook/internal/events"
)

// PackageSource resolves bookable packages.
type PackageSource interface {
	ActivePackage(ctx context.Context, id string) (*catalog.Package, *catalog.Service, error)
}

// SlotChecker verifies date availability inside the creation transaction.
type SlotChecker interface {
	CheckAvailable(ctx context.Context, date string) error
}

type RateLimiter interface {
	Check(ctx context.Context, identifier string, action ratelimit.Action) ratelimit.Result
}

type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry)
	StatusChange(ctx context.Context, actor audit.Actor, entity audit.EntityType, id, from, to string, meta audit.Meta)
}

type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}
