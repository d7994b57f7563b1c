package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"studiobook/internal/database"
	"studiobook/internal/domain/audit"
	"studiobook/internal/domain/calendar"
	"studiobook/internal/domain/catalog"
	"studiobook/internal/domain/ratelimit"
	"studiobook/internal/events"
	"studiobook/internal/pkg/metrics"
	"studiobook/internal/pkg/validator"
)

const maxCodeAttempts = 3

type Config struct {
	CodePrefix string
	DPWindow   time.Duration
	Location   *time.Location
	Bank       PaymentInstructions // Amount and Reference are filled per booking
}

type Deps struct {
	Repo     *Repository
	Tx       *database.TxManager
	Packages PackageSource
	Slots    SlotChecker
	Limiter  RateLimiter
	Audit    AuditRecorder
	Events   Publisher
	Metrics  *metrics.Business
	Log      *zap.Logger
}

type Service struct {
	Deps
	cfg Config
	now func() time.Time
}

func NewService(deps Deps, cfg Config) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.DPWindow <= 0 {
		cfg.DPWindow = DefaultDPWindow
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Events == nil {
		deps.Events = events.Nop{}
	}
	deps.Log = deps.Log.Named("booking")
	return &Service{Deps: deps, cfg: cfg, now: time.Now}
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Create validates the request, checks the date and persists a booking in INVOICE_GENERATED.
// The slot check and the insert share one transaction with the slot row locked.
func (s *Service) Create(ctx context.Context, req CreateRequest, meta audit.Meta) (*CreateResponse, error) {
	req = normalize(req)
	if errs := validator.Validate(req); errs != nil {
		return nil, &ValidationError{Fields: errs}
	}

	if res := s.Limiter.Check(ctx, clientKey(meta), ratelimit.ActionCreateBooking); !res.Allowed {
		s.Metrics.RateLimited(string(ratelimit.ActionCreateBooking))
		return nil, &RateLimitError{RetryAfter: ratelimit.FormatRetryAfter(res.RetryAfter)}
	}

	now := s.now()
	eventDay, err := calendar.ParseDate(req.EventDate, s.cfg.Location)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"EventDate": "date_ymd"}}
	}
	today := now.In(s.cfg.Location)
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, s.cfg.Location)
	// the earliest bookable date is tomorrow in the studio's zone
	if !eventDay.After(today) {
		return nil, ErrPastDate
	}

	pkg, svc, err := s.Packages.ActivePackage(ctx, req.PackageID)
	if err != nil {
		if errors.Is(err, catalog.ErrPackageNotFound) || errors.Is(err, catalog.ErrServiceNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("load package: %w", err)
	}

	b := &Booking{
		ClientName:    req.ClientName,
		ClientEmail:   req.ClientEmail,
		ClientPhone:   req.ClientPhone,
		ClientAddress: optional(req.ClientAddress),
		EventType:     req.EventType,
		EventDate:     req.EventDate,
		EventLocation: req.EventLocation,
		Notes:         optional(req.Notes),
		PackageID:     pkg.ID,
		PackageSnapshot: datatypes.NewJSONType(PackageSnapshot{
			ID:           pkg.ID,
			Name:         pkg.Name,
			ServiceName:  svc.Name,
			Price:        pkg.Price,
			DPPercentage: pkg.DPPercentage,
			Inclusions:   append([]string{}, pkg.Inclusions...),
		}),
		TotalPrice:         pkg.Price,
		DPAmount:           DPAmount(pkg.Price, pkg.DPPercentage),
		InvoiceGeneratedAt: now.UTC(),
		DPDeadline:         DPDeadline(now.UTC(), s.cfg.DPWindow),
		Status:             StatusInvoiceGenerated,
	}

	if err := s.insertWithUniqueCodes(ctx, b, eventDay); err != nil {
		return nil, err
	}

	s.Audit.Record(ctx, audit.Entry{
		Actor:      audit.Client(b.ClientName),
		EntityType: audit.EntityBooking,
		EntityID:   b.ID,
		Action:     audit.ActionCreated,
		New: map[string]any{
			"bookingCode": b.BookingCode,
			"eventDate":   b.EventDate,
			"packageId":   b.PackageID,
			"totalPrice":  b.TotalPrice,
			"dpAmount":    b.DPAmount,
			"status":      b.Status,
		},
		Meta: meta,
	})
	s.publish(ctx, events.BookingCreated, b, map[string]any{"dpAmount": b.DPAmount, "dpDeadline": b.DPDeadline})
	s.Metrics.BookingCreated()

	return &CreateResponse{
		BookingID:   b.ID,
		BookingCode: b.BookingCode,
		AccessToken: b.AccessToken,
		Status:      b.Status,
		DPAmount:    b.DPAmount,
		DPDeadline:  b.DPDeadline,
	}, nil
}

// insertWithUniqueCodes retries the whole transaction with fresh codes when the
// booking code or access token collides with an existing row.
func (s *Service) insertWithUniqueCodes(ctx context.Context, b *Booking, eventDay time.Time) error {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := NewBookingCode(s.cfg.CodePrefix, eventDay)
		if err != nil {
			return err
		}
		token, err := NewAccessToken()
		if err != nil {
			return err
		}
		b.ID = ""
		b.BookingCode = code
		b.AccessToken = token

		err = s.Tx.Do(ctx, func(ctx context.Context) error {
			if err := s.Slots.CheckAvailable(ctx, b.EventDate); err != nil {
				return err
			}
			return s.Repo.Create(ctx, b)
		})
		switch {
		case err == nil:
			return nil
		case errors.Is(err, calendar.ErrDateUnavailable):
			return ErrDateUnavailable
		case database.IsUniqueViolation(err):
			s.Log.Warn("booking code collision, retrying", zap.Int("attempt", attempt), zap.String("code", code))
			continue
		default:
			return fmt.Errorf("create booking: %w", err)
		}
	}
	return ErrCodeExhausted
}

// Track returns the booking addressed by an access token with its five newest proofs.
func (s *Service) Track(ctx context.Context, token string) (*TrackResponse, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNotFound
	}
	b, err := s.Repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	proofs, err := s.Repo.LatestProofs(ctx, b.ID, TrackProofLimit)
	if err != nil {
		return nil, fmt.Errorf("load proofs: %w", err)
	}

	now := s.now()
	resp := &TrackResponse{
		ID:                 b.ID,
		BookingCode:        b.BookingCode,
		Status:             b.Status,
		StatusLabel:        StatusLabel(b.Status),
		ClientName:         b.ClientName,
		ClientEmail:        b.ClientEmail,
		ClientPhone:        b.ClientPhone,
		ClientAddress:      b.ClientAddress,
		EventType:          b.EventType,
		EventDate:          b.EventDate,
		EventLocation:      b.EventLocation,
		Notes:              b.Notes,
		PackageSnapshot:    b.Snapshot(),
		TotalPrice:         b.TotalPrice,
		DPAmount:           b.DPAmount,
		DPDeadline:         b.DPDeadline,
		RemainingTime:      RemainingTime(b.DPDeadline, now),
		IsOverdue:          !now.Before(b.DPDeadline),
		CanUploadProof:     CanUploadProof(b.Status),
		InvoiceGeneratedAt: b.InvoiceGeneratedAt,
		DPApprovedAt:       b.DPApprovedAt,
		CancelledAt:        b.CancelledAt,
		CancellationReason: b.CancellationReason,
		PaymentProofs:      summarizeProofs(proofs),
	}
	if resp.CanUploadProof {
		instr := s.cfg.Bank
		instr.Amount = b.DPAmount
		instr.Reference = b.BookingCode
		resp.PaymentInstructions = &instr
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*AdminView, error) {
	b, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	proofs, err := s.Repo.LatestProofs(ctx, b.ID, 0)
	if err != nil {
		return nil, err
	}
	if proofs == nil {
		proofs = []PaymentProof{}
	}
	return &AdminView{Booking: *b, StatusLabel: StatusLabel(b.Status), PaymentProofs: proofs}, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) (*ListResponse, error) {
	if f.Status != "" {
		if _, ok := statusLabels[f.Status]; !ok {
			return nil, &ValidationError{Fields: map[string]string{"status": "oneof"}}
		}
	}
	for field, v := range map[string]string{"from": f.From, "to": f.To} {
		if v == "" {
			continue
		}
		if _, err := calendar.ParseDate(v, s.cfg.Location); err != nil {
			return nil, &ValidationError{Fields: map[string]string{field: "date_ymd"}}
		}
	}

	bookings, total, err := s.Repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []Booking{}
	}
	limit := f.Limit
	switch {
	case limit <= 0:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}
	return &ListResponse{Bookings: bookings, Total: total, Limit: limit, Offset: max(f.Offset, 0)}, nil
}

// Cancel moves a non-terminal booking to CANCELLED.
func (s *Service) Cancel(ctx context.Context, actor audit.Actor, id, reason string, meta audit.Meta) (*Booking, error) {
	reason = strings.TrimSpace(reason)

	var (
		b    *Booking
		step Step
	)
	err := s.Tx.Do(ctx, func(ctx context.Context) error {
		var err error
		b, err = s.Repo.LockByID(ctx, id)
		if err != nil {
			return err
		}
		step, err = Transition(b.Status, EventCancelled)
		if err != nil {
			return err
		}
		b.Apply(step, s.now().UTC(), reason)
		return s.Repo.SaveTransition(ctx, b, step.From)
	})
	if err != nil {
		return nil, err
	}

	s.Audit.Record(ctx, audit.Entry{
		Actor:      actor,
		EntityType: audit.EntityBooking,
		EntityID:   b.ID,
		Action:     audit.ActionCancelled,
		New:        map[string]any{"reason": reason},
		Meta:       meta,
	})
	s.AfterTransition(ctx, actor, b, step, meta, map[string]any{"reason": reason})
	s.Metrics.Cancelled(string(actor.Type))
	return b, nil
}

// AfterTransition runs the post-commit effects of step: status audit and event publishing.
func (s *Service) AfterTransition(ctx context.Context, actor audit.Actor, b *Booking, step Step, meta audit.Meta, data map[string]any) {
	if step.Has(EffectAuditStatus) {
		s.Audit.StatusChange(ctx, actor, audit.EntityBooking, b.ID, string(step.From), string(step.To), meta)
	}
	if step.Has(EffectPublish) {
		s.publish(ctx, eventType(step.Event), b, data)
	}
}

// ExpireOverdue cancels unpaid bookings whose DP deadline has passed.
func (s *Service) ExpireOverdue(ctx context.Context, batch int) (int, error) {
	if batch <= 0 {
		batch = 100
	}
	overdue, err := s.Repo.ListOverdue(ctx, s.now().UTC(), batch)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, b := range overdue {
		_, err := s.Cancel(ctx, audit.System(), b.ID, "Batas waktu pembayaran DP terlewati", audit.Meta{})
		switch {
		case err == nil:
			expired++
		case errors.Is(err, ErrInvalidStatusTransition), errors.Is(err, ErrConcurrentUpdate):
			// a client upload or admin action won the race
		default:
			return expired, fmt.Errorf("expire %s: %w", b.ID, err)
		}
	}
	return expired, nil
}

func (s *Service) publish(ctx context.Context, t events.Type, b *Booking, data map[string]any) {
	err := s.Events.Publish(ctx, events.Event{
		Type:        t,
		BookingID:   b.ID,
		BookingCode: b.BookingCode,
		Status:      string(b.Status),
		EventDate:   b.EventDate,
		OccurredAt:  s.now().UTC(),
		Data:        data,
	})
	if err != nil {
		s.Log.Warn("failed to publish booking event", zap.String("type", string(t)), zap.String("booking_id", b.ID), zap.Error(err))
	}
}

func eventType(e Event) events.Type {
	switch e {
	case EventProofUploaded:
		return events.ProofUploaded
	case EventDPApproved:
		return events.DPApproved
	case EventDPRejected:
		return events.DPRejected
	default:
		return events.BookingCancelled
	}
}

func normalize(req CreateRequest) CreateRequest {
	req.PackageID = strings.TrimSpace(req.PackageID)
	req.EventDate = strings.TrimSpace(req.EventDate)
	req.EventType = strings.TrimSpace(req.EventType)
	req.EventLocation = strings.TrimSpace(req.EventLocation)
	req.ClientName = strings.TrimSpace(req.ClientName)
	req.ClientEmail = strings.ToLower(strings.TrimSpace(req.ClientEmail))
	req.ClientPhone = strings.TrimSpace(req.ClientPhone)
	req.ClientAddress = strings.TrimSpace(req.ClientAddress)
	req.Notes = strings.TrimSpace(req.Notes)
	return req
}

func clientKey(meta audit.Meta) string {
	if meta.IP == "" {
		return "unknown"
	}
	return meta.IP
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
