package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"studiobook/internal/database"
	"studiobook/internal/domain/audit"
	"studiobook/internal/domain/booking"
	"studiobook/internal/domain/calendar"
	"studiobook/internal/domain/ratelimit"
	"studiobook/internal/pkg/metrics"
	"studiobook/internal/pkg/validator"
	"studiobook/internal/storage"
)

const (
	// AdminURLTTL bounds how long a proof link handed to an admin stays valid.
	AdminURLTTL         = time.Hour
	defaultStoredURLTTL = 7 * 24 * time.Hour

	UploadedMessage = "Bukti pembayaran berhasil diupload"
)

type Config struct {
	// StoredURLTTL is the lifetime of the link saved on the proof row.
	StoredURLTTL time.Duration
}

type Deps struct {
	Bookings  bookingStore
	Lifecycle Lifecycle
	Slots     SlotLocker
	Tx        *database.TxManager
	Limiter   RateLimiter
	Audit     AuditRecorder
	Store     ObjectStore
	Signer    URLSigner
	Metrics   *metrics.Business
	Log       *zap.Logger
}

type Service struct {
	Deps
	cfg Config
	now func() time.Time
}

func NewService(deps Deps, cfg Config) *Service {
	if cfg.StoredURLTTL <= 0 {
		cfg.StoredURLTTL = defaultStoredURLTTL
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	deps.Log = deps.Log.Named("payment")
	return &Service{Deps: deps, cfg: cfg, now: time.Now}
}

func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Upload stores a transfer proof for the booking addressed by token and moves the booking
// to WAITING_VERIFICATION. The proof row and the status change commit together; the stored
// object is removed again when they do not.
func (s *Service) Upload(ctx context.Context, token string, file *storage.File, details UploadDetails, meta audit.Meta) (*UploadResponse, error) {
	token = strings.TrimSpace(token)
	if token == "" || file == nil {
		return nil, ErrMissingInput
	}
	if errs := validator.Validate(details); errs != nil {
		return nil, &booking.ValidationError{Fields: errs}
	}

	b, err := s.Bookings.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !booking.CanUploadProof(b.Status) {
		return nil, ErrUploadNotAllowed
	}

	if res := s.Limiter.Check(ctx, b.ID, ratelimit.ActionUploadPaymentProof); !res.Allowed {
		s.Metrics.RateLimited(string(ratelimit.ActionUploadPaymentProof))
		return nil, &booking.RateLimitError{RetryAfter: ratelimit.FormatRetryAfter(res.RetryAfter)}
	}

	key, err := storage.ProofKey(b.ID, file.Ext)
	if err != nil {
		return nil, fmt.Errorf("proof key: %w", err)
	}
	if err := s.Store.Put(ctx, storage.BucketPaymentProofs, key, file.Reader); err != nil {
		return nil, fmt.Errorf("store proof: %w", err)
	}
	fileURL, _, err := s.Signer.URL(storage.BucketPaymentProofs, key, s.cfg.StoredURLTTL)
	if err != nil {
		s.discard(key)
		return nil, fmt.Errorf("sign proof url: %w", err)
	}

	proof := &booking.PaymentProof{
		BookingID:          b.ID,
		FileName:           file.Name,
		FileType:           file.MimeType,
		FileSize:           file.Size,
		FileURL:            fileURL,
		StorageKey:         key,
		BankName:           optional(details.BankName),
		AccountName:        optional(details.AccountName),
		TransferAmount:     parseAmount(details.TransferAmount),
		TransferDate:       optional(details.TransferDate),
		VerificationStatus: booking.ProofPending,
	}

	var step booking.Step
	err = s.Tx.Do(ctx, func(ctx context.Context) error {
		locked, err := s.Bookings.LockByID(ctx, b.ID)
		if err != nil {
			return err
		}
		step, err = booking.Transition(locked.Status, booking.EventProofUploaded)
		if err != nil {
			return ErrUploadNotAllowed
		}

		now := s.now().UTC()
		proof.UploadedAt = now
		if err := s.Bookings.CreateProof(ctx, proof); err != nil {
			return err
		}
		locked.Apply(step, now, "")
		if err := s.Bookings.SaveTransition(ctx, locked, step.From); err != nil {
			return err
		}
		b = locked
		return nil
	})
	if err != nil {
		s.discard(key)
		if errors.Is(err, ErrUploadNotAllowed) || errors.Is(err, booking.ErrConcurrentUpdate) {
			return nil, ErrUploadNotAllowed
		}
		return nil, fmt.Errorf("save proof: %w", err)
	}

	client := audit.Client(b.ClientName)
	s.Audit.Record(ctx, audit.Entry{
		Actor:      client,
		EntityType: audit.EntityPaymentProof,
		EntityID:   proof.ID,
		Action:     audit.ActionUploaded,
		New:        map[string]any{"bookingId": b.ID},
		Meta:       meta,
	})
	s.Lifecycle.AfterTransition(ctx, client, b, step, meta, map[string]any{"paymentProofId": proof.ID})
	s.Metrics.ProofUploaded()

	return &UploadResponse{
		PaymentProofID: proof.ID,
		Status:         b.Status,
		Message:        UploadedMessage,
	}, nil
}

// Approve accepts a pending proof, moves its booking to DP_APPROVED and books the event date.
// All three writes share one transaction; a date already held by another booking aborts it.
func (s *Service) Approve(ctx context.Context, actor audit.Actor, proofID string, meta audit.Meta) (*VerifyResponse, error) {
	var (
		proof *booking.PaymentProof
		b     *booking.Booking
		step  booking.Step
		slot  *calendar.Slot
	)
	err := s.Tx.Do(ctx, func(ctx context.Context) error {
		var err error
		proof, b, step, err = s.verify(ctx, actor, proofID, booking.EventDPApproved, "")
		if err != nil {
			return err
		}
		if step.Has(booking.EffectLockSlot) {
			slot, err = s.Slots.Lock(ctx, b.EventDate, b.ID)
			if errors.Is(err, calendar.ErrSlotTaken) {
				return ErrSlotTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Audit.Record(ctx, audit.Entry{
		Actor:      actor,
		EntityType: audit.EntityPaymentProof,
		EntityID:   proof.ID,
		Action:     audit.ActionVerified,
		New:        map[string]any{"bookingId": b.ID},
		Meta:       meta,
	})
	s.Lifecycle.AfterTransition(ctx, actor, b, step, meta, map[string]any{"paymentProofId": proof.ID})
	if slot != nil && step.Has(booking.EffectAuditSlot) {
		s.Audit.Record(ctx, audit.Entry{
			Actor:      actor,
			EntityType: audit.EntityCalendarSlot,
			EntityID:   slot.ID,
			Action:     audit.ActionStatusChanged,
			Old:        map[string]any{"status": calendar.SlotAvailable},
			New:        map[string]any{"date": slot.Date, "status": slot.Status, "bookingId": b.ID},
			Meta:       meta,
		})
	}
	s.Slots.Announce(slot)
	s.Metrics.Verified("approved")

	return verifyResponse(proof, b), nil
}

// Reject marks a pending proof rejected and moves the booking to DP_REJECTED so the client
// can upload again. The calendar is left untouched.
func (s *Service) Reject(ctx context.Context, actor audit.Actor, proofID, reason string, meta audit.Meta) (*VerifyResponse, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	var (
		proof *booking.PaymentProof
		b     *booking.Booking
		step  booking.Step
	)
	err := s.Tx.Do(ctx, func(ctx context.Context) error {
		var err error
		proof, b, step, err = s.verify(ctx, actor, proofID, booking.EventDPRejected, reason)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Audit.Record(ctx, audit.Entry{
		Actor:      actor,
		EntityType: audit.EntityPaymentProof,
		EntityID:   proof.ID,
		Action:     audit.ActionRejected,
		New:        map[string]any{"bookingId": b.ID, "reason": reason},
		Meta:       meta,
	})
	s.Lifecycle.AfterTransition(ctx, actor, b, step, meta, map[string]any{"paymentProofId": proof.ID, "reason": reason})
	s.Metrics.Verified("rejected")

	return verifyResponse(proof, b), nil
}

// verify records the decision on a pending proof and applies ev to its booking.
// Must run inside a transaction.
func (s *Service) verify(ctx context.Context, actor audit.Actor, proofID string, ev booking.Event, reason string) (*booking.PaymentProof, *booking.Booking, booking.Step, error) {
	proof, err := s.Bookings.LockProof(ctx, proofID)
	if err != nil {
		return nil, nil, booking.Step{}, err
	}
	if proof.VerificationStatus != booking.ProofPending {
		return nil, nil, booking.Step{}, ErrProofNotPending
	}

	b, err := s.Bookings.LockByID(ctx, proof.BookingID)
	if err != nil {
		return nil, nil, booking.Step{}, err
	}
	step, err := booking.Transition(b.Status, ev)
	if err != nil {
		return nil, nil, booking.Step{}, err
	}

	now := s.now().UTC()
	b.Apply(step, now, "")
	if err := s.Bookings.SaveTransition(ctx, b, step.From); err != nil {
		return nil, nil, booking.Step{}, err
	}

	proof.VerifiedAt = &now
	proof.VerifiedBy = optional(actor.ID)
	if ev == booking.EventDPApproved {
		proof.VerificationStatus = booking.ProofApproved
	} else {
		proof.VerificationStatus = booking.ProofRejected
		proof.RejectionReason = &reason
	}
	if err := s.Bookings.SaveVerification(ctx, proof); err != nil {
		return nil, nil, booking.Step{}, err
	}
	return proof, b, step, nil
}

// ProofURL returns a short-lived download link for a stored proof.
func (s *Service) ProofURL(ctx context.Context, proofID string) (*ProofURLResponse, error) {
	proof, err := s.Bookings.GetProof(ctx, proofID)
	if err != nil {
		return nil, err
	}
	url, exp, err := s.Signer.URL(storage.BucketPaymentProofs, proof.StorageKey, AdminURLTTL)
	if err != nil {
		return nil, fmt.Errorf("sign proof url: %w", err)
	}
	return &ProofURLResponse{URL: url, FileName: proof.FileName, FileType: proof.FileType, ExpiresAt: exp}, nil
}

func (s *Service) discard(key string) {
	if err := s.Store.Delete(context.Background(), storage.BucketPaymentProofs, key); err != nil {
		s.Log.Warn("failed to remove orphaned proof object", zap.String("key", key), zap.Error(err))
	}
}

func verifyResponse(p *booking.PaymentProof, b *booking.Booking) *VerifyResponse {
	return &VerifyResponse{
		PaymentProofID:     p.ID,
		VerificationStatus: p.VerificationStatus,
		BookingID:          b.ID,
		BookingStatus:      b.Status,
		VerifiedAt:         p.VerifiedAt,
	}
}

func parseAmount(s string) *int64 {
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return nil
	}
	n := d.Round(0).IntPart()
	return &n
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
