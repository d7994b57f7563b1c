package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"

	"studiobook/internal/database"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	TrackProofLimit = 5
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, b *Booking) error {
	return database.Conn(ctx, r.db).Create(b).Error
}

func (r *Repository) first(q *gorm.DB) (*Booking, error) {
	var b Booking
	if err := q.First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Booking, error) {
	return r.first(database.Conn(ctx, r.db).Where("id = ?", id))
}

func (r *Repository) GetByToken(ctx context.Context, token string) (*Booking, error) {
	return r.first(database.Conn(ctx, r.db).Where("access_token = ?", token))
}

// LockByID reads the booking with a row lock for the rest of the transaction.
func (r *Repository) LockByID(ctx context.Context, id string) (*Booking, error) {
	return r.first(database.ForUpdate(database.Conn(ctx, r.db)).Where("id = ?", id))
}

// SaveTransition persists a status change made by Apply. The update only matches
// while the row still has status from, so a concurrent change yields ErrConcurrentUpdate.
func (r *Repository) SaveTransition(ctx context.Context, b *Booking, from Status) error {
	res := database.Conn(ctx, r.db).Model(&Booking{}).
		Where("id = ? AND status = ?", b.ID, from).
		Updates(map[string]any{
			"status":              b.Status,
			"dp_approved_at":      b.DPApprovedAt,
			"cancelled_at":        b.CancelledAt,
			"cancellation_reason": b.CancellationReason,
			"updated_at":          time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}
	return nil
}

type ListFilter struct {
	Status Status
	From   string // YYYY-MM-DD, inclusive
	To     string // YYYY-MM-DD, inclusive
	Query  string
	Limit  int
	Offset int
}

// filterSQL turns f into a WHERE fragment with ? placeholders.
func filterSQL(f ListFilter) (string, []any, error) {
	cond := sq.And{}
	if f.Status != "" {
		cond = append(cond, sq.Eq{"status": f.Status})
	}
	if f.From != "" {
		cond = append(cond, sq.GtOrEq{"event_date": f.From})
	}
	if f.To != "" {
		cond = append(cond, sq.LtOrEq{"event_date": f.To})
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		cond = append(cond, sq.Or{
			sq.Like{"LOWER(client_name)": like},
			sq.Like{"LOWER(client_email)": like},
			sq.Eq{"booking_code": strings.ToUpper(q)},
		})
	}
	if len(cond) == 0 {
		return "", nil, nil
	}
	return cond.ToSql()
}

func (r *Repository) List(ctx context.Context, f ListFilter) ([]Booking, int64, error) {
	where, args, err := filterSQL(f)
	if err != nil {
		return nil, 0, err
	}

	q := database.Conn(ctx, r.db).Model(&Booking{})
	if where != "" {
		q = q.Where(where, args...)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var bookings []Booking
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&bookings).Error; err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// ListOverdue returns INVOICE_GENERATED bookings whose DP deadline is before now.
// DP_REJECTED bookings are excluded: the client may re-upload after the deadline.
func (r *Repository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]Booking, error) {
	var bookings []Booking
	err := database.Conn(ctx, r.db).
		Where("status = ? AND dp_deadline < ?", StatusInvoiceGenerated, now).
		Order("dp_deadline ASC").
		Limit(limit).
		Find(&bookings).Error
	return bookings, err
}

// Proofs

func (r *Repository) CreateProof(ctx context.Context, p *PaymentProof) error {
	return database.Conn(ctx, r.db).Create(p).Error
}

func (r *Repository) GetProof(ctx context.Context, id string) (*PaymentProof, error) {
	var p PaymentProof
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProofNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) LockProof(ctx context.Context, id string) (*PaymentProof, error) {
	var p PaymentProof
	if err := database.ForUpdate(database.Conn(ctx, r.db)).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProofNotFound
		}
		return nil, err
	}
	return &p, nil
}

// LatestProofs returns up to limit proofs, newest first.
func (r *Repository) LatestProofs(ctx context.Context, bookingID string, limit int) ([]PaymentProof, error) {
	q := database.Conn(ctx, r.db).Where("booking_id = ?", bookingID).Order("uploaded_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var proofs []PaymentProof
	err := q.Find(&proofs).Error
	return proofs, err
}

// SaveVerification writes the verification outcome of a pending proof.
func (r *Repository) SaveVerification(ctx context.Context, p *PaymentProof) error {
	res := database.Conn(ctx, r.db).Model(&PaymentProof{}).
		Where("id = ? AND verification_status = ?", p.ID, ProofPending).
		Updates(map[string]any{
			"verification_status": p.VerificationStatus,
			"rejection_reason":    p.RejectionReason,
			"verified_by":         p.VerifiedBy,
			"verified_at":         p.VerifiedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}
	return nil
}
