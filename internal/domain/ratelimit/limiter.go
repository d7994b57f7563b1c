package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Action string

const (
	ActionUploadPaymentProof Action = "UPLOAD_PAYMENT_PROOF"
	ActionCreateBooking      Action = "CREATE_BOOKING"
	ActionLoginAttempt       Action = "LOGIN_ATTEMPT"
)

type Rule struct {
	MaxRequests int
	Window      time.Duration
}

func DefaultRules() map[Action]Rule {
	return map[Action]Rule{
		ActionUploadPaymentProof: {MaxRequests: 5, Window: time.Hour},
		ActionCreateBooking:      {MaxRequests: 10, Window: time.Hour},
		ActionLoginAttempt:       {MaxRequests: 5, Window: 15 * time.Minute},
	}
}

// Window is one fixed-window counter row.
type Window struct {
	ID          uint   `gorm:"primaryKey"`
	Identifier  string `gorm:"size:255;not null;uniqueIndex:idx_rate_limit_window"`
	Action      Action `gorm:"size:50;not null;uniqueIndex:idx_rate_limit_window"`
	WindowStart int64  `gorm:"not null;uniqueIndex:idx_rate_limit_window;index"`
	Count       int    `gorm:"column:request_count;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Window) TableName() string { return "rate_limits" }

type Result struct {
	Allowed    bool          `json:"allowed"`
	Remaining  int           `json:"remaining"`
	ResetAt    time.Time     `json:"resetAt"`
	RetryAfter time.Duration `json:"-"`
}

// Limiter is a DB-backed fixed-window limiter. It fails open on storage errors.
type Limiter struct {
	db    *gorm.DB
	rules map[Action]Rule
	now   func() time.Time
	log   *zap.Logger
}

type Option func(*Limiter)

func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

func WithRules(rules map[Action]Rule) Option {
	return func(l *Limiter) { l.rules = rules }
}

func NewLimiter(db *gorm.DB, log *zap.Logger, opts ...Option) *Limiter {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Limiter{db: db, rules: DefaultRules(), now: time.Now, log: log.Named("ratelimit")}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// WindowStart aligns t to the start of its fixed window, in unix milliseconds.
func WindowStart(t time.Time, window time.Duration) int64 {
	ms := window.Milliseconds()
	return (t.UnixMilli() / ms) * ms
}

// Check counts one request for identifier and reports whether it is within the rule.
func (l *Limiter) Check(ctx context.Context, identifier string, action Action) Result {
	rule, ok := l.rules[action]
	if !ok {
		l.log.Warn("no rate limit rule", zap.String("action", string(action)))
		return Result{Allowed: true}
	}

	now := l.now()
	start := WindowStart(now, rule.Window)
	resetAt := time.UnixMilli(start + rule.Window.Milliseconds())

	count, err := l.increment(ctx, identifier, action, start)
	if err != nil {
		l.log.Warn("rate limit check failed, allowing request",
			zap.String("identifier", identifier),
			zap.String("action", string(action)),
			zap.Error(err),
		)
		return Result{Allowed: true, Remaining: rule.MaxRequests, ResetAt: resetAt}
	}

	if count > rule.MaxRequests {
		return Result{
			Allowed:    false,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: resetAt.Sub(now),
		}
	}
	return Result{Allowed: true, Remaining: rule.MaxRequests - count, ResetAt: resetAt}
}

func (l *Limiter) increment(ctx context.Context, identifier string, action Action, start int64) (int, error) {
	db := l.db.WithContext(ctx)
	row := Window{Identifier: identifier, Action: action, WindowStart: start, Count: 1}

	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "identifier"}, {Name: "action"}, {Name: "window_start"}},
		DoUpdates: clause.Assignments(map[string]any{
			"request_count": gorm.Expr("rate_limits.request_count + 1"),
			"updated_at":    l.now(),
		}),
	}).Create(&row).Error
	if err != nil {
		return 0, fmt.Errorf("upsert window: %w", err)
	}

	var current Window
	if err := db.Where("identifier = ? AND action = ? AND window_start = ?", identifier, action, start).
		First(&current).Error; err != nil {
		return 0, fmt.Errorf("read window: %w", err)
	}
	return current.Count, nil
}

// Reset drops all windows for identifier, e.g. after a successful login.
func (l *Limiter) Reset(ctx context.Context, identifier string, action Action) error {
	return l.db.WithContext(ctx).
		Where("identifier = ? AND action = ?", identifier, action).
		Delete(&Window{}).Error
}

// Cleanup deletes windows that started more than olderThan ago.
func (l *Limiter) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := l.now().Add(-olderThan).UnixMilli()
	res := l.db.WithContext(ctx).Where("window_start < ?", cutoff).Delete(&Window{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// FormatRetryAfter renders d as whole minutes, rounded up, minimum one.
func FormatRetryAfter(d time.Duration) string {
	minutes := int(math.Ceil(d.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d menit", minutes)
}
