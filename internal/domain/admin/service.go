package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"studiobook/internal/database"
	"studiobook/internal/domain/audit"
	"studiobook/internal/domain/ratelimit"
	"studiobook/internal/pkg/validator"
)

const minPasswordLength = 8

type TokenIssuer interface {
	GenerateToken(adminID, email, role string) (string, time.Time, error)
}

type RateLimiter interface {
	Check(ctx context.Context, identifier string, action ratelimit.Action) ratelimit.Result
	Reset(ctx context.Context, identifier string, action ratelimit.Action) error
}

type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry)
}

type Service struct {
	repo    Repository
	tokens  TokenIssuer
	limiter RateLimiter
	audit   AuditRecorder
	log     *zap.Logger
	now     func() time.Time
}

func NewService(repo Repository, tokens TokenIssuer, limiter RateLimiter, recorder AuditRecorder, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:    repo,
		tokens:  tokens,
		limiter: limiter,
		audit:   recorder,
		log:     log.Named("admin"),
		now:     time.Now,
	}
}

// Login checks credentials of an active admin and issues a session token.
// Attempts are limited per client IP and email; a successful login clears the counter.
func (s *Service) Login(ctx context.Context, req LoginRequest, meta audit.Meta) (*LoginResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrMissingCredentials
	}

	key := meta.IP + ":" + email
	if res := s.limiter.Check(ctx, key, ratelimit.ActionLoginAttempt); !res.Allowed {
		return nil, &RateLimitError{RetryAfter: ratelimit.FormatRetryAfter(res.RetryAfter)}
	}

	admin, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !admin.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.limiter.Reset(ctx, key, ratelimit.ActionLoginAttempt); err != nil {
		s.log.Warn("failed to reset login rate limit", zap.String("admin_id", admin.ID), zap.Error(err))
	}

	now := s.now().UTC()
	if err := s.repo.TouchLogin(ctx, admin.ID, now); err != nil {
		s.log.Warn("failed to update last login", zap.String("admin_id", admin.ID), zap.Error(err))
	} else {
		admin.LastLoginAt = &now
	}

	token, exp, err := s.tokens.GenerateToken(admin.ID, admin.Email, string(admin.Role))
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.audit.Record(ctx, audit.Entry{
		Actor:      audit.Admin(admin.ID, admin.Name),
		EntityType: audit.EntityAdmin,
		EntityID:   admin.ID,
		Action:     audit.ActionLogin,
		Meta:       meta,
	})

	return &LoginResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: exp, Admin: admin}, nil
}

func (s *Service) Me(ctx context.Context, id string) (*Admin, error) {
	admin, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !admin.IsActive {
		return nil, ErrNotFound
	}
	return admin, nil
}

// Create registers an active admin account. Used by the CLI and the seeder.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Admin, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Role == "" {
		req.Role = RoleAdmin
	}
	if errs := validator.Validate(req); errs != nil {
		return nil, fmt.Errorf("invalid admin: %v", errs)
	}
	if req.Role != RoleAdmin && req.Role != RoleSuperAdmin {
		return nil, ErrInvalidRole
	}
	if len(req.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	admin := &Admin{
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         req.Role,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Actor:      audit.System(),
		EntityType: audit.EntityAdmin,
		EntityID:   admin.ID,
		Action:     audit.ActionCreated,
		New:        map[string]any{"email": admin.Email, "role": admin.Role},
	})
	return admin, nil
}

// Ensure creates the admin unless the email is already registered.
func (s *Service) Ensure(ctx context.Context, req CreateRequest) (*Admin, bool, error) {
	existing, err := s.repo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	admin, err := s.Create(ctx, req)
	if err != nil {
		return nil, false, err
	}
	return admin, true, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
