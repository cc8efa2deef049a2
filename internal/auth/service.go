// Package auth manages accounts, password checks, JWT session tokens and
// the role capability check every mutating operation goes through.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/chargeyard/internal/apperr"
	"github.com/zulandar/chargeyard/internal/db"
	"github.com/zulandar/chargeyard/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrUnauthorized is returned for bad credentials and for tokens that are
// malformed, expired, revoked or name a deleted user.
var ErrUnauthorized = errors.New("auth: invalid credentials or session")

const minPasswordLen = 8

// Options configures a Service.
type Options struct {
	Secret  string
	TTL     time.Duration
	Revoker Revoker // defaults to a DBRevoker on the same database
	Logger  *zap.Logger
}

// Service signs users in and out and resolves session tokens to profiles.
type Service struct {
	db       *gorm.DB
	secret   string
	ttl      time.Duration
	revoker  Revoker
	notifier *Notifier
	log      *zap.Logger
	now      func() time.Time
}

// NewService returns a Service using db for profiles.
func NewService(gdb *gorm.DB, opts Options) *Service {
	s := &Service{
		db:       gdb,
		secret:   opts.Secret,
		ttl:      opts.TTL,
		revoker:  opts.Revoker,
		notifier: NewNotifier(),
		log:      opts.Logger,
		now:      time.Now,
	}
	if s.ttl <= 0 {
		s.ttl = 24 * time.Hour
	}
	if s.revoker == nil {
		s.revoker = NewDBRevoker(gdb)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Notifier returns the event hub for sign-in, sign-out, refresh and role
// changes.
func (s *Service) Notifier() *Notifier {
	return s.notifier
}

// Credentials identify a new or returning user.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// Token is an issued session token.
type Token struct {
	Value     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Profile   *models.Profile `json:"profile"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (c Credentials) validate() error {
	email := normalizeEmail(c.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return apperr.Invalid("email %q is not valid", c.Email)
	}
	if len(c.Password) < minPasswordLen {
		return apperr.Invalid("password must be at least %d characters", minPasswordLen)
	}
	return nil
}

// SignUp registers a new account with the client role.
func (s *Service) SignUp(ctx context.Context, c Credentials) (*models.Profile, error) {
	return s.CreateUser(ctx, c, models.RoleClient)
}

// CreateUser registers a new account with the given role. The email must
// not already be registered.
func (s *Service) CreateUser(ctx context.Context, c Credentials, role string) (*models.Profile, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if !ValidRole(role) {
		return nil, apperr.Invalid("role %q must be admin, staff or client", role)
	}
	email := normalizeEmail(c.Email)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Profile{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("auth: check email: %w", err)
	}
	if count > 0 {
		return nil, apperr.Invalid("email %q is already registered", email)
	}

	hash, err := HashPassword(c.Password)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	p := &models.Profile{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     strings.TrimSpace(c.FullName),
		Role:         role,
		PasswordHash: hash,
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, fmt.Errorf("auth: create user %s: %w", email, err)
	}
	s.log.Info("user created", zap.String("user_id", p.ID), zap.String("role", role))
	return p, nil
}

// EnsureAdmin creates or refreshes an admin account keyed by email. Used
// to bootstrap a fresh database.
func (s *Service) EnsureAdmin(ctx context.Context, c Credentials) error {
	if err := c.validate(); err != nil {
		return err
	}
	hash, err := HashPassword(c.Password)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	return db.SeedProfile(s.db.WithContext(ctx), models.Profile{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(c.Email),
		FullName:     strings.TrimSpace(c.FullName),
		Role:         models.RoleAdmin,
		PasswordHash: hash,
	})
}

// SignIn checks a password and issues a session token.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Token, error) {
	var p models.Profile
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("auth: sign in: %w", err)
	}
	if !CheckPassword(password, p.PasswordHash) {
		return nil, ErrUnauthorized
	}
	tok, err := s.issue(&p)
	if err != nil {
		return nil, err
	}
	s.notifier.Publish(Event{Type: EventSignedIn, UserID: p.ID})
	return tok, nil
}

func (s *Service) issue(p *models.Profile) (*Token, error) {
	value, claims, err := IssueToken(s.secret, p, s.ttl, s.now())
	if err != nil {
		return nil, err
	}
	return &Token{Value: value, ExpiresAt: claims.ExpiresAt.Time, Profile: p}, nil
}

// Authenticate resolves a session token to its current profile. The role
// is read from the database, so role changes apply to live tokens.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.Profile, error) {
	claims, err := s.claims(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, claims.Subject)
}

func (s *Service) claims(ctx context.Context, token string) (*Claims, error) {
	claims, err := ParseToken(s.secret, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", ErrUnauthorized)
	}
	return claims, nil
}

func (s *Service) profile(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s no longer exists", ErrUnauthorized, id)
		}
		return nil, fmt.Errorf("auth: load user %s: %w", id, err)
	}
	return &p, nil
}

// SignOut revokes a session token.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.claims(ctx, token)
	if err != nil {
		return err
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return err
	}
	s.notifier.Publish(Event{Type: EventSignedOut, UserID: claims.Subject})
	return nil
}

// Refresh exchanges a live token for a new one and revokes the old.
func (s *Service) Refresh(ctx context.Context, token string) (*Token, error) {
	claims, err := s.claims(ctx, token)
	if err != nil {
		return nil, err
	}
	p, err := s.profile(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	tok, err := s.issue(p)
	if err != nil {
		return nil, err
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return nil, err
	}
	s.notifier.Publish(Event{Type: EventTokenRefreshed, UserID: p.ID})
	return tok, nil
}

// UpdateRole changes a user's role. Only admins may do this.
func (s *Service) UpdateRole(ctx context.Context, actor *models.Profile, userID, role string) (*models.Profile, error) {
	if err := RequireWrite(actor); err != nil {
		return nil, err
	}
	if !ValidRole(role) {
		return nil, apperr.Invalid("role %q must be admin, staff or client", role)
	}
	var p models.Profile
	if err := s.db.WithContext(ctx).First(&p, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("auth: user %s: %w", userID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("auth: load user %s: %w", userID, err)
	}
	if err := s.db.WithContext(ctx).Model(&p).Update("role", role).Error; err != nil {
		return nil, fmt.Errorf("auth: update role for %s: %w", userID, err)
	}
	p.Role = role
	s.log.Info("role changed", zap.String("user_id", userID), zap.String("role", role), zap.String("by", actor.ID))
	s.notifier.Publish(Event{Type: EventRoleChanged, UserID: userID})
	return &p, nil
}

// ListUsers returns every profile ordered by email. Only admins may do this.
func (s *Service) ListUsers(ctx context.Context, actor *models.Profile) ([]models.Profile, error) {
	if err := RequireWrite(actor); err != nil {
		return nil, err
	}
	var users []models.Profile
	if err := s.db.WithContext(ctx).Order("email ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("auth: list users: %w", err)
	}
	return users, nil
}
