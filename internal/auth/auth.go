package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/zulandar/launchpad/internal/apperr"
	"github.com/zulandar/launchpad/internal/logx"
	"github.com/zulandar/launchpad/internal/models"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

var errBadCredentials = apperr.New(apperr.Unauthorized, "invalid email or password")

// Service signs users up and in.
type Service struct {
	db       *gorm.DB
	sessions SessionStore
	ttl      time.Duration
	cost     int
}

// NewService creates a Service. A zero ttl stores sessions without expiry.
func NewService(db *gorm.DB, sessions SessionStore, ttl time.Duration) *Service {
	return &Service{db: db, sessions: sessions, ttl: ttl, cost: bcrypt.DefaultCost}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.New(apperr.InvalidInput, "invalid email address %q", email)
	}
	return email, nil
}

// SignUp creates an account. An existing email is a Conflict.
func (s *Service) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len([]rune(password)) < MinPasswordLength {
		return nil, apperr.New(apperr.InvalidInput, "password must be at least %d characters", MinPasswordLength)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("auth: check email: %w", err)
	}
	if count > 0 {
		return nil, apperr.New(apperr.Conflict, "an account for %s already exists", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	user := &models.User{ID: uuid.NewString(), Email: email, PasswordHash: string(hash)}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("auth: create user: %w", err)
	}
	logx.Info().Str("user_id", user.ID).Msg("user signed up")
	return user, nil
}

// SignIn checks credentials and opens a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, errBadCredentials
	}
	var user models.User
	err = s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("auth: load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, errBadCredentials
	}

	sess := &Session{Token: uuid.NewString(), UserID: user.ID, Email: user.Email}
	if s.ttl > 0 {
		sess.ExpiresAt = time.Now().Add(s.ttl)
	}
	if err := s.sessions.Save(ctx, sess, s.ttl); err != nil {
		return nil, err
	}
	return sess, nil
}

// SignOut ends a session. Unknown tokens are ignored.
func (s *Service) SignOut(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Resolve returns the session for a bearer token.
func (s *Service) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, errNoSession
	}
	return s.sessions.Load(ctx, token)
}
