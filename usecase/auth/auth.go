// Package auth verifies credentials and manages sessions and access tokens.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/teamdo/backend/domain"
	"github.com/teamdo/backend/internal/audit"
	"github.com/teamdo/backend/repository"
)

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	recorder *audit.Recorder
	secret   []byte
	issuer   string
	ttl      time.Duration
	logger   *zap.Logger
}

func New(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	recorder *audit.Recorder,
	secret, issuer string,
	ttl time.Duration,
	logger *zap.Logger,
) *UseCase {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		recorder: recorder,
		secret:   []byte(secret),
		issuer:   issuer,
		ttl:      ttl,
		logger:   logger,
	}
}

// Token is a successful login result.
type Token struct {
	AccessToken string       `json:"access_token"`
	SessionID   string       `json:"session_id"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *domain.User `json:"user"`
}

// Login verifies the credentials and issues a session plus a signed JWT.
// Unknown user, wrong password and disabled account all collapse into the
// same UNAUTHORIZED answer so the endpoint does not reveal which one it was.
func (uc *UseCase) Login(ctx context.Context, username, password string) (*Token, error) {
	user, err := uc.users.GetByUsername(ctx, username)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive() {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}

	now := time.Now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.ttl),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	signed, err := uc.sign(user, session)
	if err != nil {
		return nil, err
	}

	if uc.recorder != nil {
		uc.recorder.Event(ctx, "USER_LOGIN", "username="+user.Username)
	}
	return &Token{
		AccessToken: signed,
		SessionID:   session.ID,
		ExpiresAt:   session.ExpiresAt,
		User:        user,
	}, nil
}

// Logout revokes the session behind the token.
func (uc *UseCase) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := uc.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	if uc.recorder != nil {
		uc.recorder.Event(ctx, "USER_LOGOUT", "session="+sessionID)
	}
	return nil
}

// Refresh extends a live session and reissues the JWT.
func (uc *UseCase) Refresh(ctx context.Context, sessionID string) (*Token, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(time.Now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	user, err := uc.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive() {
		return nil, domain.ErrUnauthorized
	}

	if err := uc.sessions.Extend(ctx, sessionID, int(uc.ttl.Seconds())); err != nil {
		return nil, err
	}
	session.ExpiresAt = time.Now().Add(uc.ttl)

	signed, err := uc.sign(user, session)
	if err != nil {
		return nil, err
	}
	return &Token{
		AccessToken: signed,
		SessionID:   session.ID,
		ExpiresAt:   session.ExpiresAt,
		User:        user,
	}, nil
}

// Register creates a new enabled account with the USER role.
func (uc *UseCase) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if len(username) < 3 || len(username) > 50 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "username must be 3-50 characters")
	}
	if len(password) < 8 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "password must be at least 8 characters")
	}
	if _, err := uc.users.GetByUsername(ctx, username); err == nil {
		return nil, domain.NewError(domain.ErrCodeConflict, "username already taken")
	} else if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	result, err := uc.recorder.Record(ctx, "USER_REGISTER", "User", "", username,
		func(ctx context.Context) (any, error) {
			return uc.users.Save(ctx, &domain.User{
				Username:     username,
				PasswordHash: string(hash),
				Roles:        []string{domain.RoleUser},
				Enabled:      true,
			})
		})
	if err != nil {
		return nil, err
	}
	return result.(*domain.User), nil
}

func (uc *UseCase) sign(user *domain.User, session *domain.Session) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"roles":    user.Roles,
		"sid":      session.ID,
		"iss":      uc.issuer,
		"iat":      jwt.NewNumericDate(session.CreatedAt),
		"exp":      jwt.NewNumericDate(session.ExpiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(uc.secret)
}
