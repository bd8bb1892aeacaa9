package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/teamdo/backend/domain"
	"github.com/teamdo/backend/internal/audit"
)

type fakeUserRepo struct {
	users map[int64]*domain.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) List(ctx context.Context) ([]domain.User, error) { return nil, nil }

func (f *fakeUserRepo) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	user.ID = int64(len(f.users) + 1)
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) UpdateRoles(ctx context.Context, id int64, roles []string, enabled bool) error {
	return nil
}

type fakeSessionRepo struct {
	sessions map[string]*domain.Session
}

func (f *fakeSessionRepo) Get(ctx context.Context, id string) (*domain.Session, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (f *fakeSessionRepo) Save(ctx context.Context, session *domain.Session) error {
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeSessionRepo) Delete(ctx context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionRepo) Extend(ctx context.Context, id string, ttlSeconds int) error {
	return nil
}

type nopSink struct{}

func (nopSink) Persist(ctx context.Context, entry *domain.AuditLog) error { return nil }
func (nopSink) List(ctx context.Context, limit, offset int) ([]domain.AuditLog, error) {
	return nil, nil
}
func (nopSink) Count(ctx context.Context) (int64, error) { return 0, nil }

const testSecret = "test-secret"

func newTestUseCase(t *testing.T) (*UseCase, *fakeUserRepo, *fakeSessionRepo) {
	t.Helper()
	users := &fakeUserRepo{users: map[int64]*domain.User{}}
	sessions := &fakeSessionRepo{sessions: map[string]*domain.Session{}}
	recorder := audit.NewRecorder(nopSink{}, nil, nil, zap.NewNop())
	uc := New(users, sessions, recorder, testSecret, "teamdo", time.Hour, zap.NewNop())
	return uc, users, sessions
}

func seedUser(t *testing.T, users *fakeUserRepo, username, password string, enabled bool) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := &domain.User{
		ID:           int64(len(users.users) + 1),
		Username:     username,
		PasswordHash: string(hash),
		Roles:        []string{domain.RoleUser},
		Enabled:      enabled,
	}
	users.users[user.ID] = user
	return user
}

func TestLoginIssuesToken(t *testing.T) {
	uc, users, sessions := newTestUseCase(t)
	seeded := seedUser(t, users, "alice", "hunter2pass", true)

	token, err := uc.Login(context.Background(), "alice", "hunter2pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token.AccessToken == "" || token.SessionID == "" {
		t.Fatalf("incomplete token: %+v", token)
	}
	if _, ok := sessions.sessions[token.SessionID]; !ok {
		t.Error("session not stored")
	}

	parsed, err := jwt.Parse(token.AccessToken, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token does not verify: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if id, _ := claims["user_id"].(float64); int64(id) != seeded.ID {
		t.Errorf("user_id claim = %v, want %d", claims["user_id"], seeded.ID)
	}
	if claims["username"] != "alice" {
		t.Errorf("username claim = %v", claims["username"])
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	uc, users, _ := newTestUseCase(t)
	seedUser(t, users, "alice", "hunter2pass", true)
	seedUser(t, users, "mallory", "lockedout99", false)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"unknown user", "nobody", "whatever123"},
		{"wrong password", "alice", "not-the-password"},
		{"disabled account", "mallory", "lockedout99"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Login(context.Background(), tt.username, tt.password)
			if !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
				t.Fatalf("expected UNAUTHORIZED, got %v", err)
			}
		})
	}
}

func TestRefreshRejectsExpiredSession(t *testing.T) {
	uc, users, sessions := newTestUseCase(t)
	user := seedUser(t, users, "alice", "hunter2pass", true)
	sessions.sessions["stale"] = &domain.Session{
		ID:        "stale",
		UserID:    user.ID,
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}

	_, err := uc.Refresh(context.Background(), "stale")
	if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND for expired session, got %v", err)
	}
	if _, ok := sessions.sessions["stale"]; ok {
		t.Error("expired session not purged")
	}
}

func TestRegister(t *testing.T) {
	uc, users, _ := newTestUseCase(t)
	seedUser(t, users, "alice", "hunter2pass", true)

	created, err := uc.Register(context.Background(), "bob", "longenough1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if created.PasswordHash == "longenough1" {
		t.Error("password stored in plain text")
	}
	if !created.Enabled || !created.HasRole(domain.RoleUser) {
		t.Errorf("unexpected account state: %+v", created)
	}

	if _, err := uc.Register(context.Background(), "alice", "longenough1"); !domain.IsDomainError(err, domain.ErrCodeConflict) {
		t.Errorf("duplicate username: expected CONFLICT, got %v", err)
	}
	if _, err := uc.Register(context.Background(), "x", "longenough1"); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Errorf("short username: expected INVALID, got %v", err)
	}
	if _, err := uc.Register(context.Background(), "carol", "short"); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Errorf("short password: expected INVALID, got %v", err)
	}
}

func TestLogout(t *testing.T) {
	uc, users, sessions := newTestUseCase(t)
	seedUser(t, users, "alice", "hunter2pass", true)

	token, err := uc.Login(context.Background(), "alice", "hunter2pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := uc.Logout(context.Background(), token.SessionID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, ok := sessions.sessions[token.SessionID]; ok {
		t.Error("session survived logout")
	}
}
