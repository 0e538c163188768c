package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/config"
	"github.com/stemsi/qbank-backend/internal/model"
	"golang.org/x/crypto/bcrypt"
)

type memorySessions struct {
	mu   sync.Mutex
	keys map[string]time.Duration
}

func newMemorySessions() *memorySessions {
	return &memorySessions{keys: make(map[string]time.Duration)}
}

func (m *memorySessions) Register(_ context.Context, userID int, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[config.CacheKey.UserTokenKey(userID, jti)] = ttl
	return nil
}

func (m *memorySessions) Active(_ context.Context, userID int, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keys[config.CacheKey.UserTokenKey(userID, jti)]
	return ok, nil
}

func (m *memorySessions) Revoke(_ context.Context, userID int, jti string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, config.CacheKey.UserTokenKey(userID, jti))
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: bcrypt.MinCost,
	}
}

func TestAuthServiceTokenLifecycle(t *testing.T) {
	sessions := newMemorySessions()
	auth := NewAuthService(testConfig(), sessions)
	ctx := context.Background()

	token, err := auth.GenerateToken(ctx, 7, "ana@example.com")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 7 || claims.Email != "ana@example.com" || claims.Subject != "7" {
		t.Errorf("claims = %+v", claims)
	}
	if ttl := sessions.keys[config.CacheKey.UserTokenKey(7, claims.ID)]; ttl != time.Hour {
		t.Errorf("session ttl = %v, want 1h", ttl)
	}

	if err := auth.ValidateSession(ctx, claims); err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}
	if err := auth.RevokeSession(ctx, claims); err != nil {
		t.Fatalf("RevokeSession: %v", err)
	}
	if err := auth.ValidateSession(ctx, claims); !errors.Is(err, ErrSessionRevoked) {
		t.Errorf("after revoke err = %v, want ErrSessionRevoked", err)
	}
}

func TestAuthServiceRejectsForeignAndExpiredTokens(t *testing.T) {
	ctx := context.Background()
	issuer := NewAuthService(&config.Config{JWTSecret: "other", JWTExpiry: time.Hour}, newMemorySessions())
	token, err := issuer.GenerateToken(ctx, 1, "a@b.c")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	auth := NewAuthService(testConfig(), newMemorySessions())
	if _, err := auth.ValidateToken(token); err == nil {
		t.Error("expected signature failure")
	}

	expired := NewAuthService(testConfig(), newMemorySessions())
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.GenerateToken(ctx, 1, "a@b.c")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := auth.ValidateToken(old); err == nil {
		t.Error("expected expiry failure")
	}
}

func TestAuthServicePasswords(t *testing.T) {
	auth := NewAuthService(testConfig(), newMemorySessions())

	hash, err := auth.HashPassword("rahasia123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := auth.CheckPassword(hash, "rahasia123"); err != nil {
		t.Errorf("CheckPassword(correct) = %v", err)
	}
	if err := auth.CheckPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("CheckPassword(wrong) = %v, want ErrInvalidCredentials", err)
	}
}

type fakeUserStore struct {
	byEmail map[string]*model.User
	nextID  int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: make(map[string]*model.User)}
}

func (f *fakeUserStore) GetByID(_ context.Context, id int) (*model.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserStore) Create(_ context.Context, u *model.User) error {
	if _, ok := f.byEmail[u.Email]; ok {
		return fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	}
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	f.byEmail[u.Email] = u
	return nil
}

func TestUserServiceRegisterAndLogin(t *testing.T) {
	users := newFakeUserStore()
	auth := NewAuthService(testConfig(), newMemorySessions())
	svc := NewUserService(users, auth, zerolog.Nop())
	ctx := context.Background()

	reg, err := svc.Register(ctx, model.RegisterRequest{Email: "  Ana@Example.COM ", Password: "rahasia123"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.Token == "" || reg.User.Email != "ana@example.com" || reg.User.ID != 1 {
		t.Errorf("register response = %+v", reg)
	}
	if users.byEmail["ana@example.com"].PasswordHash == "rahasia123" {
		t.Error("password stored in clear text")
	}

	login, err := svc.Login(ctx, model.LoginRequest{Email: "ANA@example.com", Password: "rahasia123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.User.ID != 1 || login.Token == reg.Token {
		t.Errorf("login response = %+v", login)
	}

	me, err := svc.Me(ctx, 1)
	if err != nil || me.Email != "ana@example.com" {
		t.Errorf("Me = %+v, %v", me, err)
	}
}

func TestUserServiceRegisterDuplicate(t *testing.T) {
	users := newFakeUserStore()
	svc := NewUserService(users, NewAuthService(testConfig(), newMemorySessions()), zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.Register(ctx, model.RegisterRequest{Email: "ana@example.com", Password: "rahasia123"}); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	_, err := svc.Register(ctx, model.RegisterRequest{Email: "ANA@example.com", Password: "lainnya123"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestUserServiceLoginFailures(t *testing.T) {
	users := newFakeUserStore()
	svc := NewUserService(users, NewAuthService(testConfig(), newMemorySessions()), zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.Login(ctx, model.LoginRequest{Email: "nobody@example.com", Password: "x"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v, want ErrInvalidCredentials", err)
	}

	if _, err := svc.Register(ctx, model.RegisterRequest{Email: "ana@example.com", Password: "rahasia123"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Login(ctx, model.LoginRequest{Email: "ana@example.com", Password: "salah"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v, want ErrInvalidCredentials", err)
	}

	if _, err := svc.Me(ctx, 99); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Me(unknown) err = %v, want ErrUnauthorized", err)
	}
}

func TestUserServiceUnknownEmailRunsBcrypt(t *testing.T) {
	auth := NewAuthService(testConfig(), newMemorySessions())
	svc := NewUserService(newFakeUserStore(), auth, zerolog.Nop())

	_, err := svc.Login(context.Background(), model.LoginRequest{Email: "nobody@example.com", Password: "rahasia123"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if auth.placeholder == "" {
		t.Fatal("unknown email skipped the password comparison")
	}
	cost, err := bcrypt.Cost([]byte(auth.placeholder))
	if err != nil || cost != testConfig().BcryptCost {
		t.Errorf("placeholder cost = %d, %v", cost, err)
	}
}

type brokenUserStore struct{ err error }

func (b brokenUserStore) GetByID(context.Context, int) (*model.User, error)       { return nil, b.err }
func (b brokenUserStore) GetByEmail(context.Context, string) (*model.User, error) { return nil, b.err }
func (b brokenUserStore) Create(context.Context, *model.User) error               { return b.err }

func TestUserServiceStoreFailuresArePersistenceErrors(t *testing.T) {
	cause := errors.New("connection reset by peer")
	svc := NewUserService(brokenUserStore{err: cause}, NewAuthService(testConfig(), newMemorySessions()), zerolog.Nop())
	ctx := context.Background()

	_, regErr := svc.Register(ctx, model.RegisterRequest{Email: "ana@example.com", Password: "rahasia123"})
	_, loginErr := svc.Login(ctx, model.LoginRequest{Email: "ana@example.com", Password: "rahasia123"})
	_, meErr := svc.Me(ctx, 1)

	for name, err := range map[string]error{"Register": regErr, "Login": loginErr, "Me": meErr} {
		if !errors.Is(err, ErrPersistence) || !errors.Is(err, cause) {
			t.Errorf("%s err = %v, want ErrPersistence wrapping the store error", name, err)
		}
	}
}
