package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/qbank-backend/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionRevoked     = errors.New("session revoked")
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
}

// SessionStore tracks issued token ids so that logout can revoke them.
type SessionStore interface {
	Register(ctx context.Context, userID int, jti string, ttl time.Duration) error
	Active(ctx context.Context, userID int, jti string) (bool, error)
	Revoke(ctx context.Context, userID int, jti string) error
}

// RedisSessionStore keeps one key per issued token, expiring with the token.
type RedisSessionStore struct {
	rdb *redis.Client
}

// NewRedisSessionStore creates a SessionStore backed by Redis.
func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func (s *RedisSessionStore) Register(ctx context.Context, userID int, jti string, ttl time.Duration) error {
	return s.rdb.Set(ctx, config.CacheKey.UserTokenKey(userID, jti), "1", ttl).Err()
}

func (s *RedisSessionStore) Active(ctx context.Context, userID int, jti string) (bool, error) {
	n, err := s.rdb.Exists(ctx, config.CacheKey.UserTokenKey(userID, jti)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *RedisSessionStore) Revoke(ctx context.Context, userID int, jti string) error {
	return s.rdb.Del(ctx, config.CacheKey.UserTokenKey(userID, jti)).Err()
}

// AuthService handles password hashing, JWT issuance and session tracking.
type AuthService struct {
	cfg      *config.Config
	sessions SessionStore
	now      func() time.Time

	placeholderOnce sync.Once
	placeholder     string
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, sessions SessionStore) *AuthService {
	return &AuthService{cfg: cfg, sessions: sessions, now: time.Now}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// placeholderHash returns a bcrypt hash of a random secret at the configured
// cost, for comparisons that must not short-circuit.
func (s *AuthService) placeholderHash() string {
	s.placeholderOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.cfg.BcryptCost)
		if err == nil {
			s.placeholder = string(hash)
		}
	})
	return s.placeholder
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// GenerateToken signs a JWT for the user and registers its id in the session store.
func (s *AuthService) GenerateToken(ctx context.Context, userID int, email string) (string, error) {
	jti := uuid.New().String()
	now := s.now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		UserID: userID,
		Email:  email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	if err := s.sessions.Register(ctx, userID, jti, s.cfg.JWTExpiry); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// ValidateSession checks that the token has not been revoked.
func (s *AuthService) ValidateSession(ctx context.Context, claims *Claims) error {
	ok, err := s.sessions.Active(ctx, claims.UserID, claims.ID)
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if !ok {
		return ErrSessionRevoked
	}
	return nil
}

// RevokeSession invalidates the token identified by claims.
func (s *AuthService) RevokeSession(ctx context.Context, claims *Claims) error {
	return s.sessions.Revoke(ctx, claims.UserID, claims.ID)
}
