package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/model"
)

const uniqueViolation = "23505"

// UserStore reads and writes user accounts.
type UserStore interface {
	GetByID(ctx context.Context, id int) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
}

// UserService handles registration and login.
type UserService struct {
	users UserStore
	auth  *AuthService
	log   zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore, auth *AuthService, log zerolog.Logger) *UserService {
	return &UserService{
		users: users,
		auth:  auth,
		log:   log.With().Str("component", "user_service").Logger(),
	}
}

// NormalizeEmail lower-cases and trims an address before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and signs the user in.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error) {
	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{Email: NormalizeEmail(req.Email), PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("%w: create user: %w", ErrPersistence, err)
	}

	s.log.Info().Int("user_id", u.ID).Msg("user registered")
	return s.issue(ctx, u)
}

// Login verifies credentials and returns a fresh token.
func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	u, err := s.users.GetByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Unknown emails pay the same bcrypt cost as known ones.
			_ = s.auth.CheckPassword(s.auth.placeholderHash(), req.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: get user: %w", ErrPersistence, err)
	}

	if err := s.auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
		return nil, err
	}
	return s.issue(ctx, u)
}

// Me returns the user identified by a validated token.
func (s *UserService) Me(ctx context.Context, userID int) (*model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: get user: %w", ErrPersistence, err)
	}
	return u, nil
}

func (s *UserService) issue(ctx context.Context, u *model.User) (*model.AuthResponse, error) {
	token, err := s.auth.GenerateToken(ctx, u.ID, u.Email)
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{
		Token: token,
		User:  model.UserSummary{Email: u.Email, ID: u.ID},
	}, nil
}
