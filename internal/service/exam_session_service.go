package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/stemsi/qbank-backend/internal/model"
)

// ExamSessionStore persists exam sessions.
type ExamSessionStore interface {
	Create(ctx context.Context, s *model.ExamSession) error
	ListByEmail(ctx context.Context, email string) ([]model.ExamSession, error)
}

// ExamSessionService records the tests a user has started.
type ExamSessionService struct {
	sessions ExamSessionStore
}

// NewExamSessionService creates a new ExamSessionService.
func NewExamSessionService(sessions ExamSessionStore) *ExamSessionService {
	return &ExamSessionService{sessions: sessions}
}

// Start opens a session for the user's email.
func (s *ExamSessionService) Start(ctx context.Context, email, testID string) (*model.ExamSession, error) {
	es := &model.ExamSession{Email: NormalizeEmail(email), TestID: strings.TrimSpace(testID)}
	if err := s.sessions.Create(ctx, es); err != nil {
		return nil, fmt.Errorf("%w: create session: %w", ErrPersistence, err)
	}
	return es, nil
}

// List returns the user's sessions, newest first. It never returns nil.
func (s *ExamSessionService) List(ctx context.Context, email string) ([]model.ExamSession, error) {
	list, err := s.sessions.ListByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions: %w", ErrPersistence, err)
	}
	if list == nil {
		list = []model.ExamSession{}
	}
	return list, nil
}
