package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/qbank-backend/internal/model"
)

// ExamSessionRepository handles exam session data access.
type ExamSessionRepository struct {
	pool *pgxpool.Pool
}

// NewExamSessionRepository creates a new ExamSessionRepository.
func NewExamSessionRepository(pool *pgxpool.Pool) *ExamSessionRepository {
	return &ExamSessionRepository{pool: pool}
}

// Create inserts a new session.
func (r *ExamSessionRepository) Create(ctx context.Context, s *model.ExamSession) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions (email, test_id)
		 VALUES ($1, $2)
		 RETURNING id, created_at`,
		s.Email, s.TestID,
	).Scan(&s.ID, &s.CreatedAt)
}

// ListByEmail returns a user's sessions, newest first.
func (r *ExamSessionRepository) ListByEmail(ctx context.Context, email string) ([]model.ExamSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, email, test_id, created_at
		 FROM exam_sessions WHERE email = $1
		 ORDER BY created_at DESC`, email,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.ExamSession
	for rows.Next() {
		var s model.ExamSession
		if err := rows.Scan(&s.ID, &s.Email, &s.TestID, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
