package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamSession records a user taking a test.
type ExamSession struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	TestID    string    `json:"testID"`
	CreatedAt time.Time `json:"created_at"`
}

// StartSessionRequest is the payload for opening an exam session.
type StartSessionRequest struct {
	TestID string `json:"testID" binding:"required,notblank,max=100"`
}
