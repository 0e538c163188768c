package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/logger"
	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stemsi/qbank-backend/internal/validator"
	"go.mongodb.org/mongo-driver/mongo"
)

// QuestionStore persists and samples question documents.
type QuestionStore interface {
	Insert(ctx context.Context, doc model.QuestionDocument) error
	Sample(ctx context.Context, kind model.QuestionKind, filter model.RandomQuestionFilter) (model.QuestionDocument, error)
}

// APIErrorLogger records request-scoped failures.
type APIErrorLogger interface {
	LogAPIError(err error, rc logger.RequestContext)
}

// QuestionService handles question business logic.
type QuestionService struct {
	store  QuestionStore
	errLog APIErrorLogger
	log    zerolog.Logger
	now    func() time.Time
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(store QuestionStore, errLog APIErrorLogger, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		store:  store,
		errLog: errLog,
		log:    log.With().Str("component", "question_service").Logger(),
		now:    time.Now,
	}
}

// Create builds the document for a validated input and saves it. info
// identifies the originating request in error log entries.
func (s *QuestionService) Create(ctx context.Context, input model.QuestionInput, info logger.RequestContext) (model.QuestionDocument, error) {
	doc := input.Document(s.now().UTC())

	if err := validator.Document(doc); err != nil {
		err = fmt.Errorf("%w: %w", ErrValidation, err)
		info.StatusCode = http.StatusBadRequest
		s.errLog.LogAPIError(err, info)
		return nil, err
	}

	if err := s.store.Insert(ctx, doc); err != nil {
		err = fmt.Errorf("%w: insert %s question: %w", ErrPersistence, input.Kind(), err)
		info.StatusCode = http.StatusInternalServerError
		s.errLog.LogAPIError(err, info)
		s.log.Error().Err(err).Str("kind", string(input.Kind())).Msg("failed to save question")
		return nil, err
	}

	s.log.Debug().
		Str("kind", string(input.Kind())).
		Str("id", doc.DocumentID().Hex()).
		Msg("question created")
	return doc, nil
}

// Random returns one randomly sampled question of the given kind.
func (s *QuestionService) Random(ctx context.Context, kind model.QuestionKind, filter model.RandomQuestionFilter, info logger.RequestContext) (model.QuestionDocument, error) {
	if _, ok := model.ParseKind(string(kind)); !ok {
		return nil, ErrUnknownKind
	}

	doc, err := s.store.Sample(ctx, kind, filter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		err = fmt.Errorf("%w: sample %s question: %w", ErrPersistence, kind, err)
		info.StatusCode = http.StatusInternalServerError
		s.errLog.LogAPIError(err, info)
		return nil, err
	}
	return doc, nil
}
