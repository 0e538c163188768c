package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stemsi/qbank-backend/internal/response"
	"github.com/stemsi/qbank-backend/internal/service"
	"github.com/stemsi/qbank-backend/internal/validator"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxExclude bounds the ?exclude= list of a random sample request.
const maxExclude = 200

// QuestionHandler handles question authoring and sampling endpoints.
type QuestionHandler struct {
	questionService *service.QuestionService
	errLog          service.APIErrorLogger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService, errLog service.APIErrorLogger) *QuestionHandler {
	return &QuestionHandler{questionService: questionService, errLog: errLog}
}

// CreateQuestion godoc
// POST /api/questions/category/:kind
// Validates the body against the kind's schema and stores the question.
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	kind, ok := model.ParseKind(c.Param("kind"))
	if !ok {
		response.Fail(c, http.StatusNotFound, response.ErrUnknownKind)
		return
	}

	input := kind.NewInput()
	fields, body := validator.BindBody(c, input)
	if fields != nil {
		err := fmt.Errorf("%w: %s", service.ErrValidation, response.FirstMessage(fields))
		h.errLog.LogAPIError(err, requestContext(c, http.StatusBadRequest, body))
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	doc, err := h.questionService.Create(c.Request.Context(), input, requestContext(c, 0, body))
	if err != nil {
		failWithOutcome(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Question created successfully", doc)
}

// RandomQuestion godoc
// GET /api/questions/:kind/random?exclude=id,id
// Returns one randomly sampled question of the kind.
func (h *QuestionHandler) RandomQuestion(c *gin.Context) {
	kind, ok := model.ParseKind(c.Param("kind"))
	if !ok {
		response.Fail(c, http.StatusNotFound, response.ErrUnknownKind)
		return
	}

	exclude, err := parseExclude(c.QueryArray("exclude"))
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"exclude": err.Error()})
		return
	}

	doc, err := h.questionService.Random(c.Request.Context(), kind, model.RandomQuestionFilter{Exclude: exclude}, requestContext(c, 0, nil))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.FailWithDetails(c, http.StatusNotFound, response.ErrNotFound, fmt.Sprintf("no %s question available", kind))
			return
		}
		failWithOutcome(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Question retrieved successfully", doc)
}

// ListKinds godoc
// GET /api/questions/kinds
// Lists the supported question categories.
func (h *QuestionHandler) ListKinds(c *gin.Context) {
	response.Success(c, http.StatusOK, "", gin.H{"kinds": model.Kinds()})
}

// parseExclude accepts repeated and comma-separated ObjectID hex values.
func parseExclude(values []string) ([]primitive.ObjectID, error) {
	var ids []primitive.ObjectID
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := primitive.ObjectIDFromHex(part)
			if err != nil {
				return nil, fmt.Errorf("exclude must list question ids, got %q", part)
			}
			ids = append(ids, id)
		}
	}
	if len(ids) > maxExclude {
		return nil, fmt.Errorf("exclude must contain at most %d ids", maxExclude)
	}
	return ids, nil
}
