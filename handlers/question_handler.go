package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"qbank/logging"
	"qbank/models"
	"qbank/resolver"
	"qbank/services"
	"qbank/store"

	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	questionService *services.QuestionService
	logger          *slog.Logger
}

func NewQuestionHandler(questionService *services.QuestionService, logger *slog.Logger) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		logger:          logging.OrNop(logger).With("component", "question_handler"),
	}
}

type LookupResponse struct {
	Question *models.Question `json:"question"`
	PrevID   string           `json:"prev_id"`
	NextID   string           `json:"next_id"`
	Strategy string           `json:"strategy"`
}

// GetQuestion resolves a question by slug, id, id fragment or text.
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	withNeighbors := true
	if raw := c.Query("neighbors"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid neighbors flag"})
			return
		}
		withNeighbors = parsed
	}

	view, err := h.questionService.Lookup(c.Request.Context(), c.Param("category"), c.Param("identifier"), withNeighbors)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, LookupResponse{
		Question: view.Question,
		PrevID:   view.PrevID,
		NextID:   view.NextID,
		Strategy: view.Strategy,
	})
}

func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var req services.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	question, err := h.questionService.CreateQuestion(c.Request.Context(), c.Param("category"), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

func (h *QuestionHandler) CreateCategory(c *gin.Context) {
	var req services.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.questionService.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, category)
}

func (h *QuestionHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, resolver.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
	case errors.Is(err, resolver.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
	case errors.Is(err, resolver.ErrAmbiguous):
		c.JSON(http.StatusConflict, gin.H{"error": "Identifier matches more than one question", "code": "ambiguous"})
	case errors.Is(err, store.ErrCategoryExists):
		c.JSON(http.StatusConflict, gin.H{"error": "Category already exists", "code": "category_exists"})
	case errors.Is(err, resolver.ErrSlugExhausted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "slug_exhausted"})
	default:
		_ = c.Error(err)
		h.logger.Error("request failed",
			"event_type", "request_failed",
			"path", c.FullPath(),
			"error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
