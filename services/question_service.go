package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"qbank/cache"
	"qbank/logging"
	"qbank/models"
	"qbank/resolver"
	"qbank/store"
)

const (
	StatusFound     = "found"
	StatusNotFound  = "not_found"
	StatusAmbiguous = "ambiguous"
)

// QuestionView is the resolution result handed to callers and cached per
// (category, identifier).
type QuestionView struct {
	Status          string           `json:"status"`
	Question        *models.Question `json:"question,omitempty"`
	Strategy        string           `json:"strategy,omitempty"`
	PrevID          string           `json:"prev_id,omitempty"`
	NextID          string           `json:"next_id,omitempty"`
	NeighborsLoaded bool             `json:"neighbors_loaded,omitempty"`
}

type CreateQuestionRequest struct {
	Text        string   `json:"text" binding:"required"`
	Options     []string `json:"options" binding:"max=10"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
	Submitter   string   `json:"submitter"`
	Slug        string   `json:"slug"`
}

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

type BackfillResult struct {
	Scanned  int `json:"scanned"`
	Assigned int `json:"assigned"`
	Failed   int `json:"failed"`
}

type QuestionService struct {
	store    store.Store
	resolver *resolver.Resolver
	guard    *resolver.Guard
	cache    cache.Store[QuestionView]
	logger   *slog.Logger
}

func NewQuestionService(st store.Store, r *resolver.Resolver, guard *resolver.Guard, c cache.Store[QuestionView], logger *slog.Logger) *QuestionService {
	return &QuestionService{
		store:    st,
		resolver: r,
		guard:    guard,
		cache:    c,
		logger:   logging.OrNop(logger).With("component", "question_service"),
	}
}

// Lookup resolves identifier within the named category. NotFound and
// Ambiguous outcomes are returned as resolver.ErrNotFound and
// resolver.ErrAmbiguous; they are cached like found results.
func (s *QuestionService) Lookup(ctx context.Context, categoryName, identifier string, withNeighbors bool) (*QuestionView, error) {
	categoryName = strings.TrimSpace(categoryName)
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if categoryName == "" || identifier == "" {
		return nil, fmt.Errorf("%w: category and identifier are required", resolver.ErrInvalidInput)
	}

	category, err := s.store.FindCategoryByName(ctx, categoryName)
	if err != nil {
		return nil, err
	}

	if view, ok := s.cache.Get(ctx, category.ID, identifier); ok {
		if view.Status == StatusFound && withNeighbors && !view.NeighborsLoaded {
			if err := s.loadNeighbors(ctx, &view); err != nil {
				return nil, err
			}
			s.cache.Put(ctx, category.ID, identifier, view)
		}
		return viewResult(view)
	}

	res, err := s.resolver.Resolve(ctx, category.ID, identifier)
	var view QuestionView
	switch {
	case err == nil:
		view = QuestionView{Status: StatusFound, Question: res.Question, Strategy: res.Strategy}
		if withNeighbors {
			if err := s.loadNeighbors(ctx, &view); err != nil {
				return nil, err
			}
		}
	case errors.Is(err, resolver.ErrNotFound):
		view = QuestionView{Status: StatusNotFound}
	case errors.Is(err, resolver.ErrAmbiguous):
		view = QuestionView{Status: StatusAmbiguous}
	default:
		return nil, err
	}

	s.cache.Put(ctx, category.ID, identifier, view)
	return viewResult(view)
}

func (s *QuestionService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", resolver.ErrInvalidInput)
	}
	category := models.Category{Name: name}
	if err := s.store.CreateCategory(ctx, &category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &category, nil
}

// CreateQuestion stores a new question in the named category with a slug
// that is unique there. A valid caller-supplied slug is used as the base.
func (s *QuestionService) CreateQuestion(ctx context.Context, categoryName string, req *CreateQuestionRequest) (*models.Question, error) {
	category, err := s.store.FindCategoryByName(ctx, strings.TrimSpace(categoryName))
	if err != nil {
		return nil, err
	}

	question := models.Question{
		ID:          models.NewID(),
		CategoryID:  category.ID,
		Text:        strings.TrimSpace(req.Text),
		Options:     req.Options,
		Answer:      req.Answer,
		Explanation: req.Explanation,
		Submitter:   req.Submitter,
	}
	if err := s.guard.Insert(ctx, &question, strings.ToLower(strings.TrimSpace(req.Slug))); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	// The new question may have been looked up, and cached as missing,
	// under its slug or id before it existed.
	s.cache.Delete(ctx, category.ID, question.Slug)
	s.cache.Delete(ctx, category.ID, question.ID)

	s.logger.Info("question created",
		"event_type", "question_created",
		"question_id", question.ID,
		"category_id", category.ID,
		"slug", question.Slug)
	return &question, nil
}

// BackfillSlugs assigns slugs to questions that have none, batchSize at a
// time, until none remain or a whole batch fails.
func (s *QuestionService) BackfillSlugs(ctx context.Context, batchSize int) (BackfillResult, error) {
	if batchSize < 1 {
		batchSize = 100
	}
	var result BackfillResult
	failed := make(map[string]struct{})

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		batch, err := s.store.ListWithoutSlug(ctx, batchSize+len(failed))
		if err != nil {
			return result, fmt.Errorf("list questions without slug: %w", err)
		}

		progressed := false
		for i := range batch {
			q := &batch[i]
			if _, skip := failed[q.ID]; skip {
				continue
			}
			result.Scanned++
			assigned, err := s.guard.AssignSlug(ctx, q, "")
			if err != nil {
				result.Failed++
				failed[q.ID] = struct{}{}
				s.logger.Warn("slug backfill failed",
					"event_type", "slug_backfill_failed",
					"question_id", q.ID,
					"error", err)
				continue
			}
			result.Assigned++
			progressed = true
			s.logger.Debug("slug backfilled",
				"event_type", "slug_backfilled",
				"question_id", q.ID,
				"slug", assigned)
		}
		if !progressed {
			break
		}
	}

	s.logger.Info("slug backfill complete",
		"event_type", "slug_backfill_complete",
		"scanned", result.Scanned,
		"assigned", result.Assigned,
		"failed", result.Failed)
	return result, nil
}

func (s *QuestionService) loadNeighbors(ctx context.Context, view *QuestionView) error {
	prev, next, err := s.store.Neighbors(ctx, view.Question)
	if err != nil {
		return fmt.Errorf("load neighbors: %w", err)
	}
	view.PrevID, view.NextID, view.NeighborsLoaded = prev, next, true
	return nil
}

func viewResult(view QuestionView) (*QuestionView, error) {
	switch view.Status {
	case StatusNotFound:
		return nil, resolver.ErrNotFound
	case StatusAmbiguous:
		return nil, resolver.ErrAmbiguous
	}
	return &view, nil
}
