// Package store defines the storage contract the question identity engine
// relies on, along with an in-memory implementation. Database-backed
// implementations live in the pgstore and mongostore subpackages.
package store

import (
	"context"
	"errors"

	"qbank/models"
)

var (
	// ErrNotFound is returned when no question matches a single-record lookup.
	ErrNotFound = errors.New("question not found")
	// ErrCategoryNotFound is returned when a category name has no match.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrCategoryExists is returned when a category name is already taken,
	// compared case-insensitively.
	ErrCategoryExists = errors.New("category already exists")
	// ErrSlugConflict is returned when a write would bind a slug that another
	// question in the same category already holds.
	ErrSlugConflict = errors.New("slug already in use in category")
)

// QuestionStore is the set of query primitives the resolver, the slug guard
// and the question service need. Every multi-record query returns questions
// ordered by (CreatedAt, ID) ascending.
type QuestionStore interface {
	// FindBySlug returns the question in categoryID whose slug equals slug.
	FindBySlug(ctx context.Context, categoryID, slug string) (*models.Question, error)
	// FindByID returns the question with the given id if it belongs to categoryID.
	FindByID(ctx context.Context, categoryID, id string) (*models.Question, error)
	// FindByIDPrefix returns every question in categoryID whose id starts with prefix.
	FindByIDPrefix(ctx context.Context, categoryID, prefix string) ([]models.Question, error)
	// ListByCategory returns up to limit questions in categoryID.
	ListByCategory(ctx context.Context, categoryID string, limit int) ([]models.Question, error)
	// FindByAnyWord returns up to limit questions in categoryID whose text
	// contains any of words, matched case-insensitively.
	FindByAnyWord(ctx context.Context, categoryID string, words []string, limit int) ([]models.Question, error)
	// SlugOwner returns the id of the question holding slug in categoryID, or
	// "" when the slug is free.
	SlugOwner(ctx context.Context, categoryID, slug string) (string, error)
	// UpdateSlug sets the slug of question id. It returns ErrSlugConflict when
	// the category already binds slug to a different question.
	UpdateSlug(ctx context.Context, id, slug string) error
	// Create persists a new question. It returns ErrSlugConflict on a
	// duplicate (category, slug) pair.
	Create(ctx context.Context, q *models.Question) error
	// Neighbors returns the ids of the questions immediately before and after
	// q in its category, ordered by (CreatedAt, ID). Missing neighbors are "".
	Neighbors(ctx context.Context, q *models.Question) (prevID, nextID string, err error)
	// ListWithoutSlug returns up to limit questions with an empty slug across
	// all categories.
	ListWithoutSlug(ctx context.Context, limit int) ([]models.Question, error)
}

// CategoryStore resolves human-readable category names.
type CategoryStore interface {
	// FindCategoryByName performs a case-insensitive exact-name lookup.
	FindCategoryByName(ctx context.Context, name string) (*models.Category, error)
	// CreateCategory persists a new category. It returns ErrCategoryExists
	// when the name is taken.
	CreateCategory(ctx context.Context, c *models.Category) error
}

// Store bundles both contracts, which every backend implements.
type Store interface {
	QuestionStore
	CategoryStore
}

// Less orders questions by (CreatedAt, ID).
func Less(a, b *models.Question) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
