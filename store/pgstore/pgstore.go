// Package pgstore implements store.Store on PostgreSQL through gorm.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"qbank/models"
	"qbank/store"
)

const orderAsc = "created_at ASC, id ASC"

type Store struct {
	db *gorm.DB
}

// New wraps db. The connection should be opened with TranslateError enabled
// so unique violations surface as gorm.ErrDuplicatedKey.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the tables and the partial unique index on
// (category_id, slug).
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&models.Category{}, &models.Question{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	// Category lookups are case-insensitive, so uniqueness must be too.
	err := s.db.WithContext(ctx).
		Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_lower ON categories (LOWER(name))").Error
	if err != nil {
		return fmt.Errorf("create category name index: %w", err)
	}
	return nil
}

func (s *Store) FindBySlug(ctx context.Context, categoryID, slug string) (*models.Question, error) {
	var q models.Question
	err := s.db.WithContext(ctx).
		Where("category_id = ? AND slug = ? AND slug <> ''", categoryID, slug).
		First(&q).Error
	return one(&q, err)
}

func (s *Store) FindByID(ctx context.Context, categoryID, id string) (*models.Question, error) {
	var q models.Question
	err := s.db.WithContext(ctx).
		Where("id = ? AND category_id = ?", id, categoryID).
		First(&q).Error
	return one(&q, err)
}

func (s *Store) FindByIDPrefix(ctx context.Context, categoryID, prefix string) ([]models.Question, error) {
	var questions []models.Question
	err := s.db.WithContext(ctx).
		Where("category_id = ? AND id LIKE ?", categoryID, escapeLike(prefix)+"%").
		Order(orderAsc).
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("find by id prefix: %w", err)
	}
	return questions, nil
}

func (s *Store) ListByCategory(ctx context.Context, categoryID string, limit int) ([]models.Question, error) {
	var questions []models.Question
	query := s.db.WithContext(ctx).Where("category_id = ?", categoryID).Order(orderAsc)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("list by category: %w", err)
	}
	return questions, nil
}

func (s *Store) FindByAnyWord(ctx context.Context, categoryID string, words []string, limit int) ([]models.Question, error) {
	pattern := WordPattern(words)
	if pattern == "" {
		return nil, nil
	}
	var questions []models.Question
	query := s.db.WithContext(ctx).
		Where("category_id = ? AND text ~* ?", categoryID, pattern).
		Order(orderAsc)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("find by any word: %w", err)
	}
	return questions, nil
}

func (s *Store) SlugOwner(ctx context.Context, categoryID, slug string) (string, error) {
	if slug == "" {
		return "", nil
	}
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.Question{}).
		Where("category_id = ? AND slug = ?", categoryID, slug).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return "", fmt.Errorf("probe slug: %w", err)
	}
	if len(ids) == 0 {
		return "", nil
	}
	return ids[0], nil
}

func (s *Store) UpdateSlug(ctx context.Context, id, slug string) error {
	result := s.db.WithContext(ctx).Model(&models.Question{}).
		Where("id = ?", id).
		Update("slug", slug)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return store.ErrSlugConflict
		}
		return fmt.Errorf("update slug: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Create(ctx context.Context, q *models.Question) error {
	if q.ID == "" {
		q.ID = models.NewID()
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(q).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return store.ErrSlugConflict
		}
		return fmt.Errorf("create question: %w", err)
	}
	return nil
}

func (s *Store) Neighbors(ctx context.Context, q *models.Question) (string, string, error) {
	var prev, next []string
	err := s.db.WithContext(ctx).Model(&models.Question{}).
		Where("category_id = ? AND (created_at < ? OR (created_at = ? AND id < ?))",
			q.CategoryID, q.CreatedAt, q.CreatedAt, q.ID).
		Order("created_at DESC, id DESC").
		Limit(1).
		Pluck("id", &prev).Error
	if err != nil {
		return "", "", fmt.Errorf("previous question: %w", err)
	}
	err = s.db.WithContext(ctx).Model(&models.Question{}).
		Where("category_id = ? AND (created_at > ? OR (created_at = ? AND id > ?))",
			q.CategoryID, q.CreatedAt, q.CreatedAt, q.ID).
		Order(orderAsc).
		Limit(1).
		Pluck("id", &next).Error
	if err != nil {
		return "", "", fmt.Errorf("next question: %w", err)
	}
	return first(prev), first(next), nil
}

func (s *Store) ListWithoutSlug(ctx context.Context, limit int) ([]models.Question, error) {
	var questions []models.Question
	query := s.db.WithContext(ctx).Where("slug = ''").Order(orderAsc)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("list questions without slug: %w", err)
	}
	return questions, nil
}

func (s *Store) FindCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var c models.Category
	err := s.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	return &c, nil
}

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	if c.ID == "" {
		c.ID = models.NewID()
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return store.ErrCategoryExists
		}
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// WordPattern builds a case-insensitive POSIX regex alternation matching any
// of words. Empty words are skipped.
func WordPattern(words []string) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		parts = append(parts, regexp.QuoteMeta(w))
	}
	return strings.Join(parts, "|")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func one(q *models.Question, err error) (*models.Question, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("find question: %w", err)
	}
	return q, nil
}

func first(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

var _ store.Store = (*Store)(nil)
