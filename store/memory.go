package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"qbank/models"
)

// Memory is a process-local Store. It is safe for concurrent use and is
// intended for tests and single-node development.
type Memory struct {
	mu         sync.RWMutex
	questions  map[string]models.Question
	categories map[string]models.Category
	now        func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		questions:  make(map[string]models.Question),
		categories: make(map[string]models.Category),
		now:        time.Now,
	}
}

func (m *Memory) FindBySlug(_ context.Context, categoryID, slug string) (*models.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, q := range m.questions {
		if q.CategoryID == categoryID && q.Slug != "" && q.Slug == slug {
			found := q
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindByID(_ context.Context, categoryID, id string) (*models.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q, ok := m.questions[id]
	if !ok || q.CategoryID != categoryID {
		return nil, ErrNotFound
	}
	return &q, nil
}

func (m *Memory) FindByIDPrefix(_ context.Context, categoryID, prefix string) ([]models.Question, error) {
	return m.filter(categoryID, 0, func(q *models.Question) bool {
		return strings.HasPrefix(q.ID, prefix)
	}), nil
}

func (m *Memory) ListByCategory(_ context.Context, categoryID string, limit int) ([]models.Question, error) {
	return m.filter(categoryID, limit, func(*models.Question) bool { return true }), nil
}

func (m *Memory) FindByAnyWord(_ context.Context, categoryID string, words []string, limit int) ([]models.Question, error) {
	if len(words) == 0 {
		return nil, nil
	}
	lowered := make([]string, len(words))
	for i, w := range words {
		lowered[i] = strings.ToLower(w)
	}
	return m.filter(categoryID, limit, func(q *models.Question) bool {
		text := strings.ToLower(q.Text)
		for _, w := range lowered {
			if strings.Contains(text, w) {
				return true
			}
		}
		return false
	}), nil
}

func (m *Memory) SlugOwner(_ context.Context, categoryID, slug string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.slugOwnerLocked(categoryID, slug), nil
}

func (m *Memory) UpdateSlug(_ context.Context, id, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.questions[id]
	if !ok {
		return ErrNotFound
	}
	if owner := m.slugOwnerLocked(q.CategoryID, slug); owner != "" && owner != id {
		return ErrSlugConflict
	}
	q.Slug = slug
	q.UpdatedAt = m.now()
	m.questions[id] = q
	return nil
}

func (m *Memory) Create(_ context.Context, q *models.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if q.ID == "" {
		q.ID = models.NewID()
	}
	if q.Slug != "" && m.slugOwnerLocked(q.CategoryID, q.Slug) != "" {
		return ErrSlugConflict
	}
	now := m.now()
	if q.CreatedAt.IsZero() {
		q.CreatedAt = now
	}
	q.UpdatedAt = now
	m.questions[q.ID] = *q
	return nil
}

func (m *Memory) Neighbors(_ context.Context, q *models.Question) (string, string, error) {
	siblings := m.filter(q.CategoryID, 0, func(*models.Question) bool { return true })

	var prevID, nextID string
	for i := range siblings {
		s := &siblings[i]
		if s.ID == q.ID {
			continue
		}
		if Less(s, q) {
			prevID = s.ID
			continue
		}
		nextID = s.ID
		break
	}
	return prevID, nextID, nil
}

func (m *Memory) ListWithoutSlug(_ context.Context, limit int) ([]models.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Question
	for _, q := range m.questions {
		if q.Slug == "" {
			out = append(out, q)
		}
	}
	sortQuestions(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) FindCategoryByName(_ context.Context, name string) (*models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.categories {
		if strings.EqualFold(c.Name, name) {
			found := c
			return &found, nil
		}
	}
	return nil, ErrCategoryNotFound
}

func (m *Memory) CreateCategory(_ context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.categories {
		if strings.EqualFold(existing.Name, c.Name) {
			return ErrCategoryExists
		}
	}
	if c.ID == "" {
		c.ID = models.NewID()
	}
	now := m.now()
	c.CreatedAt = now
	c.UpdatedAt = now
	m.categories[c.ID] = *c
	return nil
}

// filter returns matching questions of categoryID in (CreatedAt, ID) order.
func (m *Memory) filter(categoryID string, limit int, keep func(*models.Question) bool) []models.Question {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Question
	for _, q := range m.questions {
		if q.CategoryID != categoryID {
			continue
		}
		if keep(&q) {
			out = append(out, q)
		}
	}
	sortQuestions(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *Memory) slugOwnerLocked(categoryID, slug string) string {
	if slug == "" {
		return ""
	}
	for id, q := range m.questions {
		if q.CategoryID == categoryID && q.Slug == slug {
			return id
		}
	}
	return ""
}

func sortQuestions(qs []models.Question) {
	sort.Slice(qs, func(i, j int) bool { return Less(&qs[i], &qs[j]) })
}
