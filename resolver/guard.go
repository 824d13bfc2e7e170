package resolver

import (
	"context"
	"errors"
	"fmt"

	"qbank/models"
	"qbank/slug"
	"qbank/store"
)

// ErrSlugExhausted is returned when every counter suffix up to the
// configured limit is taken.
var ErrSlugExhausted = errors.New("no free slug within attempt limit")

// Guard hands out slugs that are unique within a category. Probing is not
// atomic; the storage unique index is the final arbiter, and the write
// paths retry with the next counter on a conflict.
type Guard struct {
	store       store.QuestionStore
	maxAttempts int
}

func NewGuard(st store.QuestionStore, maxAttempts int) *Guard {
	if maxAttempts < 1 {
		maxAttempts = DefaultTuning().MaxSlugAttempts
	}
	return &Guard{store: st, maxAttempts: maxAttempts}
}

// EnsureUniqueSlug derives a slug from text that no question other than
// excludeID holds in categoryID. Pass an empty excludeID for new questions.
func (g *Guard) EnsureUniqueSlug(ctx context.Context, text, excludeID, categoryID string) (string, error) {
	candidate, _, err := g.firstFree(ctx, slug.ForQuestion(text), 0, excludeID, categoryID)
	return candidate, err
}

// AssignSlug gives an existing question a slug and persists it. preferred
// is used when it is well-formed and free; otherwise a question that already
// has a slug keeps it, and one without gets a slug derived from its text.
func (g *Guard) AssignSlug(ctx context.Context, q *models.Question, preferred string) (string, error) {
	if preferred != "" && slug.Valid(preferred) {
		if preferred == q.Slug {
			return preferred, nil
		}
		owner, err := g.store.SlugOwner(ctx, q.CategoryID, preferred)
		if err != nil {
			return "", err
		}
		if owner == "" || owner == q.ID {
			err := g.store.UpdateSlug(ctx, q.ID, preferred)
			if err == nil {
				return preferred, nil
			}
			if !errors.Is(err, store.ErrSlugConflict) {
				return "", err
			}
		}
	}
	if q.HasSlug() {
		return q.Slug, nil
	}

	base := slug.ForQuestion(q.Text)
	for counter := 0; ; counter++ {
		candidate, used, err := g.firstFree(ctx, base, counter, q.ID, q.CategoryID)
		if err != nil {
			return "", err
		}
		err = g.store.UpdateSlug(ctx, q.ID, candidate)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, store.ErrSlugConflict) {
			return "", err
		}
		counter = used
	}
}

// Insert creates q with a unique slug. A valid preferred slug is used as
// the base; otherwise the base is derived from the question text.
func (g *Guard) Insert(ctx context.Context, q *models.Question, preferred string) error {
	base := preferred
	if base == "" || !slug.Valid(base) {
		base = slug.ForQuestion(q.Text)
	}
	for counter := 0; ; counter++ {
		candidate, used, err := g.firstFree(ctx, base, counter, "", q.CategoryID)
		if err != nil {
			return err
		}
		q.Slug = candidate
		err = g.store.Create(ctx, q)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrSlugConflict) {
			return err
		}
		counter = used
	}
}

// firstFree probes base, base-1, base-2... starting at counter from and
// returns the first candidate that is free or owned by excludeID, with the
// counter it used.
func (g *Guard) firstFree(ctx context.Context, base string, from int, excludeID, categoryID string) (string, int, error) {
	for counter := from; counter <= g.maxAttempts; counter++ {
		candidate := slug.WithCounter(base, counter)
		owner, err := g.store.SlugOwner(ctx, categoryID, candidate)
		if err != nil {
			return "", counter, fmt.Errorf("probe slug %q: %w", candidate, err)
		}
		if owner == "" || (excludeID != "" && owner == excludeID) {
			return candidate, counter, nil
		}
	}
	return "", g.maxAttempts, fmt.Errorf("%w: %q after %d attempts", ErrSlugExhausted, base, g.maxAttempts)
}
