// Package mongostore implements store.Store on MongoDB.
//
// Questions are stored with a native ObjectID _id. Prefix lookups compare
// against the hex form of the id, so they run as an aggregation expression
// rather than an index scan; they are only reached by legacy identifiers.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"qbank/models"
	"qbank/store"
)

const (
	questionsCollection  = "questions"
	categoriesCollection = "categories"
)

var ascending = bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}

type questionDoc struct {
	ID          bson.ObjectID `bson:"_id"`
	CategoryID  string        `bson:"categoryId"`
	Text        string        `bson:"text"`
	Options     []string      `bson:"options,omitempty"`
	Answer      string        `bson:"answer,omitempty"`
	Explanation string        `bson:"explanation,omitempty"`
	Submitter   string        `bson:"submitter,omitempty"`
	Slug        string        `bson:"slug,omitempty"`
	CreatedAt   time.Time     `bson:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt"`
}

type categoryDoc struct {
	ID        bson.ObjectID `bson:"_id"`
	Name      string        `bson:"name"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

type Store struct {
	questions  *mongo.Collection
	categories *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		questions:  db.Collection(questionsCollection),
		categories: db.Collection(categoriesCollection),
	}
}

// Migrate creates the ordering index and the partial unique index that
// backs the per-category slug invariant.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.questions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "categoryId", Value: 1}, {Key: "slug", Value: 1}},
			Options: options.Index().
				SetName("category_slug_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"slug": bson.M{"$gt": ""}}),
		},
		{
			Keys:    bson.D{{Key: "categoryId", Value: 1}, {Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("category_order"),
		},
	})
	if err != nil {
		return fmt.Errorf("create question indexes: %w", err)
	}
	_, err = s.categories.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetName("name_ci").SetUnique(true).SetCollation(&options.Collation{Locale: "en", Strength: 2}),
	})
	if err != nil {
		return fmt.Errorf("create category index: %w", err)
	}
	return nil
}

func (s *Store) FindBySlug(ctx context.Context, categoryID, slug string) (*models.Question, error) {
	if slug == "" {
		return nil, store.ErrNotFound
	}
	return s.findOne(ctx, bson.M{"categoryId": categoryID, "slug": slug})
}

func (s *Store) FindByID(ctx context.Context, categoryID, id string) (*models.Question, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid, "categoryId": categoryID})
}

func (s *Store) FindByIDPrefix(ctx context.Context, categoryID, prefix string) ([]models.Question, error) {
	filter := bson.M{
		"categoryId": categoryID,
		"$expr": bson.M{
			"$regexMatch": bson.M{
				"input": bson.M{"$toString": "$_id"},
				"regex": "^" + regexp.QuoteMeta(strings.ToLower(prefix)),
			},
		},
	}
	return s.findMany(ctx, filter, 0)
}

func (s *Store) ListByCategory(ctx context.Context, categoryID string, limit int) ([]models.Question, error) {
	return s.findMany(ctx, bson.M{"categoryId": categoryID}, limit)
}

func (s *Store) FindByAnyWord(ctx context.Context, categoryID string, words []string, limit int) ([]models.Question, error) {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			parts = append(parts, regexp.QuoteMeta(w))
		}
	}
	if len(parts) == 0 {
		return nil, nil
	}
	filter := bson.M{
		"categoryId": categoryID,
		"text":       bson.Regex{Pattern: strings.Join(parts, "|"), Options: "i"},
	}
	return s.findMany(ctx, filter, limit)
}

func (s *Store) SlugOwner(ctx context.Context, categoryID, slug string) (string, error) {
	if slug == "" {
		return "", nil
	}
	var doc struct {
		ID bson.ObjectID `bson:"_id"`
	}
	err := s.questions.FindOne(ctx,
		bson.M{"categoryId": categoryID, "slug": slug},
		options.FindOne().SetProjection(bson.M{"_id": 1}),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", nil
		}
		return "", fmt.Errorf("probe slug: %w", err)
	}
	return doc.ID.Hex(), nil
}

func (s *Store) UpdateSlug(ctx context.Context, id, slug string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrNotFound
	}
	res, err := s.questions.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"slug": slug, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrSlugConflict
		}
		return fmt.Errorf("update slug: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Create(ctx context.Context, q *models.Question) error {
	if q.ID == "" {
		q.ID = models.NewID()
	}
	now := time.Now().UTC()
	if q.CreatedAt.IsZero() {
		q.CreatedAt = now
	}
	q.UpdatedAt = now

	doc, err := toDoc(q)
	if err != nil {
		return err
	}
	if _, err := s.questions.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrSlugConflict
		}
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

func (s *Store) Neighbors(ctx context.Context, q *models.Question) (string, string, error) {
	oid, err := bson.ObjectIDFromHex(q.ID)
	if err != nil {
		return "", "", fmt.Errorf("question id %q: %w", q.ID, err)
	}
	before := bson.M{
		"categoryId": q.CategoryID,
		"$or": bson.A{
			bson.M{"createdAt": bson.M{"$lt": q.CreatedAt}},
			bson.M{"createdAt": q.CreatedAt, "_id": bson.M{"$lt": oid}},
		},
	}
	after := bson.M{
		"categoryId": q.CategoryID,
		"$or": bson.A{
			bson.M{"createdAt": bson.M{"$gt": q.CreatedAt}},
			bson.M{"createdAt": q.CreatedAt, "_id": bson.M{"$gt": oid}},
		},
	}
	descending := bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

	prevID, err := s.neighborID(ctx, before, descending)
	if err != nil {
		return "", "", fmt.Errorf("previous question: %w", err)
	}
	nextID, err := s.neighborID(ctx, after, ascending)
	if err != nil {
		return "", "", fmt.Errorf("next question: %w", err)
	}
	return prevID, nextID, nil
}

func (s *Store) ListWithoutSlug(ctx context.Context, limit int) ([]models.Question, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"slug": bson.M{"$exists": false}},
		bson.M{"slug": ""},
	}}
	return s.findMany(ctx, filter, limit)
}

func (s *Store) FindCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var doc categoryDoc
	err := s.categories.FindOne(ctx,
		bson.M{"name": name},
		options.FindOne().SetCollation(&options.Collation{Locale: "en", Strength: 2}),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	return &models.Category{ID: doc.ID.Hex(), Name: doc.Name, CreatedAt: doc.CreatedAt, UpdatedAt: doc.UpdatedAt}, nil
}

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	if c.ID == "" {
		c.ID = models.NewID()
	}
	oid, err := bson.ObjectIDFromHex(c.ID)
	if err != nil {
		return fmt.Errorf("category id %q: %w", c.ID, err)
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	if _, err := s.categories.InsertOne(ctx, categoryDoc{ID: oid, Name: c.Name, CreatedAt: now, UpdatedAt: now}); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrCategoryExists
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.Question, error) {
	var doc questionDoc
	if err := s.questions.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("find question: %w", err)
	}
	q := fromDoc(&doc)
	return &q, nil
}

func (s *Store) findMany(ctx context.Context, filter bson.M, limit int) ([]models.Question, error) {
	opts := options.Find().SetSort(ascending)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.questions.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find questions: %w", err)
	}
	var docs []questionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	out := make([]models.Question, len(docs))
	for i := range docs {
		out[i] = fromDoc(&docs[i])
	}
	return out, nil
}

func (s *Store) neighborID(ctx context.Context, filter bson.M, sort bson.D) (string, error) {
	var doc struct {
		ID bson.ObjectID `bson:"_id"`
	}
	err := s.questions.FindOne(ctx, filter,
		options.FindOne().SetSort(sort).SetProjection(bson.M{"_id": 1}),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", nil
		}
		return "", err
	}
	return doc.ID.Hex(), nil
}

func toDoc(q *models.Question) (*questionDoc, error) {
	oid, err := bson.ObjectIDFromHex(q.ID)
	if err != nil {
		return nil, fmt.Errorf("question id %q: %w", q.ID, err)
	}
	return &questionDoc{
		ID:          oid,
		CategoryID:  q.CategoryID,
		Text:        q.Text,
		Options:     q.Options,
		Answer:      q.Answer,
		Explanation: q.Explanation,
		Submitter:   q.Submitter,
		Slug:        q.Slug,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}, nil
}

func fromDoc(doc *questionDoc) models.Question {
	return models.Question{
		ID:          doc.ID.Hex(),
		CategoryID:  doc.CategoryID,
		Text:        doc.Text,
		Options:     doc.Options,
		Answer:      doc.Answer,
		Explanation: doc.Explanation,
		Submitter:   doc.Submitter,
		Slug:        doc.Slug,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}

var _ store.Store = (*Store)(nil)
