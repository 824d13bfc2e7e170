package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Question struct {
	ID          string    `json:"id" gorm:"primaryKey;type:char(24)"`
	CategoryID  string    `json:"category_id" gorm:"not null;index:idx_questions_category_order,priority:1;uniqueIndex:idx_questions_category_slug,priority:1,where:slug <> ''"`
	Text        string    `json:"text" gorm:"not null"`
	Options     []string  `json:"options" gorm:"serializer:json"`
	Answer      string    `json:"answer"`
	Explanation string    `json:"explanation"`
	Submitter   string    `json:"submitter"`
	Slug        string    `json:"slug,omitempty" gorm:"not null;default:'';uniqueIndex:idx_questions_category_slug,priority:2,where:slug <> ''"`
	CreatedAt   time.Time `json:"created_at" gorm:"index:idx_questions_category_order,priority:2"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relationships
	Category Category `json:"-" gorm:"foreignKey:CategoryID"`
}

// HasSlug reports whether the question carries a non-empty slug. Questions
// created before slug backfill have none.
func (q *Question) HasSlug() bool {
	return q.Slug != ""
}

// NewID returns a fresh 24-character lowercase hex identifier. The leading
// bytes encode the creation second, so ids sort roughly by creation time.
func NewID() string {
	return bson.NewObjectID().Hex()
}

// IDLength is the length of a full question id.
const IDLength = 24
