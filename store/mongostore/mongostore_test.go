package mongostore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qbank/models"
)

func TestDocumentRoundTrip(t *testing.T) {
	q := &models.Question{
		ID:         models.NewID(),
		CategoryID: "cat",
		Text:       "What is the capital of Pakistan?",
		Options:    []string{"Karachi", "Islamabad"},
		Answer:     "Islamabad",
		Slug:       "what-is-the-capital-of-pakistan",
		CreatedAt:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	doc, err := toDoc(q)
	require.NoError(t, err)
	assert.Equal(t, q.ID, doc.ID.Hex())

	back := fromDoc(doc)
	assert.Equal(t, *q, back)
}

func TestToDocRejectsMalformedID(t *testing.T) {
	_, err := toDoc(&models.Question{ID: "not-an-object-id"})
	assert.Error(t, err)
}
