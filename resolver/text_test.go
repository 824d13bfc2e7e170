package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "what is the capital of pakistan", normalizeText(`  What is the "capital" of   Pakistan?`))
	assert.Equal(t, "a well known fact", normalizeText("A well-known_fact"))
	assert.Equal(t, "pakistans capital", normalizeText("Pakistan's capital!"))
	assert.Equal(t, "what is the capital of pakistan", humanize("what-is-the-capital-of-pakistan"))
}

func TestCeilRatio(t *testing.T) {
	assert.Equal(t, 3, ceilRatio(10, 0.3))
	assert.Equal(t, 3, ceilRatio(3, 0.7))
	assert.Equal(t, 7, ceilRatio(10, 0.7))
	assert.Equal(t, 4, ceilRatio(8, 0.4))
	assert.Equal(t, 0, ceilRatio(0, 0.5))
}

func TestLongestWords(t *testing.T) {
	words := []string{"ab", "abcd", "abc", "wxyz", "a"}
	assert.Equal(t, []string{"abcd", "wxyz", "abc"}, longestWords(words, 3))
	assert.Equal(t, []string{"abcd", "wxyz", "abc", "ab", "a"}, longestWords(words, 0))
}

func TestHexAndNumeric(t *testing.T) {
	assert.True(t, isLowerHex("abc12345"))
	assert.False(t, isLowerHex("ABC12345"))
	assert.False(t, isLowerHex("xyz"))
	assert.False(t, isLowerHex(""))
	assert.True(t, isNumeric("1947"))
	assert.False(t, isNumeric("19a"))
}

func TestTuningValidate(t *testing.T) {
	assert.NoError(t, DefaultTuning().Validate())

	bad := DefaultTuning()
	bad.MinorityCoverage = 1.5
	bad.MaxSlugAttempts = 0
	err := bad.Validate()
	assert.ErrorContains(t, err, "minority_coverage")
	assert.ErrorContains(t, err, "max_slug_attempts")
}
