package pgstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordPattern(t *testing.T) {
	assert.Equal(t, "capital|pakistan", WordPattern([]string{"capital", " pakistan "}))
	assert.Equal(t, `c\+\+|go`, WordPattern([]string{"c++", "", "go"}))
	assert.Empty(t, WordPattern(nil))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "abc123", escapeLike("abc123"))
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
}
