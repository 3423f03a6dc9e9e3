package cryptoutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateRandomToken(t *testing.T) {
	token, err := GenerateRandomToken(16)
	assert.NoError(t, err)
	assert.Len(t, token, 32) // hex-encoded
}

func TestGenerateRandomToken_ErrorBranch(t *testing.T) {
	orig := randomRead
	t.Cleanup(func() { randomRead = orig })

	randomRead = func([]byte) (int, error) {
		return 0, errors.New("rand failed")
	}
	_, err := GenerateRandomToken(16)
	assert.Error(t, err)
}
