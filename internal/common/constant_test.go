package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageKeysAreFixed(t *testing.T) {
	assert.Equal(t, "access", AccessTokenKey)
	assert.Equal(t, "refresh", RefreshTokenKey)
	assert.NotEqual(t, SchemeBearer, SchemeJWT)
}
