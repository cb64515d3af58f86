package util

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashUUID(t *testing.T) {
	type cfg struct {
		Name string
		N    int
	}
	a := HashUUID(cfg{"gray", 1})
	assert.Equal(t, a, HashUUID(cfg{"gray", 1}))
	assert.NotEqual(t, a, HashUUID(cfg{"gray", 2}))
	_, err := uuid.Parse(a)
	require.NoError(t, err)

	assert.Empty(t, HashUUID(func() {}))
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}
