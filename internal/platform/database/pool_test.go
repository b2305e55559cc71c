package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenWithoutURL(t *testing.T) {
	pool, err := Open("")
	require.NoError(t, err)
	assert.Nil(t, pool, "no URL means no pool, callers fall back to memory stores")
}

func TestNilPoolIsSafe(t *testing.T) {
	var pool *Pool
	assert.Error(t, pool.Health(context.Background()))
	assert.NoError(t, pool.Close())
}
