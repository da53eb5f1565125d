package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"murmur/internal/models"
)

func TestProvider_CreateNetworkIsConstructOnce(t *testing.T) {
	p := NewProvider(WithBcryptCost(bcrypt.MinCost))

	_, ok := p.Network()
	assert.False(t, ok)

	first, err := p.CreateNetwork("Twitter")
	require.NoError(t, err)
	second, err := p.CreateNetwork("Twitter")
	require.NoError(t, err)
	assert.Same(t, first, second)

	got, ok := p.Network()
	assert.True(t, ok)
	assert.Same(t, first, got)
}

func TestProvider_RenameConflict(t *testing.T) {
	p := NewProvider()
	n, err := p.CreateNetwork("Twitter")
	require.NoError(t, err)

	_, err = p.CreateNetwork("Facebook")
	assert.ErrorIs(t, err, models.ErrNetworkConflict)
	assert.Equal(t, "Twitter", n.Name())
}

func TestProvider_IndependentNetworks(t *testing.T) {
	a, err := NewProvider().CreateNetwork("one")
	require.NoError(t, err)
	b, err := NewProvider().CreateNetwork("two")
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}
