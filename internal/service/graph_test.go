package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"murmur/internal/models"
)

func TestFollow_UpdatesBothSides(t *testing.T) {
	n := newTestNetwork(t)
	ctx := context.Background()
	signUp(t, n, "ann")
	signUp(t, n, "bob")

	require.NoError(t, n.Follow(ctx, "ann", "bob"))

	following, err := n.Following("ann")
	require.NoError(t, err)
	followers, err := n.Followers("bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, following)
	assert.Equal(t, []string{"ann"}, followers)
	assert.NoError(t, n.CheckGraph())
}

func TestFollow_Rejections(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		setup  func(t *testing.T, n *Network)
		actor  string
		target string
		code   string
	}{
		{
			name:   "self follow",
			actor:  "ann",
			target: "ann",
			code:   models.CodeSelfReferenceRejected,
		},
		{
			name: "already following",
			setup: func(t *testing.T, n *Network) {
				require.NoError(t, n.Follow(ctx, "ann", "bob"))
			},
			actor:  "ann",
			target: "bob",
			code:   models.CodeDuplicateEdge,
		},
		{
			name: "logged out actor",
			setup: func(t *testing.T, n *Network) {
				require.NoError(t, n.LogOut(ctx, "ann"))
			},
			actor:  "ann",
			target: "bob",
			code:   models.CodeNotAuthenticated,
		},
		{
			name:   "unknown target",
			actor:  "ann",
			target: "ghost",
			code:   models.CodeNotFound,
		},
		{
			name:   "unknown actor",
			actor:  "ghost",
			target: "ann",
			code:   models.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newTestNetwork(t)
			signUp(t, n, "ann")
			signUp(t, n, "bob")
			if tt.setup != nil {
				tt.setup(t, n)
			}
			before, err := n.Following("ann")
			require.NoError(t, err)

			assertCode(t, n.Follow(ctx, tt.actor, tt.target), tt.code)

			after, err := n.Following("ann")
			require.NoError(t, err)
			assert.Equal(t, before, after)
			assert.NoError(t, n.CheckGraph())
		})
	}
}

func TestUnfollow(t *testing.T) {
	n := newTestNetwork(t)
	ctx := context.Background()
	signUp(t, n, "ann")
	signUp(t, n, "bob")

	assert.ErrorIs(t, n.Unfollow(ctx, "ann", "bob"), models.ErrMissingEdge)
	assert.ErrorIs(t, n.Unfollow(ctx, "ann", "ann"), models.ErrSelfReferenceRejected)

	require.NoError(t, n.Follow(ctx, "ann", "bob"))
	require.NoError(t, n.LogOut(ctx, "ann"))
	assert.ErrorIs(t, n.Unfollow(ctx, "ann", "bob"), models.ErrNotAuthenticated)

	require.NoError(t, n.LogIn(ctx, "ann", "secret"))
	require.NoError(t, n.Unfollow(ctx, "ann", "bob"))

	followers, err := n.Followers("bob")
	require.NoError(t, err)
	assert.Empty(t, followers)
	assert.NoError(t, n.CheckGraph())
}

func TestFollowSymmetryAcrossSequence(t *testing.T) {
	n := newTestNetwork(t)
	ctx := context.Background()
	names := []string{"a", "b", "c", "d"}
	for _, name := range names {
		signUp(t, n, name+"name")
	}

	ops := []struct {
		follow bool
		actor  string
		target string
	}{
		{true, "a", "b"}, {true, "b", "a"}, {true, "c", "a"}, {true, "d", "a"},
		{false, "c", "a"}, {true, "a", "c"}, {true, "a", "b"}, {false, "d", "c"},
		{true, "d", "b"}, {false, "a", "b"}, {true, "c", "d"}, {true, "b", "c"},
	}
	for _, op := range ops {
		if op.follow {
			_ = n.Follow(ctx, op.actor+"name", op.target+"name")
		} else {
			_ = n.Unfollow(ctx, op.actor+"name", op.target+"name")
		}
		require.NoError(t, n.CheckGraph())
	}

	for _, a := range names {
		following, err := n.Following(a + "name")
		require.NoError(t, err)
		for _, b := range following {
			followers, err := n.Followers(b)
			require.NoError(t, err)
			assert.Contains(t, followers, a+"name")
		}
	}
}

func TestCheckGraph_DetectsBrokenEdge(t *testing.T) {
	n := newTestNetwork(t)
	signUp(t, n, "ann")
	signUp(t, n, "bob")

	ann := n.byName["ann"]
	bob := n.byName["bob"]
	ann.Following = append(ann.Following, bob)

	assert.Error(t, n.CheckGraph())

	bob.Followers = append(bob.Followers, ann)
	assert.NoError(t, n.CheckGraph())

	bob.Followers = append(bob.Followers, ann)
	assert.Error(t, n.CheckGraph())
}
