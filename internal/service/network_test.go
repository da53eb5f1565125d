package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"murmur/internal/models"
)

type sinkStub struct {
	mu        sync.Mutex
	deliverFn func(context.Context, *models.Notification) error
	got       []models.Notification
}

func (s *sinkStub) Name() string { return "stub" }

func (s *sinkStub) Deliver(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	s.got = append(s.got, *n)
	s.mu.Unlock()
	if s.deliverFn != nil {
		return s.deliverFn(ctx, n)
	}
	return nil
}

func newTestNetwork(t *testing.T, opts ...Option) *Network {
	t.Helper()
	return NewNetwork("test", append([]Option{WithBcryptCost(bcrypt.MinCost)}, opts...)...)
}

func signUp(t *testing.T, n *Network, name string) models.AccountView {
	t.Helper()
	v, err := n.SignUp(context.Background(), name, "secret")
	require.NoError(t, err)
	return v
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T", err)
	assert.Equal(t, code, appErr.Code)
}

func TestSignUp_PasswordBoundaries(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"1234", true},
		{"12345", false},
		{"123456", false},
		{"1234567", false},
		{"12345678", true},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			n := newTestNetwork(t)
			_, err := n.SignUp(context.Background(), "u", tt.password)
			if tt.wantErr {
				assertCode(t, err, models.CodeInvalidPassword)
				assert.ErrorIs(t, err, models.ErrInvalidPassword)
				assert.Empty(t, n.Accounts())
			} else {
				assert.NoError(t, err)
				assert.Len(t, n.Accounts(), 1)
			}
		})
	}
}

func TestSignUp_DuplicateUsername(t *testing.T) {
	n := newTestNetwork(t)
	ctx := context.Background()

	_, err := n.SignUp(ctx, "dana", "secret")
	require.NoError(t, err)
	_, err = n.SignUp(ctx, "dana", "other1")
	assert.ErrorIs(t, err, models.ErrDuplicateUsername)

	// Names are case-sensitive.
	_, err = n.SignUp(ctx, "Dana", "secret")
	assert.NoError(t, err)
	assert.Len(t, n.Accounts(), 2)
}

func TestSignUp_InvalidUsername(t *testing.T) {
	n := newTestNetwork(t)
	_, err := n.SignUp(context.Background(), "  ", "secret")
	assertCode(t, err, models.CodeValidation)

	_, err = n.SignUp(context.Background(), strings.Repeat("x", 31), "secret")
	assertCode(t, err, models.CodeValidation)
}

func TestSignUp_CreatesLoggedInAccount(t *testing.T) {
	n := newTestNetwork(t)
	first := signUp(t, n, "ann")
	second := signUp(t, n, "bob")

	assert.Equal(t, uint(1), first.ID)
	assert.Equal(t, uint(2), second.ID)
	assert.True(t, first.Authenticated)
	assert.True(t, n.IsLoggedIn("ann"))
	assert.Equal(t, []string{"ann", "bob"}, n.LoggedIn())

	// The stored credential is a hash, not the password.
	a := n.byName["ann"]
	assert.NotEqual(t, []byte("secret"), a.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword(a.PasswordHash, []byte("secret")))
}

func TestLogIn_DeduplicatesSession(t *testing.T) {
	n := newTestNetwork(t)
	ctx := context.Background()
	signUp(t, n, "ann")

	require.NoError(t, n.LogIn(ctx, "ann", "secret"))
	require.NoError(t, n.LogIn(ctx, "ann", "secret"))
	assert.Equal(t, []string{"ann"}, n.LoggedIn())

	require.NoError(t, n.LogOut(ctx, "ann"))
	assert.Empty(t, n.LoggedIn())
	assert.False(t, n.IsLoggedIn("ann"))
}

func TestLogIn_WrongCredential(t *testing.T) {
	n := newTestNetwork(t)
	ctx := context.Background()
	signUp(t, n, "ann")
	require.NoError(t, n.LogOut(ctx, "ann"))

	assert.ErrorIs(t, n.LogIn(ctx, "ann", "wrong1"), models.ErrWrongCredential)
	assert.ErrorIs(t, n.LogIn(ctx, "nobody", "secret"), models.ErrWrongCredential)
	assert.False(t, n.IsLoggedIn("ann"))

	require.NoError(t, n.LogIn(ctx, "ann", "secret"))
	view, err := n.Account("ann")
	require.NoError(t, err)
	assert.True(t, view.Authenticated)
}

func TestLogOut_NotLoggedIn(t *testing.T) {
	n := newTestNetwork(t)
	ctx := context.Background()
	signUp(t, n, "ann")

	require.NoError(t, n.LogOut(ctx, "ann"))
	assert.ErrorIs(t, n.LogOut(ctx, "ann"), models.ErrNotAuthenticated)
	assert.ErrorIs(t, n.LogOut(ctx, "ghost"), models.ErrNotAuthenticated)

	view, err := n.Account("ann")
	require.NoError(t, err)
	assert.False(t, view.Authenticated)
}

func TestSessionAccount(t *testing.T) {
	n := newTestNetwork(t)
	ann := signUp(t, n, "ann")

	view, err := n.SessionAccount(ann.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann", view.Name)

	require.NoError(t, n.LogOut(context.Background(), "ann"))
	_, err = n.SessionAccount(ann.ID)
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)

	_, err = n.SessionAccount(99)
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)
}

func TestAccountLookups(t *testing.T) {
	n := newTestNetwork(t)
	ann := signUp(t, n, "ann")

	byID, err := n.AccountByID(ann.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann", byID.Name)

	_, err = n.Account("ghost")
	assertCode(t, err, models.CodeNotFound)
	_, err = n.AccountByID(42)
	assertCode(t, err, models.CodeNotFound)
	_, err = n.Notifications("ghost")
	assertCode(t, err, models.CodeNotFound)
}

func TestRenderNetworkSummary(t *testing.T) {
	n := NewNetwork("Twitter", WithBcryptCost(bcrypt.MinCost))
	ctx := context.Background()
	signUp(t, n, "Alice")
	signUp(t, n, "Bob")
	require.NoError(t, n.Follow(ctx, "Bob", "Alice"))
	_, err := n.Publish(ctx, "Alice", PublishInput{Kind: "Text", Body: "hi"})
	require.NoError(t, err)

	want := "Twitter social network:\n" +
		"User name: Alice, Number of posts: 1, Number of followers: 1\n" +
		"User name: Bob, Number of posts: 0, Number of followers: 0\n"
	assert.Equal(t, want, n.RenderNetworkSummary())
}

func TestNetwork_ConcurrentOperationsKeepInvariants(t *testing.T) {
	n := newTestNetwork(t)
	ctx := context.Background()
	names := []string{"a1", "a2", "a3", "a4", "a5"}
	for _, name := range names {
		signUp(t, n, name)
	}
	post, err := n.Publish(ctx, "a1", PublishInput{Kind: "text", Body: "x"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := names[i%len(names)]
			target := names[(i+1)%len(names)]
			_ = n.Follow(ctx, actor, target)
			_ = n.Like(ctx, post.ID, actor)
			if i%3 == 0 {
				_ = n.Unfollow(ctx, actor, target)
			}
		}(i)
	}
	wg.Wait()

	require.NoError(t, n.CheckGraph())
	view, err := n.Post(post.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a2", "a3", "a4", "a5"}, view.Likes)
}

func TestSignUp_ConcurrentSameName(t *testing.T) {
	n := newTestNetwork(t)
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		dupes     int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := n.SignUp(ctx, "dup", "secret")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case models.HasCode(err, models.CodeDuplicateUsername):
				dupes++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 9, dupes)
	assert.Len(t, n.Accounts(), 1)
	assert.Equal(t, []string{"dup"}, n.LoggedIn())
}

func TestLogIn_ConcurrentKeepsOneSession(t *testing.T) {
	n := newTestNetwork(t)
	ctx := context.Background()
	signUp(t, n, "ann")
	require.NoError(t, n.LogOut(ctx, "ann"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, n.LogIn(ctx, "ann", "secret"))
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"ann"}, n.LoggedIn())
}
