package server

import (
	"image"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"murmur/internal/media"
	"murmur/internal/models"
)

func publish(t *testing.T, app *fiber.App, token string, body fiber.Map) models.PostView {
	t.Helper()
	var post models.PostView
	resp := doJSON(t, app, http.MethodPost, "/api/posts", token, body, &post)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return post
}

func postPath(id uint, suffix string) string {
	return "/api/posts/" + strconv.FormatUint(uint64(id), 10) + suffix
}

func notificationMessages(t *testing.T, app *fiber.App, token string) []string {
	t.Helper()
	var entries []models.Notification
	resp := doJSON(t, app, http.MethodGet, "/api/notifications", token, nil, &entries)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}

func TestPublishNotifiesFollowers(t *testing.T) {
	_, app := newTestServer(t)
	alice := signUp(t, app, "alice")
	bob := signUp(t, app, "bob")
	carol := signUp(t, app, "carol")

	resp := doJSON(t, app, http.MethodPost, "/api/accounts/alice/follow", bob.Token, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	post := publish(t, app, alice.Token, fiber.Map{"kind": "text", "body": "hello world"})
	assert.Equal(t, uint(1), post.ID)
	assert.Equal(t, "alice", post.Owner)
	assert.Equal(t, "alice published a post:\n\"hello world\"\n", post.Rendered)

	assert.Equal(t, []string{"alice has a new post"}, notificationMessages(t, app, bob.Token))
	assert.Empty(t, notificationMessages(t, app, carol.Token))
	assert.Empty(t, notificationMessages(t, app, alice.Token))

	t.Run("Unknown kind", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/posts", alice.Token, fiber.Map{"kind": "video"}, nil)
		assertErrorCode(t, resp, http.StatusBadRequest, models.CodeUnknownPostKind)
	})

	t.Run("Negative price", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/posts", alice.Token,
			fiber.Map{"kind": "sale", "item": "bike", "price": -1, "location": "here"}, nil)
		assertErrorCode(t, resp, http.StatusBadRequest, models.CodeValidation)
	})

	var posts []models.PostView
	resp = doJSON(t, app, http.MethodGet, "/api/posts", "", nil, &posts)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, posts, 1)

	resp = doJSON(t, app, http.MethodGet, "/api/accounts/alice/posts", "", nil, &posts)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, posts, 1)
}

func TestLikeAndComment(t *testing.T) {
	_, app := newTestServer(t)
	alice := signUp(t, app, "alice")
	bob := signUp(t, app, "bob")
	post := publish(t, app, alice.Token, fiber.Map{"kind": "text", "body": "hi"})

	var liked models.PostView
	resp := doJSON(t, app, http.MethodPost, postPath(post.ID, "/like"), bob.Token, nil, &liked)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"bob"}, liked.Likes)

	resp = doJSON(t, app, http.MethodPost, postPath(post.ID, "/like"), bob.Token, nil, nil)
	assertErrorCode(t, resp, http.StatusConflict, models.CodeAlreadyLiked)

	resp = doJSON(t, app, http.MethodPost, postPath(post.ID, "/like"), alice.Token, nil, nil)
	assertErrorCode(t, resp, http.StatusUnprocessableEntity, models.CodeSelfReferenceRejected)

	var commented models.PostView
	resp = doJSON(t, app, http.MethodPost, postPath(post.ID, "/comments"), bob.Token, fiber.Map{"text": "nice"}, &commented)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, commented.Comments, 1)
	assert.Equal(t, "bob", commented.Comments[0].Author)

	// Owners may comment on their own posts and are notified of it.
	resp = doJSON(t, app, http.MethodPost, postPath(post.ID, "/comments"), alice.Token, fiber.Map{"text": "thanks"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.Equal(t, []string{
		"bob liked your post",
		"bob commented on your post: nice",
		"alice commented on your post: thanks",
	}, notificationMessages(t, app, alice.Token))

	t.Run("Missing post", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, postPath(99, "/like"), bob.Token, nil, nil)
		assertErrorCode(t, resp, http.StatusNotFound, models.CodeNotFound)
	})

	t.Run("Invalid ID", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/posts/abc", "", nil, nil)
		assertErrorCode(t, resp, http.StatusBadRequest, models.CodeValidation)
	})
}

func TestSaleLifecycle(t *testing.T) {
	_, app := newTestServer(t)
	alice := signUp(t, app, "alice")
	bob := signUp(t, app, "bob")

	sale := publish(t, app, alice.Token, fiber.Map{"kind": "Sale", "item": "bike", "price": 100, "location": "Main St"})
	text := publish(t, app, alice.Token, fiber.Map{"kind": "text", "body": "hi"})

	resp := doJSON(t, app, http.MethodPost, postPath(sale.ID, "/discount"), bob.Token,
		fiber.Map{"percent": 10, "password": "wrong"}, nil)
	assertErrorCode(t, resp, http.StatusUnauthorized, models.CodeWrongCredential)

	resp = doJSON(t, app, http.MethodPost, postPath(sale.ID, "/discount"), alice.Token,
		fiber.Map{"percent": 150, "password": "secret"}, nil)
	assertErrorCode(t, resp, http.StatusBadRequest, models.CodeInvalidDiscount)

	resp = doJSON(t, app, http.MethodPost, postPath(text.ID, "/discount"), alice.Token,
		fiber.Map{"percent": 10, "password": "secret"}, nil)
	assertErrorCode(t, resp, http.StatusUnprocessableEntity, models.CodeInvalidOperationForKind)

	var discounted models.PostView
	resp = doJSON(t, app, http.MethodPost, postPath(sale.ID, "/discount"), alice.Token,
		fiber.Map{"percent": 10, "password": "secret"}, &discounted)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, discounted.Sale)
	assert.InDelta(t, 90, discounted.Sale.Price, 1e-9)
	assert.True(t, discounted.Sale.Discounted)

	var sold models.PostView
	resp = doJSON(t, app, http.MethodPost, postPath(sale.ID, "/sold"), alice.Token,
		fiber.Map{"password": "secret"}, &sold)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, sold.Sale.Sold)

	// Selling twice is a no-op.
	resp = doJSON(t, app, http.MethodPost, postPath(sale.ID, "/sold"), alice.Token,
		fiber.Map{"password": "secret"}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, postPath(text.ID, "/sold"), alice.Token,
		fiber.Map{"password": "secret"}, nil)
	assertErrorCode(t, resp, http.StatusUnprocessableEntity, models.CodeInvalidOperationForKind)

	resp = doJSON(t, app, http.MethodGet, postPath(sale.ID, "/render"), "", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice posted a product for sale:\nSold! bike, price: 90, pickup from: Main St\n", readBody(t, resp))
}

func TestPostMedia(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "cat.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 3))))
	require.NoError(t, f.Close())

	_, app := newTestServer(t, withMediaRoot(dir))
	alice := signUp(t, app, "alice")

	found := publish(t, app, alice.Token, fiber.Map{"kind": "image", "media_ref": "cat.png"})
	missing := publish(t, app, alice.Token, fiber.Map{"kind": "image", "media_ref": "dog.png"})
	text := publish(t, app, alice.Token, fiber.Map{"kind": "text", "body": "hi"})

	var info media.Info
	resp := doJSON(t, app, http.MethodGet, postPath(found.ID, "/media"), "", nil, &info)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, info.Found)
	assert.Equal(t, "png", info.Format)
	assert.Equal(t, 4, info.Width)
	assert.Equal(t, 3, info.Height)

	info = media.Info{}
	resp = doJSON(t, app, http.MethodGet, postPath(missing.ID, "/media"), "", nil, &info)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, info.Found)

	resp = doJSON(t, app, http.MethodGet, postPath(text.ID, "/media"), "", nil, nil)
	assertErrorCode(t, resp, http.StatusUnprocessableEntity, models.CodeInvalidOperationForKind)

	resp = doJSON(t, app, http.MethodGet, postPath(found.ID, "/render"), "", nil, nil)
	assert.Equal(t, "alice posted a picture\n", readBody(t, resp))
}
