package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"murmur/internal/media"
	"murmur/internal/models"
	"murmur/internal/validation"
)

// PublishInput carries the payload for every post kind; only the fields
// matching Kind are read.
type PublishInput struct {
	Kind     string  `json:"kind"`
	Body     string  `json:"body"`
	MediaRef string  `json:"media_ref"`
	Item     string  `json:"item"`
	Price    float64 `json:"price"`
	Location string  `json:"location"`
}

// Publish creates a post for author and tells every current follower about it.
func (n *Network) Publish(ctx context.Context, author string, in PublishInput) (view models.PostView, err error) {
	ctx, done := n.begin(ctx, "publish")
	defer done(&err)

	var sent []*models.Notification
	defer func() { n.channel.Forward(ctx, sent) }()

	n.mu.Lock()
	defer n.mu.Unlock()

	a, err := n.lookup(author)
	if err != nil {
		return models.PostView{}, err
	}
	if !n.isLoggedIn(a) {
		return models.PostView{}, models.ErrNotAuthenticated
	}

	kind, ok := models.ParsePostKind(in.Kind)
	if !ok {
		return models.PostView{}, models.ErrUnknownPostKind
	}

	post := &models.Post{
		Kind:      kind,
		Owner:     a,
		CreatedAt: n.now(),
	}
	switch kind {
	case models.PostKindText:
		post.Text = &models.TextContent{Body: in.Body}
	case models.PostKindImage:
		post.Image = &models.ImageContent{MediaRef: in.MediaRef}
	case models.PostKindSale:
		if in.Price < 0 || math.IsNaN(in.Price) || math.IsInf(in.Price, 0) {
			return models.PostView{}, models.NewValidationError("price must be a non-negative number")
		}
		post.Sale = &models.SaleListing{Item: in.Item, Price: in.Price, Location: in.Location}
	}

	n.nextPostID++
	post.ID = n.nextPostID
	a.Posts = append(a.Posts, post)
	n.posts = append(n.posts, post)
	n.postsByID[post.ID] = post

	sent = n.channel.NotifyFollowers(ctx, a, models.Notification{
		Actor:   a.Name,
		Kind:    models.NotificationNewPost,
		PostID:  post.ID,
		Message: fmt.Sprintf("%s has a new post", a.Name),
	})

	n.logger.Event(ctx, "post published",
		accountAttr("author", a),
		slog.Uint64("post_id", uint64(post.ID)),
		slog.String("kind", string(kind)),
		slog.Int("followers_notified", len(sent)),
	)
	return post.View(), nil
}

// Like adds liker to the post's like-set and notifies the owner.
func (n *Network) Like(ctx context.Context, postID uint, liker string) (err error) {
	ctx, done := n.begin(ctx, "like")
	defer done(&err)

	var sent []*models.Notification
	defer func() { n.channel.Forward(ctx, sent) }()

	n.mu.Lock()
	defer n.mu.Unlock()

	post, err := n.lookupPost(postID)
	if err != nil {
		return err
	}
	l, err := n.lookup(liker)
	if err != nil {
		return err
	}
	if post.Owner == l {
		return models.ErrSelfReferenceRejected
	}
	if post.LikedBy(l) {
		return models.ErrAlreadyLiked
	}

	post.Likes = append(post.Likes, l)
	message := fmt.Sprintf("%s liked your post", l.Name)
	sent = append(sent, n.channel.Deliver(ctx, post.Owner, models.Notification{
		Actor:   l.Name,
		Kind:    models.NotificationLike,
		PostID:  post.ID,
		Message: message,
	}))
	n.logger.Event(ctx, "notification sent", accountAttr("recipient", post.Owner), slog.String("message", message))
	return nil
}

// Comment appends text to the post's comment log and notifies the owner.
// Repeated and self comments are allowed.
func (n *Network) Comment(ctx context.Context, postID uint, commenter, text string) (err error) {
	ctx, done := n.begin(ctx, "comment")
	defer done(&err)

	var sent []*models.Notification
	defer func() { n.channel.Forward(ctx, sent) }()

	n.mu.Lock()
	defer n.mu.Unlock()

	post, err := n.lookupPost(postID)
	if err != nil {
		return err
	}
	c, err := n.lookup(commenter)
	if err != nil {
		return err
	}

	post.Comments = append(post.Comments, models.Comment{Author: c, Text: text, CreatedAt: n.now()})
	message := fmt.Sprintf("%s commented on your post: %s", c.Name, text)
	sent = append(sent, n.channel.Deliver(ctx, post.Owner, models.Notification{
		Actor:   c.Name,
		Kind:    models.NotificationComment,
		PostID:  post.ID,
		Message: message,
	}))
	n.logger.Event(ctx, "notification sent", accountAttr("recipient", post.Owner), slog.String("message", message))
	return nil
}

// Discount lowers a sale post's price by percent. password must be the owner's.
func (n *Network) Discount(ctx context.Context, postID uint, percent float64, password string) (err error) {
	ctx, done := n.begin(ctx, "discount")
	defer done(&err)

	post, hash, err := n.saleOwnerHash(postID)
	if err != nil {
		return err
	}
	if validation.ValidateDiscount(percent) != nil {
		return models.ErrInvalidDiscount
	}
	if !passwordMatches(hash, password) {
		return models.ErrWrongCredential
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	post.Sale.Discounted = true
	post.Sale.Price *= 1 - percent/100
	n.logger.Event(ctx, "discount applied",
		accountAttr("owner", post.Owner),
		slog.Uint64("post_id", uint64(post.ID)),
		slog.String("price", models.FormatPrice(post.Sale.Price)),
	)
	return nil
}

// MarkSold flags a sale post as sold. Selling twice is a no-op.
func (n *Network) MarkSold(ctx context.Context, postID uint, password string) (err error) {
	ctx, done := n.begin(ctx, "mark_sold")
	defer done(&err)

	post, hash, err := n.saleOwnerHash(postID)
	if err != nil {
		return err
	}
	if !passwordMatches(hash, password) {
		return models.ErrWrongCredential
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if post.Sale.Sold {
		return nil
	}

	post.Sale.Sold = true
	n.logger.Event(ctx, "product sold", accountAttr("owner", post.Owner), slog.Uint64("post_id", uint64(post.ID)))
	return nil
}

// saleOwnerHash looks up a sale post and copies its owner's password hash.
// Posts are never removed and their owner and kind are fixed, so the post
// stays valid after the lock is released.
func (n *Network) saleOwnerHash(id uint) (*models.Post, []byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	post, err := n.salePost(id)
	if err != nil {
		return nil, nil, err
	}
	return post, post.Owner.PasswordHash, nil
}

func (n *Network) salePost(id uint) (*models.Post, error) {
	post, err := n.lookupPost(id)
	if err != nil {
		return nil, err
	}
	if post.Kind != models.PostKindSale {
		return nil, models.ErrInvalidOperationForKind
	}
	return post, nil
}

// DisplayMedia probes the file behind an image post. A missing file yields an
// Info with Found unset.
func (n *Network) DisplayMedia(ctx context.Context, postID uint) (info media.Info, err error) {
	ctx, done := n.begin(ctx, "display_media")
	defer done(&err)

	n.mu.Lock()
	post, err := n.lookupPost(postID)
	if err != nil {
		n.mu.Unlock()
		return media.Info{}, err
	}
	if post.Kind != models.PostKindImage {
		n.mu.Unlock()
		return media.Info{}, models.ErrInvalidOperationForKind
	}
	ref := post.Image.MediaRef
	prober := n.prober
	n.mu.Unlock()

	info, err = prober.Probe(ref)
	if err != nil {
		return info, models.NewInternalError(err)
	}
	n.logger.Event(ctx, "media displayed",
		slog.Uint64("post_id", uint64(postID)),
		slog.Bool("found", info.Found),
		slog.String("format", info.Format),
	)
	return info, nil
}

// RenderPost returns the member-facing text for a post.
func (n *Network) RenderPost(postID uint) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	post, err := n.lookupPost(postID)
	if err != nil {
		return "", err
	}
	return post.String(), nil
}

// Post returns a detached view of the post.
func (n *Network) Post(postID uint) (models.PostView, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	post, err := n.lookupPost(postID)
	if err != nil {
		return models.PostView{}, err
	}
	return post.View(), nil
}

// Posts lists every post in creation order.
func (n *Network) Posts() []models.PostView {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]models.PostView, len(n.posts))
	for i, p := range n.posts {
		out[i] = p.View()
	}
	return out
}

// PostsBy lists name's posts in creation order.
func (n *Network) PostsBy(name string) ([]models.PostView, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	a, err := n.lookup(name)
	if err != nil {
		return nil, err
	}
	out := make([]models.PostView, len(a.Posts))
	for i, p := range a.Posts {
		out[i] = p.View()
	}
	return out, nil
}
