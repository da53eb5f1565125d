package models

import (
	"fmt"
	"strconv"
	"time"
)

// PostKind tags which payload a Post carries.
type PostKind string

const (
	// PostKindText is a plain text post.
	PostKindText PostKind = "text"
	// PostKindImage references a picture.
	PostKindImage PostKind = "image"
	// PostKindSale lists an item for sale.
	PostKindSale PostKind = "sale"
)

// postKindNames maps every accepted spelling to its kind: the wire form and
// the capitalized display name. Anything else is unknown.
var postKindNames = map[string]PostKind{
	"text":  PostKindText,
	"Text":  PostKindText,
	"image": PostKindImage,
	"Image": PostKindImage,
	"sale":  PostKindSale,
	"Sale":  PostKindSale,
}

// ParsePostKind resolves an exact kind name such as "Text" or "sale".
func ParsePostKind(s string) (PostKind, bool) {
	kind, ok := postKindNames[s]
	return kind, ok
}

// TextContent is the payload of a text post.
type TextContent struct {
	Body string `json:"body"`
}

// ImageContent is the payload of an image post.
type ImageContent struct {
	MediaRef string `json:"media_ref"`
}

// SaleListing is the payload of a sale post.
// Price only ever decreases and never goes below zero.
type SaleListing struct {
	Item       string  `json:"item"`
	Price      float64 `json:"price"`
	Location   string  `json:"location"`
	Sold       bool    `json:"sold"`
	Discounted bool    `json:"discounted"`
}

// Comment is one entry of a post's comment log.
type Comment struct {
	Author    *Account
	Text      string
	CreatedAt time.Time
}

// Post is the shared envelope for every post kind. Exactly one of Text, Image
// or Sale is set, matching Kind.
type Post struct {
	ID        uint
	Kind      PostKind
	Owner     *Account
	Likes     []*Account
	Comments  []Comment
	CreatedAt time.Time

	Text  *TextContent
	Image *ImageContent
	Sale  *SaleListing
}

// LikedBy reports whether account is in the post's like-set.
func (p *Post) LikedBy(account *Account) bool {
	return containsAccount(p.Likes, account)
}

// String renders the post the way it is shown to members.
func (p *Post) String() string {
	switch p.Kind {
	case PostKindText:
		return fmt.Sprintf("%s published a post:\n\"%s\"\n", p.Owner.Name, p.Text.Body)
	case PostKindImage:
		return fmt.Sprintf("%s posted a picture\n", p.Owner.Name)
	case PostKindSale:
		state := "For sale!"
		if p.Sale.Sold {
			state = "Sold!"
		}
		return fmt.Sprintf("%s posted a product for sale:\n%s %s, price: %s, pickup from: %s\n",
			p.Owner.Name, state, p.Sale.Item, FormatPrice(p.Sale.Price), p.Sale.Location)
	}
	return ""
}

// FormatPrice prints a price without trailing zeros ("100", "81", "72.9").
func FormatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}

// CommentView is the public projection of a Comment.
type CommentView struct {
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// PostView is the public projection of a Post.
type PostView struct {
	ID        uint          `json:"id"`
	Kind      PostKind      `json:"kind"`
	Owner     string        `json:"owner"`
	Likes     []string      `json:"likes"`
	Comments  []CommentView `json:"comments"`
	Text      *TextContent  `json:"text,omitempty"`
	Image     *ImageContent `json:"image,omitempty"`
	Sale      *SaleListing  `json:"sale,omitempty"`
	Rendered  string        `json:"rendered"`
	CreatedAt time.Time     `json:"created_at"`
}

// View builds a detached copy of p safe to hand outside the network lock.
func (p *Post) View() PostView {
	v := PostView{
		ID:        p.ID,
		Kind:      p.Kind,
		Owner:     p.Owner.Name,
		Likes:     AccountNames(p.Likes),
		Comments:  make([]CommentView, len(p.Comments)),
		Rendered:  p.String(),
		CreatedAt: p.CreatedAt,
	}
	for i, c := range p.Comments {
		v.Comments[i] = CommentView{Author: c.Author.Name, Text: c.Text, CreatedAt: c.CreatedAt}
	}
	if p.Text != nil {
		t := *p.Text
		v.Text = &t
	}
	if p.Image != nil {
		img := *p.Image
		v.Image = &img
	}
	if p.Sale != nil {
		s := *p.Sale
		v.Sale = &s
	}
	return v
}
