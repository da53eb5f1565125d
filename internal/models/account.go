// Package models contains data structures for the application's domain models.
package models

import (
	"fmt"
	"time"
)

// Account represents a registered member of a network.
// Following and Followers are kept symmetric by the service layer.
type Account struct {
	ID            uint            `json:"id"`
	Name          string          `json:"name"`
	PasswordHash  []byte          `json:"-"`
	Authenticated bool            `json:"authenticated"`
	Posts         []*Post         `json:"-"`
	Following     []*Account      `json:"-"`
	Followers     []*Account      `json:"-"`
	Notifications []*Notification `json:"-"`
	CreatedAt     time.Time       `json:"created_at"`
}

// IsFollowing reports whether a has an outgoing edge to target.
func (a *Account) IsFollowing(target *Account) bool {
	return containsAccount(a.Following, target)
}

// HasFollower reports whether follower has an edge into a.
func (a *Account) HasFollower(follower *Account) bool {
	return containsAccount(a.Followers, follower)
}

// NotificationMessages returns the received notification texts in delivery order.
func (a *Account) NotificationMessages() []string {
	out := make([]string, len(a.Notifications))
	for i, n := range a.Notifications {
		out[i] = n.Message
	}
	return out
}

func (a *Account) String() string {
	return fmt.Sprintf("User name: %s, Number of posts: %d, Number of followers: %d",
		a.Name, len(a.Posts), len(a.Followers))
}

// AccountNames maps accounts to their names, preserving order.
func AccountNames(accounts []*Account) []string {
	names := make([]string, len(accounts))
	for i, a := range accounts {
		names[i] = a.Name
	}
	return names
}

func containsAccount(list []*Account, target *Account) bool {
	for _, a := range list {
		if a == target {
			return true
		}
	}
	return false
}

// RemoveAccount returns a copy of list without target.
func RemoveAccount(list []*Account, target *Account) []*Account {
	out := make([]*Account, 0, len(list))
	for _, a := range list {
		if a != target {
			out = append(out, a)
		}
	}
	return out
}

// AccountView is the public projection of an Account.
type AccountView struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Authenticated  bool      `json:"authenticated"`
	PostCount      int       `json:"post_count"`
	FollowerCount  int       `json:"follower_count"`
	FollowingCount int       `json:"following_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// View builds the public projection of a.
func (a *Account) View() AccountView {
	return AccountView{
		ID:             a.ID,
		Name:           a.Name,
		Authenticated:  a.Authenticated,
		PostCount:      len(a.Posts),
		FollowerCount:  len(a.Followers),
		FollowingCount: len(a.Following),
		CreatedAt:      a.CreatedAt,
	}
}
