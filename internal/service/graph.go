package service

import (
	"context"
	"fmt"

	"murmur/internal/models"
)

// Follow adds the edge actor -> target on both sides.
func (n *Network) Follow(ctx context.Context, actor, target string) (err error) {
	ctx, done := n.begin(ctx, "follow")
	defer done(&err)

	n.mu.Lock()
	defer n.mu.Unlock()

	a, t, err := n.edgeEnds(actor, target)
	if err != nil {
		return err
	}
	if a.IsFollowing(t) {
		return models.ErrDuplicateEdge
	}

	a.Following = append(a.Following, t)
	t.Followers = append(t.Followers, a)
	n.logger.Event(ctx, "started following", accountAttr("follower", a), accountAttr("followee", t))
	return nil
}

// Unfollow removes the edge actor -> target on both sides.
func (n *Network) Unfollow(ctx context.Context, actor, target string) (err error) {
	ctx, done := n.begin(ctx, "unfollow")
	defer done(&err)

	n.mu.Lock()
	defer n.mu.Unlock()

	a, t, err := n.edgeEnds(actor, target)
	if err != nil {
		return err
	}
	if !a.IsFollowing(t) {
		return models.ErrMissingEdge
	}

	a.Following = models.RemoveAccount(a.Following, t)
	t.Followers = models.RemoveAccount(t.Followers, a)
	n.logger.Event(ctx, "unfollowed", accountAttr("follower", a), accountAttr("followee", t))
	return nil
}

// edgeEnds resolves and checks the accounts of a follow edge.
func (n *Network) edgeEnds(actor, target string) (*models.Account, *models.Account, error) {
	a, err := n.lookup(actor)
	if err != nil {
		return nil, nil, err
	}
	if !n.isLoggedIn(a) {
		return nil, nil, models.ErrNotAuthenticated
	}
	t, err := n.lookup(target)
	if err != nil {
		return nil, nil, err
	}
	if a == t {
		return nil, nil, models.ErrSelfReferenceRejected
	}
	return a, t, nil
}

// Followers returns the names following name.
func (n *Network) Followers(name string) ([]string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	a, err := n.lookup(name)
	if err != nil {
		return nil, err
	}
	return models.AccountNames(a.Followers), nil
}

// Following returns the names name follows.
func (n *Network) Following(name string) ([]string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	a, err := n.lookup(name)
	if err != nil {
		return nil, err
	}
	return models.AccountNames(a.Following), nil
}

// CheckGraph verifies that every edge is recorded on both ends, that no
// account follows itself and that no edge is stored twice.
func (n *Network) CheckGraph() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, a := range n.accounts {
		seen := make(map[*models.Account]bool, len(a.Following))
		for _, b := range a.Following {
			switch {
			case b == a:
				return fmt.Errorf("%s follows itself", a.Name)
			case seen[b]:
				return fmt.Errorf("%s follows %s twice", a.Name, b.Name)
			case !b.HasFollower(a):
				return fmt.Errorf("%s follows %s but is missing from its followers", a.Name, b.Name)
			}
			seen[b] = true
		}
		for _, f := range a.Followers {
			if !f.IsFollowing(a) {
				return fmt.Errorf("%s lists follower %s that does not follow it", a.Name, f.Name)
			}
		}
		if len(a.Followers) != countDistinct(a.Followers) {
			return fmt.Errorf("%s has duplicate followers", a.Name)
		}
	}
	return nil
}

func countDistinct(list []*models.Account) int {
	set := make(map[*models.Account]struct{}, len(list))
	for _, a := range list {
		set[a] = struct{}{}
	}
	return len(set)
}
