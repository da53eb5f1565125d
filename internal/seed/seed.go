// Package seed populates a network with fake demo data for development.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/brianvoe/gofakeit/v6"

	"murmur/internal/models"
	"murmur/internal/observability"
	"murmur/internal/service"
)

// DemoPassword is shared by every seeded account.
const DemoPassword = "murmur1"

// maxNameAttempts bounds retries when the faker repeats a username.
const maxNameAttempts = 10

// Options configuration for the seeder
type Options struct {
	Accounts int
	Posts    int
	// FollowRate is the chance that one account follows another.
	FollowRate float64
	// LikeRate is the chance that an account likes a post it did not write.
	LikeRate float64
	// Comments is the maximum number of comments per post.
	Comments int
	// Seed makes the generated data reproducible. Zero seeds from the clock.
	Seed int64
}

// DefaultOptions returns a small, well-connected network.
func DefaultOptions() Options {
	return Options{
		Accounts:   12,
		Posts:      30,
		FollowRate: 0.3,
		LikeRate:   0.2,
		Comments:   3,
	}
}

// Result lists what the seeder created.
type Result struct {
	Accounts []string
	Posts    []uint
}

// Seeder drives the engine with generated content.
type Seeder struct {
	network *service.Network
	faker   *gofakeit.Faker
	opts    Options
}

// NewSeeder creates a Seeder for network.
func NewSeeder(network *service.Network, opts Options) *Seeder {
	return &Seeder{
		network: network,
		faker:   gofakeit.New(opts.Seed),
		opts:    opts,
	}
}

// Demo fills network with accounts, follows, posts, likes and comments using
// default options and the given account count.
func Demo(ctx context.Context, network *service.Network, accounts int) (Result, error) {
	opts := DefaultOptions()
	if accounts > 0 {
		opts.Accounts = accounts
		opts.Posts = accounts * 5 / 2
	}
	return NewSeeder(network, opts).Run(ctx)
}

// Run seeds the network. Every seeded account is logged out afterwards and
// can log in with DemoPassword.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	logger := observability.GlobalLogger
	logger.InfoContext(ctx, "seeding network",
		slog.String("network", s.network.Name()),
		slog.Int("accounts", s.opts.Accounts),
		slog.Int("posts", s.opts.Posts),
	)

	var res Result
	names, err := s.createAccounts(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to create accounts: %w", err)
	}
	res.Accounts = names

	follows, err := s.createFollows(ctx, names)
	if err != nil {
		return res, fmt.Errorf("failed to create follows: %w", err)
	}

	posts, err := s.createPosts(ctx, names)
	if err != nil {
		return res, fmt.Errorf("failed to create posts: %w", err)
	}
	res.Posts = posts

	likes, comments, err := s.createEngagement(ctx, names, posts)
	if err != nil {
		return res, fmt.Errorf("failed to create engagement: %w", err)
	}

	for _, name := range names {
		if err := s.network.LogOut(ctx, name); err != nil {
			return res, fmt.Errorf("failed to log out %s: %w", name, err)
		}
	}

	logger.InfoContext(ctx, "seeding complete",
		slog.String("network", s.network.Name()),
		slog.Int("accounts", len(names)),
		slog.Int("follows", follows),
		slog.Int("posts", len(posts)),
		slog.Int("likes", likes),
		slog.Int("comments", comments),
	)
	return res, nil
}

func (s *Seeder) createAccounts(ctx context.Context) ([]string, error) {
	names := make([]string, 0, s.opts.Accounts)
	for len(names) < s.opts.Accounts {
		name, err := s.signUpUnique(ctx)
		if err != nil {
			return names, err
		}
		names = append(names, name)
	}
	return names, nil
}

func (s *Seeder) signUpUnique(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := usernameSafe(s.faker.Username())
		_, err := s.network.SignUp(ctx, name, DemoPassword)
		if err == nil {
			return name, nil
		}
		if !models.HasCode(err, models.CodeDuplicateUsername) {
			return "", err
		}
	}
	return "", fmt.Errorf("no unique username after %d attempts", maxNameAttempts)
}

// usernameSafe drops characters account names may not contain, such as the
// apostrophe in some generated last names.
func usernameSafe(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return -1
	}, name)
}

func (s *Seeder) createFollows(ctx context.Context, names []string) (int, error) {
	count := 0
	for _, actor := range names {
		for _, target := range names {
			if actor == target || s.faker.Float64() >= s.opts.FollowRate {
				continue
			}
			if err := s.network.Follow(ctx, actor, target); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

func (s *Seeder) createPosts(ctx context.Context, names []string) ([]uint, error) {
	ids := make([]uint, 0, s.opts.Posts)
	if len(names) == 0 {
		return ids, nil
	}
	for i := 0; i < s.opts.Posts; i++ {
		author := names[s.faker.IntRange(0, len(names)-1)]
		post, err := s.network.Publish(ctx, author, s.buildPost())
		if err != nil {
			return ids, err
		}
		ids = append(ids, post.ID)
	}
	return ids, nil
}

// buildPost picks a kind with text the most common.
func (s *Seeder) buildPost() service.PublishInput {
	switch roll := s.faker.IntRange(0, 9); {
	case roll < 6:
		return service.PublishInput{
			Kind: string(models.PostKindText),
			Body: s.faker.Sentence(s.faker.IntRange(4, 14)),
		}
	case roll < 8:
		return service.PublishInput{
			Kind:     string(models.PostKindImage),
			MediaRef: fmt.Sprintf("%s.%s", s.faker.Word(), s.faker.RandomString([]string{"jpg", "png", "gif", "webp"})),
		}
	default:
		return service.PublishInput{
			Kind:     string(models.PostKindSale),
			Item:     s.faker.ProductName(),
			Price:    math.Round(s.faker.Price(5, 500)*100) / 100,
			Location: s.faker.City(),
		}
	}
}

func (s *Seeder) createEngagement(ctx context.Context, names []string, posts []uint) (int, int, error) {
	likes, comments := 0, 0
	for _, id := range posts {
		post, err := s.network.Post(id)
		if err != nil {
			return likes, comments, err
		}
		for _, name := range names {
			if name == post.Owner || s.faker.Float64() >= s.opts.LikeRate {
				continue
			}
			if err := s.network.Like(ctx, id, name); err != nil {
				return likes, comments, err
			}
			likes++
		}
		if s.opts.Comments <= 0 {
			continue
		}
		for i := s.faker.IntRange(0, s.opts.Comments); i > 0; i-- {
			commenter := names[s.faker.IntRange(0, len(names)-1)]
			if err := s.network.Comment(ctx, id, commenter, s.faker.Phrase()); err != nil {
				return likes, comments, err
			}
			comments++
		}
	}
	return likes, comments, nil
}
