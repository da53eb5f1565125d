package seed

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"murmur/internal/service"
)

// Snapshot is a point-in-time export of a network.
type Snapshot struct {
	Network  string            `yaml:"network"`
	Accounts []AccountSnapshot `yaml:"accounts"`
	Posts    []PostSnapshot    `yaml:"posts"`
}

// AccountSnapshot is one account in a Snapshot.
type AccountSnapshot struct {
	Name          string   `yaml:"name"`
	Following     []string `yaml:"following,omitempty"`
	Followers     []string `yaml:"followers,omitempty"`
	Notifications []string `yaml:"notifications,omitempty"`
}

// PostSnapshot is one post in a Snapshot.
type PostSnapshot struct {
	ID       uint     `yaml:"id"`
	Kind     string   `yaml:"kind"`
	Owner    string   `yaml:"owner"`
	Likes    []string `yaml:"likes,omitempty"`
	Comments int      `yaml:"comments"`
	Rendered string   `yaml:"rendered"`
}

// TakeSnapshot exports every account and post of network.
func TakeSnapshot(network *service.Network) (Snapshot, error) {
	snap := Snapshot{Network: network.Name()}

	for _, account := range network.Accounts() {
		following, err := network.Following(account.Name)
		if err != nil {
			return snap, err
		}
		followers, err := network.Followers(account.Name)
		if err != nil {
			return snap, err
		}
		log, err := network.Notifications(account.Name)
		if err != nil {
			return snap, err
		}
		messages := make([]string, len(log))
		for i, n := range log {
			messages[i] = n.Message
		}
		snap.Accounts = append(snap.Accounts, AccountSnapshot{
			Name:          account.Name,
			Following:     orNil(following),
			Followers:     orNil(followers),
			Notifications: orNil(messages),
		})
	}

	for _, post := range network.Posts() {
		snap.Posts = append(snap.Posts, PostSnapshot{
			ID:       post.ID,
			Kind:     string(post.Kind),
			Owner:    post.Owner,
			Likes:    orNil(post.Likes),
			Comments: len(post.Comments),
			Rendered: post.Rendered,
		})
	}
	return snap, nil
}

// orNil maps empty lists to nil, matching what decoding yields.
func orNil(list []string) []string {
	if len(list) == 0 {
		return nil
	}
	return list
}

// WriteYAML encodes the snapshot as YAML.
func (s Snapshot) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return enc.Close()
}

// ReadSnapshot decodes a snapshot written by WriteYAML.
func ReadSnapshot(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return s, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}
