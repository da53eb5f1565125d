package service

import (
	"fmt"
	"sync"

	"murmur/internal/models"
)

// Provider hands out the one Network of a process. The first CreateNetwork
// call builds it; later calls return the same instance.
type Provider struct {
	mu      sync.Mutex
	network *Network
	opts    []Option
}

// NewProvider creates a Provider whose network will be built with opts.
func NewProvider(opts ...Option) *Provider {
	return &Provider{opts: opts}
}

// CreateNetwork returns the network called name, building it on first use.
// Asking for a different name once a network exists fails with NETWORK_CONFLICT.
func (p *Provider) CreateNetwork(name string) (*Network, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.network == nil {
		p.network = NewNetwork(name, p.opts...)
		return p.network, nil
	}
	if p.network.Name() != name {
		return nil, &models.AppError{
			Code:    models.CodeNetworkConflict,
			Message: fmt.Sprintf("network already created as %q", p.network.Name()),
		}
	}
	return p.network, nil
}

// Network returns the created network, if any.
func (p *Provider) Network() (*Network, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.network, p.network != nil
}
