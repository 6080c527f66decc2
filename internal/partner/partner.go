// Package partner defines the adapter contract shared by every chat-platform
// integration and the registry the webhook dispatcher selects adapters from.
package partner

import (
	"context"
	"sort"
	"sync"

	"leadhook/pkg/errors"
	"leadhook/pkg/models"
)

// Partner turns one partner's webhook payload into a Lead. Implementations
// never panic or return errors to the caller: a nil Lead means nothing could
// be extracted, and the reason has already been logged.
type Partner interface {
	Name() string
	ProcessMessage(ctx context.Context, payload models.Payload) *models.Lead
}

type Registry struct {
	mu       sync.RWMutex
	partners map[string]Partner
}

func NewRegistry() *Registry {
	return &Registry{
		partners: make(map[string]Partner),
	}
}

func (r *Registry) Register(p Partner) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.partners[p.Name()]; exists {
		return errors.ErrValidation.WithDetail("message", "partner already registered: "+p.Name())
	}
	r.partners[p.Name()] = p
	return nil
}

func (r *Registry) Get(name string) (Partner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.partners[name]
	if !ok {
		return nil, errors.ErrUnknownPartner.WithDetail("partner", name)
	}
	return p, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.partners))
	for name := range r.partners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.partners)
}
