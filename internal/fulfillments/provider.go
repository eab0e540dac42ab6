package fulfillments

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/thall003/proxycart/pkg/db/models"
	"github.com/thall003/proxycart/pkg/enums"
)

// ProviderRequest is one shipment handed to an external fulfillment service.
type ProviderRequest struct {
	OrderID uuid.UUID
	Items   []models.OrderItem
}

// ProviderResult reports how the external service accepted a shipment.
type ProviderResult struct {
	Status          enums.FulfillmentStatus
	TrackingCompany *string
	TrackingNumber  *string
}

// Provider is the capability an external fulfillment service must expose.
type Provider interface {
	Name() string
	Send(ctx context.Context, req ProviderRequest) (ProviderResult, error)
	Cancel(ctx context.Context, req ProviderRequest) error
}

// Registry holds the configured providers keyed by name.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry builds a registry seeded with the provided providers.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, provider := range providers {
		r.providers[provider.Name()] = provider
	}
	return r
}

// Register adds or replaces a provider.
func (r *Registry) Register(provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
}

// Resolve returns the provider registered under name.
func (r *Registry) Resolve(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown fulfillment service %q", name)
	}
	return provider, nil
}

// ServiceManual is the name of the built-in offline fulfillment service.
const ServiceManual = "manual"

// manualProvider accepts every shipment immediately; an operator ships and
// marks it fulfilled out of band.
type manualProvider struct{}

// NewManualProvider builds the offline fulfillment provider.
func NewManualProvider() Provider {
	return manualProvider{}
}

func (manualProvider) Name() string { return ServiceManual }

func (manualProvider) Send(ctx context.Context, req ProviderRequest) (ProviderResult, error) {
	return ProviderResult{Status: enums.FulfillmentStatusSent}, nil
}

func (manualProvider) Cancel(ctx context.Context, req ProviderRequest) error {
	return nil
}
