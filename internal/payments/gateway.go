package payments

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/thall003/proxycart/pkg/enums"
)

// GatewayRequest is the processor-facing slice of a payment dispatch.
type GatewayRequest struct {
	OrderID  uuid.UUID
	Amount   int64
	Currency enums.Currency
	Details  map[string]string
}

// GatewayResult is what a processor resolved for a single operation.
// Reference carries the processor's own transaction identifier when it
// issued one.
type GatewayResult struct {
	Status    enums.TransactionStatus
	Reference *string
	ErrorCode *string
}

// Gateway is the capability a payment processor must expose. Every method
// must honor context cancellation; the service wraps calls in a deadline.
type Gateway interface {
	Name() string
	Authorize(ctx context.Context, req GatewayRequest) (GatewayResult, error)
	Capture(ctx context.Context, req GatewayRequest) (GatewayResult, error)
	Sale(ctx context.Context, req GatewayRequest) (GatewayResult, error)
	Void(ctx context.Context, req GatewayRequest) (GatewayResult, error)
	Refund(ctx context.Context, req GatewayRequest) (GatewayResult, error)
}

// Registry holds the configured gateways keyed by name.
type Registry struct {
	mu       sync.RWMutex
	gateways map[string]Gateway
}

// NewRegistry builds a registry seeded with the provided gateways.
func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[string]Gateway, len(gateways))}
	for _, gateway := range gateways {
		r.gateways[gateway.Name()] = gateway
	}
	return r
}

// Register adds or replaces a gateway.
func (r *Registry) Register(gateway Gateway) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gateways[gateway.Name()] = gateway
}

// Resolve returns the gateway registered under name.
func (r *Registry) Resolve(name string) (Gateway, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gateway, ok := r.gateways[name]
	if !ok {
		return nil, fmt.Errorf("unknown payment gateway %q", name)
	}
	return gateway, nil
}

// Names lists the registered gateway names sorted for stable output.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
