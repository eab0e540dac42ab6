package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/thall003/proxycart/pkg/config"
	"github.com/thall003/proxycart/pkg/db/models"
	"github.com/thall003/proxycart/pkg/enums"
	"github.com/thall003/proxycart/pkg/outbox"
	"github.com/thall003/proxycart/pkg/outbox/payloads"
)

// EventDescriptor links an event type to its aggregate/topic/payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() interface{}
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    interface{}
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

// Error implements error.
func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewEventRegistry builds the registry with the configured topic names.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.OrderEventsTopic == "" {
		return nil, fmt.Errorf("order events topic is required")
	}
	if cfg.CustomerEventsTopic == "" {
		return nil, fmt.Errorf("customer events topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	orderTopic := cfg.OrderEventsTopic
	customerTopic := cfg.CustomerEventsTopic

	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventOrderCreated,
			AggregateType:  enums.AggregateOrder,
			Topic:          orderTopic,
			PayloadFactory: func() interface{} { return &payloads.OrderCreatedEvent{} },
		},
		{
			EventType:      enums.EventOrderClosed,
			AggregateType:  enums.AggregateOrder,
			Topic:          orderTopic,
			PayloadFactory: func() interface{} { return &payloads.OrderClosedEvent{} },
		},
		{
			EventType:      enums.EventOrderCancelled,
			AggregateType:  enums.AggregateOrder,
			Topic:          orderTopic,
			PayloadFactory: func() interface{} { return &payloads.OrderCancelledEvent{} },
		},
	} {
		reg.register(desc)
	}

	// One descriptor per financial/fulfillment status value so the dispatcher
	// can resolve dynamically named transition events.
	for _, status := range []enums.FinancialStatus{
		enums.FinancialStatusPending,
		enums.FinancialStatusAuthorized,
		enums.FinancialStatusPartiallyPaid,
		enums.FinancialStatusPaid,
		enums.FinancialStatusPartiallyRefunded,
		enums.FinancialStatusRefunded,
		enums.FinancialStatusVoided,
	} {
		reg.register(EventDescriptor{
			EventType:      enums.FinancialStatusEvent(status),
			AggregateType:  enums.AggregateOrder,
			Topic:          orderTopic,
			PayloadFactory: func() interface{} { return &payloads.FinancialStatusChangedEvent{} },
		})
	}
	for _, status := range []enums.FulfillmentStatus{
		enums.FulfillmentStatusNone,
		enums.FulfillmentStatusPartial,
		enums.FulfillmentStatusSent,
		enums.FulfillmentStatusFulfilled,
		enums.FulfillmentStatusCancelled,
	} {
		reg.register(EventDescriptor{
			EventType:      enums.FulfillmentStatusEvent(status),
			AggregateType:  enums.AggregateOrder,
			Topic:          orderTopic,
			PayloadFactory: func() interface{} { return &payloads.FulfillmentStatusChangedEvent{} },
		})
	}

	reg.register(EventDescriptor{
		EventType:      enums.EventCartConverted,
		AggregateType:  enums.AggregateCart,
		Topic:          orderTopic,
		PayloadFactory: func() interface{} { return &payloads.CartConvertedEvent{} },
	})
	reg.register(EventDescriptor{
		EventType:      enums.EventAccountBalanceDeducted,
		AggregateType:  enums.AggregateCustomer,
		Topic:          customerTopic,
		PayloadFactory: func() interface{} { return &payloads.AccountBalanceDeductedEvent{} },
	})

	return reg, nil
}

func (r *EventRegistry) register(desc EventDescriptor) {
	if desc.PayloadFactory == nil {
		return
	}
	r.entries[desc.EventType] = desc
}

// Resolve validates the row and decodes its typed payload.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}

	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", event.EventType))
	}

	payload := desc.PayloadFactory()
	if payload == nil {
		return nil, NewNonRetryableError(fmt.Errorf("payload factory not configured for %s", event.EventType))
	}
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{
		Descriptor: desc,
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}

// NewNonRetryableError wraps an error to signal no retries.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}
