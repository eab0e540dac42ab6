package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateOrder    OutboxAggregateType = "order"
	AggregateCustomer OutboxAggregateType = "customer"
	AggregateCart     OutboxAggregateType = "cart"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateCustomer,
	AggregateCart,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType names the domain events persisted to the outbox. Status
// change events carry the resolved status as a suffix, e.g.
// "order.financial_status.paid".
type OutboxEventType string

const (
	EventOrderCreated           OutboxEventType = "order.created"
	EventOrderClosed            OutboxEventType = "order.closed"
	EventOrderCancelled         OutboxEventType = "order.cancelled"
	EventCartConverted          OutboxEventType = "cart.converted"
	EventCartAbandoned          OutboxEventType = "cart.abandoned"
	EventSubscriptionRenewed    OutboxEventType = "subscription.renewed"
	EventAccountBalanceDeducted OutboxEventType = "customer.account_balance.deducted"
)

const (
	// EventPrefixFinancialStatus builds order.financial_status.<status> events.
	EventPrefixFinancialStatus = "order.financial_status."
	// EventPrefixFulfillmentStatus builds order.fulfillment_status.<status> events.
	EventPrefixFulfillmentStatus = "order.fulfillment_status."
)

// FinancialStatusEvent returns the event type for a financial status change.
func FinancialStatusEvent(status FinancialStatus) OutboxEventType {
	return OutboxEventType(EventPrefixFinancialStatus + status.String())
}

// FulfillmentStatusEvent returns the event type for a fulfillment status change.
func FulfillmentStatusEvent(status FulfillmentStatus) OutboxEventType {
	return OutboxEventType(EventPrefixFulfillmentStatus + status.String())
}

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderClosed,
	EventOrderCancelled,
	EventCartConverted,
	EventCartAbandoned,
	EventSubscriptionRenewed,
	EventAccountBalanceDeducted,
}

// IsValid reports whether the value is a known static event type or a
// status-change event.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	for _, status := range validFinancialStatuses {
		if e == FinancialStatusEvent(status) {
			return true
		}
	}
	for _, status := range validFulfillmentStatuses {
		if e == FulfillmentStatusEvent(status) {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	candidate := OutboxEventType(value)
	if candidate.IsValid() {
		return candidate, nil
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
