package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thall003/proxycart/internal/ledger"
	"github.com/thall003/proxycart/pkg/enums"
)

func TestResolveFinancialStatus(t *testing.T) {
	cases := []struct {
		name       string
		totalPrice int64
		summary    ledger.TransactionSummary
		expect     enums.FinancialStatus
		expectDue  int64
	}{
		{
			name:       "zero total is paid",
			totalPrice: 0,
			summary:    ledger.TransactionSummary{},
			expect:     enums.FinancialStatusPaid,
			expectDue:  0,
		},
		{
			name:       "fully authorized",
			totalPrice: 1000,
			summary:    ledger.TransactionSummary{Authorized: 1000},
			expect:     enums.FinancialStatusAuthorized,
			expectDue:  1000,
		},
		{
			name:       "authorization voided",
			totalPrice: 1000,
			summary:    ledger.TransactionSummary{Authorized: 1000, Voided: 1000},
			expect:     enums.FinancialStatusVoided,
			expectDue:  1000,
		},
		{
			name:       "voided without matching authorization",
			totalPrice: 1000,
			summary:    ledger.TransactionSummary{Voided: 1000},
			expect:     enums.FinancialStatusVoided,
			expectDue:  1000,
		},
		{
			name:       "fully paid",
			totalPrice: 1080,
			summary:    ledger.TransactionSummary{Sale: 1080},
			expect:     enums.FinancialStatusPaid,
			expectDue:  0,
		},
		{
			name:       "partially paid",
			totalPrice: 1000,
			summary:    ledger.TransactionSummary{Sale: 500},
			expect:     enums.FinancialStatusPartiallyPaid,
			expectDue:  500,
		},
		{
			name:       "fully refunded",
			totalPrice: 1000,
			summary:    ledger.TransactionSummary{Sale: 1000, Refunded: 1000},
			expect:     enums.FinancialStatusRefunded,
			expectDue:  0,
		},
		{
			name:       "partially refunded",
			totalPrice: 1000,
			summary:    ledger.TransactionSummary{Sale: 1000, Refunded: 400},
			expect:     enums.FinancialStatusPartiallyRefunded,
			expectDue:  0,
		},
		{
			name:       "no activity defaults to pending",
			totalPrice: 1000,
			summary:    ledger.TransactionSummary{},
			expect:     enums.FinancialStatusPending,
			expectDue:  1000,
		},
		{
			name:       "authorized takes precedence over pending bucket",
			totalPrice: 1000,
			summary:    ledger.TransactionSummary{Authorized: 1000, Pending: 500},
			expect:     enums.FinancialStatusAuthorized,
			expectDue:  1000,
		},
		{
			name:       "overpayment floors due at zero",
			totalPrice: 1000,
			summary:    ledger.TransactionSummary{Sale: 1200},
			expect:     enums.FinancialStatusPending,
			expectDue:  0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, totals := ResolveFinancialStatus(tc.totalPrice, tc.summary)
			assert.Equal(t, tc.expect, status)
			assert.Equal(t, tc.expectDue, totals.Due)
			assert.Equal(t, tc.summary.Sale, totals.Captured)
			assert.Equal(t, tc.summary.Authorized, totals.Authorized)
		})
	}
}

func TestResolveFulfillmentStatus(t *testing.T) {
	cases := []struct {
		name   string
		counts ledger.FulfillmentCounts
		expect enums.FulfillmentStatus
	}{
		{"no fulfillments", ledger.FulfillmentCounts{}, enums.FulfillmentStatusNone},
		{"all fulfilled", ledger.FulfillmentCounts{Fulfilled: 2, Total: 2}, enums.FulfillmentStatusFulfilled},
		{"all sent", ledger.FulfillmentCounts{Sent: 3, Total: 3}, enums.FulfillmentStatusSent},
		{"any partial wins over sent", ledger.FulfillmentCounts{Partial: 1, Sent: 1, Total: 2}, enums.FulfillmentStatusPartial},
		{"all pending", ledger.FulfillmentCounts{None: 2, Total: 2}, enums.FulfillmentStatusNone},
		{"all cancelled", ledger.FulfillmentCounts{Cancelled: 2, Total: 2}, enums.FulfillmentStatusCancelled},
		{"mixed sent and fulfilled", ledger.FulfillmentCounts{Sent: 1, Fulfilled: 1, Total: 2}, enums.FulfillmentStatusNone},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, ResolveFulfillmentStatus(tc.counts))
		})
	}
}

func TestClosesOrder(t *testing.T) {
	assert.True(t, ClosesOrder(enums.FulfillmentStatusFulfilled))
	assert.True(t, ClosesOrder(enums.FulfillmentStatusCancelled))
	assert.False(t, ClosesOrder(enums.FulfillmentStatusSent))
	assert.False(t, ClosesOrder(enums.FulfillmentStatusNone))
	assert.False(t, ClosesOrder(enums.FulfillmentStatusPartial))
}
