package orders

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thall003/proxycart/pkg/db/models"
	"github.com/thall003/proxycart/pkg/enums"
	pkgerrors "github.com/thall003/proxycart/pkg/errors"
	"github.com/thall003/proxycart/pkg/types"
)

func loadedOrder() *models.Order {
	return &models.Order{
		ID:                uuid.New(),
		Token:             "ord-test",
		Status:            enums.OrderStatusOpen,
		FinancialStatus:   enums.FinancialStatusPending,
		FulfillmentStatus: enums.FulfillmentStatusNone,
		Currency:          enums.CurrencyUSD,
		Items:             []models.OrderItem{},
		Transactions:      []models.Transaction{},
		Fulfillments:      []models.Fulfillment{},
		Refunds:           []models.Refund{},
	}
}

func TestStampItemTotalsRequiresLoadedItems(t *testing.T) {
	order := loadedOrder()
	order.Items = nil

	err := StampItemTotals(order)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePrecondition))
}

func TestStampMoneyTotalsInvariant(t *testing.T) {
	order := loadedOrder()
	order.Items = []models.OrderItem{
		{Quantity: 2, CalculatedPrice: 600},
		{Quantity: 1, CalculatedPrice: 400},
	}
	order.TaxLines = types.PriceLines{{Name: "state tax", Price: 80}}
	order.ShippingLines = types.PriceLines{}
	order.DiscountedLines = types.PriceLines{{Name: "promo", Price: 50}}

	require.NoError(t, StampItemTotals(order))
	StampMoneyTotals(order)

	assert.Equal(t, 3, order.TotalItems)
	assert.Equal(t, int64(1000), order.TotalLineItemsPrice)
	assert.Equal(t, int64(1000), order.SubtotalPrice)
	assert.Equal(t, int64(80), order.TotalTax)
	assert.Equal(t, int64(50), order.TotalDiscounts)
	assert.Equal(t, int64(1030), order.TotalPrice)
}

func TestStampMoneyTotalsFloorsAtZero(t *testing.T) {
	order := loadedOrder()
	order.Items = []models.OrderItem{{Quantity: 1, CalculatedPrice: 100}}
	order.DiscountedLines = types.PriceLines{{Name: "promo", Price: 500}}

	require.NoError(t, StampItemTotals(order))
	StampMoneyTotals(order)

	assert.Equal(t, int64(100), order.SubtotalPrice)
	assert.Equal(t, int64(0), order.TotalPrice)
}

func TestStampFinancialStatusFullPayment(t *testing.T) {
	order := loadedOrder()
	order.TotalPrice = 1080
	order.Transactions = []models.Transaction{
		{Kind: enums.TransactionKindSale, Status: enums.TransactionStatusSuccess, Amount: 1080},
	}

	require.NoError(t, StampFinancialStatus(order))

	assert.Equal(t, enums.FinancialStatusPaid, order.FinancialStatus)
	assert.Equal(t, int64(0), order.TotalDue)
	assert.Equal(t, int64(1080), order.TotalCaptured)
}

func TestStampFinancialStatusRequiresLoadedTransactions(t *testing.T) {
	order := loadedOrder()
	order.Transactions = nil

	err := StampFinancialStatus(order)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePrecondition))
}

func TestStampFulfillmentStatusClosesFulfilledOrder(t *testing.T) {
	order := loadedOrder()
	order.Fulfillments = []models.Fulfillment{
		{Status: enums.FulfillmentStatusFulfilled},
	}
	now := time.Now()

	require.NoError(t, StampFulfillmentStatus(order, now))

	assert.Equal(t, enums.FulfillmentStatusFulfilled, order.FulfillmentStatus)
	assert.Equal(t, enums.OrderStatusClosed, order.Status)
	require.NotNil(t, order.ClosedAt)
	assert.Equal(t, now, *order.ClosedAt)
	assert.Equal(t, 1, order.TotalFulfilledFulfillments)
}

func TestMarkCancelledGuardsFulfillmentActivity(t *testing.T) {
	order := loadedOrder()
	order.FulfillmentStatus = enums.FulfillmentStatusSent

	err := MarkCancelled(order, enums.CancelReasonCustomer, time.Now())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Equal(t, enums.OrderStatusOpen, order.Status)
	assert.Nil(t, order.CancelledAt)
}

func TestMarkCancelledStampsReasonAndCloses(t *testing.T) {
	order := loadedOrder()
	now := time.Now()

	require.NoError(t, MarkCancelled(order, enums.CancelReasonFraud, now))

	assert.Equal(t, enums.OrderStatusClosed, order.Status)
	require.NotNil(t, order.CancelReason)
	assert.Equal(t, enums.CancelReasonFraud, *order.CancelReason)
	require.NotNil(t, order.CancelledAt)

	err := MarkCancelled(order, enums.CancelReasonFraud, now)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestAddItemInsertsNewLine(t *testing.T) {
	order := loadedOrder()
	incoming := models.OrderItem{
		ProductID:    uuid.New(),
		VariantID:    uuid.New(),
		Quantity:     2,
		PricePerUnit: 500,
		Weight:       100,
	}

	mutation, err := AddItem(order, incoming)
	require.NoError(t, err)

	assert.False(t, mutation.Removed)
	assert.Len(t, order.Items, 1)
	assert.Equal(t, int64(1000), mutation.Item.Price)
	assert.Equal(t, int64(1000), mutation.Item.CalculatedPrice)
	assert.Equal(t, int64(200), mutation.Item.TotalWeight)
	assert.Equal(t, 2, mutation.Item.FulfillableQuantity)
	assert.Equal(t, order.ID, mutation.Item.OrderID)
}

func TestAddItemMergesMatchingLine(t *testing.T) {
	order := loadedOrder()
	productID := uuid.New()
	variantID := uuid.New()
	order.Items = []models.OrderItem{
		{
			ID:           uuid.New(),
			ProductID:    productID,
			VariantID:    variantID,
			Quantity:     1,
			PricePerUnit: 500,
		},
	}

	mutation, err := AddItem(order, models.OrderItem{
		ProductID: productID,
		VariantID: variantID,
		Quantity:  2,
	})
	require.NoError(t, err)

	assert.False(t, mutation.Removed)
	assert.Len(t, order.Items, 1)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.Equal(t, int64(1500), order.Items[0].Price)
}

func TestRemoveItemDeletesDrainedLine(t *testing.T) {
	order := loadedOrder()
	productID := uuid.New()
	variantID := uuid.New()
	lineID := uuid.New()
	order.Items = []models.OrderItem{
		{ID: lineID, ProductID: productID, VariantID: variantID, Quantity: 2, PricePerUnit: 500},
	}

	mutation, err := RemoveItem(order, models.OrderItem{
		ProductID: productID,
		VariantID: variantID,
		Quantity:  2,
	})
	require.NoError(t, err)

	assert.True(t, mutation.Removed)
	assert.Equal(t, lineID, mutation.Item.ID)
	assert.Empty(t, order.Items)
}

func TestRemoveItemUnknownLine(t *testing.T) {
	order := loadedOrder()

	_, err := RemoveItem(order, models.OrderItem{ProductID: uuid.New(), VariantID: uuid.New(), Quantity: 1})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateItemRequiresExistingLine(t *testing.T) {
	order := loadedOrder()

	_, err := UpdateItem(order, models.OrderItem{ProductID: uuid.New(), VariantID: uuid.New(), Quantity: 1})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestItemMutationsRequireLoadedItems(t *testing.T) {
	order := loadedOrder()
	order.Items = nil
	incoming := models.OrderItem{ProductID: uuid.New(), VariantID: uuid.New(), Quantity: 1}

	for _, merge := range []func(*models.Order, models.OrderItem) (*ItemMutation, error){AddItem, UpdateItem, RemoveItem} {
		_, err := merge(order, incoming)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePrecondition))
	}
}

func TestStampItemPriceSubtractsLineAdjustments(t *testing.T) {
	item := models.OrderItem{
		Quantity:        2,
		PricePerUnit:    500,
		TaxLines:        types.PriceLines{{Name: "tax", Price: 80}},
		DiscountedLines: types.PriceLines{{Name: "promo", Price: 1200}},
	}

	StampItemPrice(&item)

	assert.Equal(t, int64(1000), item.Price)
	assert.Equal(t, int64(0), item.CalculatedPrice)
}
