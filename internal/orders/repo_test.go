package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/thall003/proxycart/pkg/db/models"
	"github.com/thall003/proxycart/pkg/enums"
	pkgerrors "github.com/thall003/proxycart/pkg/errors"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  token TEXT NOT NULL UNIQUE,
  cart_token TEXT,
  subscription_token TEXT,
  customer_id TEXT,
  email TEXT,
  currency TEXT NOT NULL DEFAULT 'USD',
  status TEXT NOT NULL DEFAULT 'open',
  financial_status TEXT NOT NULL DEFAULT 'pending',
  fulfillment_status TEXT NOT NULL DEFAULT 'none',
  payment_kind TEXT NOT NULL DEFAULT 'manual',
  fulfillment_kind TEXT NOT NULL DEFAULT 'manual',
  processing_method TEXT,
  has_shipping INTEGER NOT NULL DEFAULT 0,
  has_subscription INTEGER NOT NULL DEFAULT 0,
  billing_address TEXT,
  shipping_address TEXT,
  tax_lines TEXT,
  shipping_lines TEXT,
  discounted_lines TEXT,
  coupon_lines TEXT,
  pricing_overrides TEXT,
  total_items INTEGER NOT NULL DEFAULT 0,
  total_line_items_price INTEGER NOT NULL DEFAULT 0,
  subtotal_price INTEGER NOT NULL DEFAULT 0,
  total_tax INTEGER NOT NULL DEFAULT 0,
  total_shipping INTEGER NOT NULL DEFAULT 0,
  total_discounts INTEGER NOT NULL DEFAULT 0,
  total_coupons INTEGER NOT NULL DEFAULT 0,
  total_overrides INTEGER NOT NULL DEFAULT 0,
  total_price INTEGER NOT NULL DEFAULT 0,
  total_due INTEGER NOT NULL DEFAULT 0,
  total_refunds INTEGER NOT NULL DEFAULT 0,
  total_authorized INTEGER NOT NULL DEFAULT 0,
  total_captured INTEGER NOT NULL DEFAULT 0,
  total_voided INTEGER NOT NULL DEFAULT 0,
  total_cancelled INTEGER NOT NULL DEFAULT 0,
  total_pending INTEGER NOT NULL DEFAULT 0,
  total_fulfilled_fulfillments INTEGER NOT NULL DEFAULT 0,
  total_partial_fulfillments INTEGER NOT NULL DEFAULT 0,
  total_sent_fulfillments INTEGER NOT NULL DEFAULT 0,
  total_pending_fulfillments INTEGER NOT NULL DEFAULT 0,
  total_cancelled_fulfillments INTEGER NOT NULL DEFAULT 0,
  cancel_reason TEXT,
  cancelled_at DATETIME,
  closed_at DATETIME,
  processed_at DATETIME,
  note TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  variant_id TEXT NOT NULL,
  title TEXT NOT NULL,
  sku TEXT,
  quantity INTEGER NOT NULL DEFAULT 0,
  fulfillable_quantity INTEGER NOT NULL DEFAULT 0,
  price INTEGER NOT NULL DEFAULT 0,
  price_per_unit INTEGER NOT NULL DEFAULT 0,
  calculated_price INTEGER NOT NULL DEFAULT 0,
  weight INTEGER NOT NULL DEFAULT 0,
  total_weight INTEGER NOT NULL DEFAULT 0,
  currency TEXT NOT NULL DEFAULT 'USD',
  tax_lines TEXT,
  shipping_lines TEXT,
  discounted_lines TEXT,
  coupon_lines TEXT,
  requires_shipping INTEGER NOT NULL DEFAULT 0,
  requires_subscription INTEGER NOT NULL DEFAULT 0,
  subscription_interval INTEGER NOT NULL DEFAULT 0,
  subscription_unit TEXT,
  fulfillment_id TEXT,
  fulfillment_service TEXT NOT NULL DEFAULT 'manual',
  created_at DATETIME,
  updated_at DATETIME
);`
	transactions := `
CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  status TEXT NOT NULL,
  amount INTEGER NOT NULL DEFAULT 0,
  currency TEXT NOT NULL DEFAULT 'USD',
  gateway TEXT NOT NULL,
  gateway_reference TEXT,
  error_code TEXT,
  authorized_at DATETIME,
  captured_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	fulfillments := `
CREATE TABLE IF NOT EXISTS fulfillments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  status TEXT NOT NULL,
  service TEXT NOT NULL,
  tracking_company TEXT,
  tracking_number TEXT,
  sent_at DATETIME,
  fulfilled_at DATETIME,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	refunds := `
CREATE TABLE IF NOT EXISTS refunds (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  transaction_id TEXT,
  order_item_id TEXT,
  amount INTEGER NOT NULL DEFAULT 0,
  reason TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderItems).Error)
	require.NoError(t, db.Exec(transactions).Error)
	require.NoError(t, db.Exec(fulfillments).Error)
	require.NoError(t, db.Exec(refunds).Error)
	return db
}

func seedOrder(t *testing.T, repo Repository, token string) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:       uuid.New(),
		Token:    token,
		Email:    "buyer@example.com",
		Currency: enums.CurrencyUSD,
		Status:   enums.OrderStatusOpen,
	}
	created, err := repo.Create(context.Background(), order)
	require.NoError(t, err)
	return created
}

func TestRepositoryFindByTokenLoadsCollections(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	seeded := seedOrder(t, repo, "ord_repo_find")

	found, err := repo.FindByToken(context.Background(), "ord_repo_find")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)
	assert.Equal(t, "buyer@example.com", found.Email)

	// empty collections come back loaded, not nil
	assert.True(t, found.ItemsLoaded())
	assert.True(t, found.TransactionsLoaded())
	assert.True(t, found.FulfillmentsLoaded())
	assert.Empty(t, found.Items)
}

func TestRepositoryFindByTokenNotFound(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByToken(context.Background(), "ord_missing")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRepositoryFindByIDRoundTrip(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	seeded := seedOrder(t, repo, "ord_repo_by_id")

	found, err := repo.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "ord_repo_by_id", found.Token)
}

func TestRepositoryItemLifecycle(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	order := seedOrder(t, repo, "ord_repo_items")

	item := &models.OrderItem{
		ID:           uuid.New(),
		OrderID:      order.ID,
		ProductID:    uuid.New(),
		VariantID:    uuid.New(),
		Title:        "Trail Mix",
		Quantity:     2,
		PricePerUnit: 500,
		Price:        1000,
	}
	require.NoError(t, repo.CreateItem(context.Background(), item))
	require.NoError(t, repo.ReloadItems(context.Background(), order))
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Trail Mix", order.Items[0].Title)

	order.Items[0].Quantity = 3
	require.NoError(t, repo.SaveItem(context.Background(), &order.Items[0]))

	require.NoError(t, repo.DeleteItem(context.Background(), item.ID))
	require.NoError(t, repo.ReloadItems(context.Background(), order))
	assert.Empty(t, order.Items)
	assert.True(t, order.ItemsLoaded())
}

func TestRepositorySaveOmitsCollections(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	order := seedOrder(t, repo, "ord_repo_save")

	// a stale in-memory item must not be persisted by Save
	order.Items = []models.OrderItem{{
		ID:        uuid.New(),
		OrderID:   order.ID,
		ProductID: uuid.New(),
		VariantID: uuid.New(),
		Title:     "Phantom",
	}}
	order.Note = "gift wrap"
	require.NoError(t, repo.Save(context.Background(), order))

	require.NoError(t, repo.ReloadItems(context.Background(), order))
	assert.Empty(t, order.Items)

	found, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "gift wrap", found.Note)
}

func TestRepositoryTransactionsReload(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	order := seedOrder(t, repo, "ord_repo_txn")

	txn := &models.Transaction{
		ID:      uuid.New(),
		OrderID: order.ID,
		Kind:    enums.TransactionKindSale,
		Status:  enums.TransactionStatusSuccess,
		Amount:  1500,
		Gateway: "manual",
	}
	require.NoError(t, repo.SaveTransaction(context.Background(), txn))
	require.NoError(t, repo.ReloadTransactions(context.Background(), order))
	require.Len(t, order.Transactions, 1)
	assert.Equal(t, int64(1500), order.Transactions[0].Amount)
}

func TestRepositoryWithTxBindsTransaction(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	err := db.Transaction(func(tx *gorm.DB) error {
		bound := repo.WithTx(tx)
		_, err := bound.Create(context.Background(), &models.Order{
			ID:    uuid.New(),
			Token: "ord_repo_tx_bound",
		})
		return err
	})
	require.NoError(t, err)

	found, err := repo.FindByToken(context.Background(), "ord_repo_tx_bound")
	require.NoError(t, err)
	assert.Equal(t, "ord_repo_tx_bound", found.Token)
}
