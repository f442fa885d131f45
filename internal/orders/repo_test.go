package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vendgb/vendgb-backend/pkg/db/models"
	"github.com/vendgb/vendgb-backend/pkg/enums"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Named per test so parallel packages and repeated setups stay isolated
	// while the pool still shares one in-memory database.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  customer_name TEXT NOT NULL,
  customer_email TEXT NOT NULL,
  customer_phone TEXT,
  address_line1 TEXT NOT NULL,
  address_line2 TEXT,
  city TEXT NOT NULL,
  postcode TEXT NOT NULL,
  notes TEXT,
  total TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'new',
  payment_intent_id TEXT UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit_price TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  line_total TEXT NOT NULL,
  position INTEGER NOT NULL DEFAULT 0
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderItems).Error)
	return db
}

func createTestOrder(t *testing.T, db *gorm.DB, status enums.OrderStatus, created time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:            uuid.New(),
		CustomerName:  "Ada Byron",
		CustomerEmail: "ada@example.co.uk",
		AddressLine1:  "12 Market Street",
		City:          "Leeds",
		Postcode:      "LS1 6DT",
		Total:         decimal.RequireFromString("17.98"),
		Status:        status,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	require.NoError(t, db.Omit("Items").Create(order).Error)
	return order
}

func createTestItems(t *testing.T, db *gorm.DB, orderID uuid.UUID) {
	t.Helper()

	items := []models.OrderItem{
		{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: uuid.New(),
			Name:      "Margherita Pizza",
			UnitPrice: decimal.RequireFromString("8.99"),
			Quantity:  1,
			LineTotal: decimal.RequireFromString("8.99"),
			Position:  1,
		},
		{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: uuid.New(),
			Name:      "Garlic Bread",
			UnitPrice: decimal.RequireFromString("8.99"),
			Quantity:  1,
			LineTotal: decimal.RequireFromString("8.99"),
			Position:  0,
		},
	}
	require.NoError(t, db.Create(&items).Error)
}

func TestRepositoryFindByIDOrdersItemsByPosition(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := createTestOrder(t, db, enums.OrderStatusNew, time.Now().UTC())
	createTestItems(t, db, order.ID)

	found, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 2)
	assert.Equal(t, "Garlic Bread", found.Items[0].Name)
	assert.Equal(t, "Margherita Pizza", found.Items[1].Name)
	assert.True(t, found.Total.Equal(decimal.RequireFromString("17.98")))
}

func TestRepositoryListFiltersByStatus(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	createTestOrder(t, db, enums.OrderStatusNew, now.Add(-time.Hour))
	paid := createTestOrder(t, db, enums.OrderStatusPaid, now)

	status := enums.OrderStatusPaid
	list, err := repo.List(context.Background(), ListFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, paid.ID, list[0].ID)

	all, err := repo.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, paid.ID, all[0].ID, "newest first")
}

func TestRepositoryAttachPaymentIntent(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := createTestOrder(t, db, enums.OrderStatusNew, time.Now().UTC())

	ok, err := repo.AttachPaymentIntent(context.Background(), order.ID, "pi_123")
	require.NoError(t, err)
	assert.True(t, ok)

	// Re-attaching the same intent is allowed; a different one is not.
	ok, err = repo.AttachPaymentIntent(context.Background(), order.ID, "pi_123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.AttachPaymentIntent(context.Background(), order.ID, "pi_456")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepositoryMarkPaidWinsOnce(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := createTestOrder(t, db, enums.OrderStatusNew, time.Now().UTC())

	ok, err := repo.MarkPaid(context.Background(), order.ID, "pi_123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkPaid(context.Background(), order.ID, "pi_123")
	require.NoError(t, err)
	assert.False(t, ok, "second settle attempt must not match")

	found, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, found.Status)
	require.NotNil(t, found.PaymentIntentID)
	assert.Equal(t, "pi_123", *found.PaymentIntentID)
}

func TestRepositoryUpdateStatusIsConditional(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := createTestOrder(t, db, enums.OrderStatusPaid, time.Now().UTC())

	ok, err := repo.UpdateStatus(context.Background(), order.ID, enums.OrderStatusPaid, enums.OrderStatusPreparing)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateStatus(context.Background(), order.ID, enums.OrderStatusPaid, enums.OrderStatusPreparing)
	require.NoError(t, err)
	assert.False(t, ok, "stale expected status must not match")
}

func TestRepositoryFindByPaymentIntentID(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := createTestOrder(t, db, enums.OrderStatusNew, time.Now().UTC())
	ok, err := repo.MarkPaid(context.Background(), order.ID, "pi_789")
	require.NoError(t, err)
	require.True(t, ok)

	found, err := repo.FindByPaymentIntentID(context.Background(), "pi_789")
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
}
