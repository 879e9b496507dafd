package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tallyhq/tally-backend/pkg/db"
	"github.com/tallyhq/tally-backend/pkg/db/models"
	"github.com/tallyhq/tally-backend/pkg/enums"
)

const cartTestSchema = `
CREATE TABLE carts (
    id text PRIMARY KEY,
    user_id text NOT NULL,
    store_id text NOT NULL,
    status text NOT NULL DEFAULT 'active',
    currency text NOT NULL DEFAULT 'NGN',
    converted_at datetime,
    created_at datetime,
    updated_at datetime
);
CREATE TABLE cart_items (
    id text PRIMARY KEY,
    cart_id text NOT NULL,
    product_id text NOT NULL,
    variant_id text,
    title text NOT NULL,
    variant_name text,
    quantity integer NOT NULL,
    unit_price_cents integer NOT NULL,
    created_at datetime,
    updated_at datetime
);
`

func openCartTestDB(t *testing.T) *db.Client {
	t.Helper()
	dsn := "file:carttest_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.Exec(cartTestSchema).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	client := db.FromGorm(conn)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func seedCart(t *testing.T, repo *Repository, userID uuid.UUID) *models.Cart {
	t.Helper()
	cartID := uuid.New()
	cart := &models.Cart{
		ID:       cartID,
		UserID:   userID,
		StoreID:  uuid.New(),
		Status:   enums.CartStatusActive,
		Currency: enums.CurrencyNGN,
		Items: []models.CartItem{
			{
				ID:             uuid.New(),
				CartID:         cartID,
				ProductID:      uuid.New(),
				Title:          "Jacket",
				Quantity:       2,
				UnitPriceCents: 150000,
			},
		},
	}
	if err := repo.Create(context.Background(), cart); err != nil {
		t.Fatalf("create cart: %v", err)
	}
	return cart
}

func TestRepositoryRoundTrip(t *testing.T) {
	client := openCartTestDB(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()
	userID := uuid.New()

	seeded := seedCart(t, repo, userID)

	loaded, err := repo.FindActiveByUser(ctx, userID)
	if err != nil {
		t.Fatalf("find active cart: %v", err)
	}
	if loaded.ID != seeded.ID {
		t.Fatalf("loaded wrong cart %s", loaded.ID)
	}
	if len(loaded.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(loaded.Items))
	}
	if loaded.Items[0].UnitPriceCents != 150000 {
		t.Fatal("item snapshot not persisted")
	}
}

func TestRepositoryItemLifecycle(t *testing.T) {
	client := openCartTestDB(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()
	userID := uuid.New()

	cart := seedCart(t, repo, userID)
	itemID := cart.Items[0].ID

	if err := repo.UpdateItemQuantity(ctx, cart.ID, itemID, 5); err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	loaded, err := repo.FindActiveByUser(ctx, userID)
	if err != nil {
		t.Fatalf("reload cart: %v", err)
	}
	if loaded.Items[0].Quantity != 5 {
		t.Fatalf("quantity = %d, want 5", loaded.Items[0].Quantity)
	}

	if err := repo.UpdateItemQuantity(ctx, cart.ID, uuid.New(), 1); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found for unknown item, got %v", err)
	}

	if err := repo.DeleteItem(ctx, cart.ID, itemID); err != nil {
		t.Fatalf("delete item: %v", err)
	}
	loaded, err = repo.FindActiveByUser(ctx, userID)
	if err != nil {
		t.Fatalf("reload cart: %v", err)
	}
	if len(loaded.Items) != 0 {
		t.Fatalf("expected no items, got %d", len(loaded.Items))
	}
}

func TestRepositoryMarkConverted(t *testing.T) {
	client := openCartTestDB(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()
	userID := uuid.New()

	cart := seedCart(t, repo, userID)
	if err := repo.MarkConverted(ctx, cart.ID, time.Now().UTC()); err != nil {
		t.Fatalf("mark converted: %v", err)
	}

	if _, err := repo.FindActiveByUser(ctx, userID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected converted cart hidden from active lookup, got %v", err)
	}
}

func TestRepositoryDeleteCartWithTx(t *testing.T) {
	client := openCartTestDB(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()
	userID := uuid.New()

	cart := seedCart(t, repo, userID)

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return repo.WithTx(tx).Delete(ctx, cart.ID)
	})
	if err != nil {
		t.Fatalf("delete in tx: %v", err)
	}
	if _, err := repo.FindActiveByUser(ctx, userID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected cart gone, got %v", err)
	}
}
