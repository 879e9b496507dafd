package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally-backend/pkg/db/models"
	"github.com/tallyhq/tally-backend/pkg/enums"
	pkgerrors "github.com/tallyhq/tally-backend/pkg/errors"
)

type fakeOrderSource struct {
	orders    []models.Order
	lastSince time.Time
}

func (f *fakeOrderSource) ListByStoreSince(ctx context.Context, storeID uuid.UUID, since time.Time) ([]models.Order, error) {
	f.lastSince = since
	var out []models.Order
	for _, order := range f.orders {
		if order.StoreID != storeID {
			continue
		}
		if !since.IsZero() && order.CreatedAt.Before(since) {
			continue
		}
		out = append(out, order)
	}
	return out, nil
}

func windowOrder(storeID uuid.UUID, email, name string, total int, status enums.OrderStatus, at time.Time) models.Order {
	return models.Order{
		ID:            uuid.New(),
		StoreID:       storeID,
		Reference:     "TLY-" + uuid.NewString()[:8],
		Status:        status,
		PaymentMethod: enums.PaymentMethodCard,
		Currency:      enums.CurrencyNGN,
		CustomerName:  name,
		CustomerEmail: email,
		SubtotalCents: total,
		TotalCents:    total,
		CreatedAt:     at,
	}
}

func TestSummaryExcludesCancelledFromRevenueButNotCount(t *testing.T) {
	storeID := uuid.New()
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	source := &fakeOrderSource{orders: []models.Order{
		windowOrder(storeID, "a@example.com", "A", 1000, enums.OrderStatusPaid, now.AddDate(0, 0, -1)),
		windowOrder(storeID, "b@example.com", "B", 2000, enums.OrderStatusPending, now.AddDate(0, 0, -2)),
		windowOrder(storeID, "c@example.com", "C", 5000, enums.OrderStatusCancelled, now.AddDate(0, 0, -3)),
	}}

	svc, err := NewService(ServiceParams{Orders: source, Now: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	summary, err := svc.Summary(context.Background(), storeID, 30)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.TotalRevenueCents != 3000 {
		t.Fatalf("revenue = %d, want 3000", summary.TotalRevenueCents)
	}
	if summary.OrderCount != 3 {
		t.Fatalf("count = %d, want 3", summary.OrderCount)
	}
	if summary.AverageOrderValueCents != 1000 {
		t.Fatalf("aov = %d, want 1000", summary.AverageOrderValueCents)
	}
	if len(summary.RevenueByDay) != 2 {
		t.Fatalf("series length = %d, want 2", len(summary.RevenueByDay))
	}
	if summary.RevenueByDay[0].Date != "2026-08-18" || summary.RevenueByDay[0].RevenueCents != 2000 {
		t.Fatalf("first point = %+v", summary.RevenueByDay[0])
	}
	if summary.RevenueByDay[1].Date != "2026-08-19" || summary.RevenueByDay[1].RevenueCents != 1000 {
		t.Fatalf("second point = %+v", summary.RevenueByDay[1])
	}

	wantSince := now.AddDate(0, 0, -30)
	if !source.lastSince.Equal(wantSince) {
		t.Fatalf("since = %v, want %v", source.lastSince, wantSince)
	}
}

func TestSummaryEmptyWindow(t *testing.T) {
	svc, err := NewService(ServiceParams{Orders: &fakeOrderSource{}})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	summary, err := svc.Summary(context.Background(), uuid.New(), 0)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.WindowDays != 30 {
		t.Fatalf("window = %d, want default 30", summary.WindowDays)
	}
	if summary.AverageOrderValueCents != 0 || summary.OrderCount != 0 {
		t.Fatalf("expected zeroed summary, got %+v", summary)
	}
}

func TestSummaryRejectsOversizedWindow(t *testing.T) {
	svc, err := NewService(ServiceParams{Orders: &fakeOrderSource{}})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	_, err = svc.Summary(context.Background(), uuid.New(), 1000)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("error = %v, want validation", err)
	}
}

func TestCustomersGroupedByEmail(t *testing.T) {
	storeID := uuid.New()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	source := &fakeOrderSource{orders: []models.Order{
		windowOrder(storeID, "ada@example.com", "Ada", 4000, enums.OrderStatusPaid, base),
		windowOrder(storeID, "ada@example.com", "Ada Eze", 6000, enums.OrderStatusPaid, base.AddDate(0, 0, 5)),
		windowOrder(storeID, "ada@example.com", "Ada", 9000, enums.OrderStatusCancelled, base.AddDate(0, 0, 2)),
		windowOrder(storeID, "tunde@example.com", "Tunde", 2500, enums.OrderStatusPending, base.AddDate(0, 0, 1)),
	}}

	svc, err := NewService(ServiceParams{Orders: source})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	customers, err := svc.Customers(context.Background(), storeID)
	if err != nil {
		t.Fatalf("Customers: %v", err)
	}
	if len(customers) != 2 {
		t.Fatalf("customers = %d, want 2", len(customers))
	}

	ada := customers[0]
	if ada.Email != "ada@example.com" {
		t.Fatalf("first customer = %s, want most recent buyer", ada.Email)
	}
	if ada.Name != "Ada Eze" {
		t.Fatalf("name = %q, want name from most recent order", ada.Name)
	}
	if ada.TotalOrders != 3 {
		t.Fatalf("total orders = %d, want 3", ada.TotalOrders)
	}
	if ada.TotalSpentCents != 10000 {
		t.Fatalf("spend = %d, want 10000 excluding cancelled", ada.TotalSpentCents)
	}
	if !ada.LastOrderDate.Equal(base.AddDate(0, 0, 5)) {
		t.Fatalf("last order date = %v", ada.LastOrderDate)
	}

	if customers[1].Email != "tunde@example.com" || customers[1].TotalSpentCents != 2500 {
		t.Fatalf("second customer = %+v", customers[1])
	}
}
