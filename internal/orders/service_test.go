package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallyhq/tally-backend/pkg/db/models"
	"github.com/tallyhq/tally-backend/pkg/enums"
	pkgerrors "github.com/tallyhq/tally-backend/pkg/errors"
	"github.com/tallyhq/tally-backend/pkg/pagination"
)

type fakeOrderRepo struct {
	byID       map[uuid.UUID]*models.Order
	lastStatus enums.OrderStatus
	lastAt     time.Time
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{byID: make(map[uuid.UUID]*models.Order)}
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, storeID, orderID uuid.UUID) (*models.Order, error) {
	order, ok := f.byID[orderID]
	if !ok || order.StoreID != storeID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *order
	return &clone, nil
}

func (f *fakeOrderRepo) ListByStore(ctx context.Context, storeID uuid.UUID, filters ListFilters, params pagination.Params) (*ListResult, error) {
	var rows []models.Order
	for _, order := range f.byID {
		if order.StoreID != storeID {
			continue
		}
		if filters.Status != nil && order.Status != *filters.Status {
			continue
		}
		rows = append(rows, *order)
	}
	return &ListResult{Orders: rows}, nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, storeID, orderID uuid.UUID, status enums.OrderStatus, at time.Time) error {
	order, ok := f.byID[orderID]
	if !ok || order.StoreID != storeID {
		return gorm.ErrRecordNotFound
	}
	order.Status = status
	f.lastStatus = status
	f.lastAt = at
	return nil
}

func newOrderService(t *testing.T, repo *fakeOrderRepo) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: repo})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func seedOrder(repo *fakeOrderRepo, storeID uuid.UUID, status enums.OrderStatus) *models.Order {
	order := &models.Order{
		ID:            uuid.New(),
		StoreID:       storeID,
		Reference:     "TLY-" + uuid.NewString()[:8],
		Status:        status,
		PaymentMethod: enums.PaymentMethodCard,
		Currency:      enums.CurrencyNGN,
		CustomerName:  "Amara Obi",
		CustomerEmail: "amara@example.com",
		SubtotalCents: 150000,
		TotalCents:    150000,
		CreatedAt:     time.Now().UTC(),
	}
	repo.byID[order.ID] = order
	return order
}

func TestUpdateStatusMarksOrderPaid(t *testing.T) {
	repo := newFakeOrderRepo()
	storeID := uuid.New()
	order := seedOrder(repo, storeID, enums.OrderStatusPending)
	svc := newOrderService(t, repo)

	dto, err := svc.UpdateStatus(context.Background(), storeID, order.ID, UpdateStatusInput{Status: "paid"})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if dto.Status != enums.OrderStatusPaid {
		t.Fatalf("status = %s, want paid", dto.Status)
	}
	if dto.PaidAt == nil {
		t.Fatalf("expected paid_at to be set")
	}
	if repo.lastStatus != enums.OrderStatusPaid {
		t.Fatalf("repo status = %s, want paid", repo.lastStatus)
	}
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	repo := newFakeOrderRepo()
	storeID := uuid.New()
	order := seedOrder(repo, storeID, enums.OrderStatusCancelled)
	svc := newOrderService(t, repo)

	_, err := svc.UpdateStatus(context.Background(), storeID, order.ID, UpdateStatusInput{Status: "paid"})
	if err == nil {
		t.Fatalf("expected error for cancelled -> paid")
	}
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("error = %v, want validation", err)
	}
	if repo.byID[order.ID].Status != enums.OrderStatusCancelled {
		t.Fatalf("order status changed on rejected transition")
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	repo := newFakeOrderRepo()
	storeID := uuid.New()
	order := seedOrder(repo, storeID, enums.OrderStatusPending)
	svc := newOrderService(t, repo)

	_, err := svc.UpdateStatus(context.Background(), storeID, order.ID, UpdateStatusInput{Status: "refunded"})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("error = %v, want validation", err)
	}
}

func TestGetScopedToStore(t *testing.T) {
	repo := newFakeOrderRepo()
	storeID := uuid.New()
	order := seedOrder(repo, storeID, enums.OrderStatusPending)
	svc := newOrderService(t, repo)

	dto, err := svc.Get(context.Background(), storeID, order.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if dto.Reference != order.Reference {
		t.Fatalf("reference = %s, want %s", dto.Reference, order.Reference)
	}

	_, err = svc.Get(context.Background(), uuid.New(), order.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("error = %v, want not found", err)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	repo := newFakeOrderRepo()
	storeID := uuid.New()
	seedOrder(repo, storeID, enums.OrderStatusPending)
	seedOrder(repo, storeID, enums.OrderStatusPaid)
	seedOrder(repo, uuid.New(), enums.OrderStatusPaid)
	svc := newOrderService(t, repo)

	page, err := svc.List(context.Background(), storeID, ListQuery{Status: "paid"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Orders) != 1 {
		t.Fatalf("len(orders) = %d, want 1", len(page.Orders))
	}
	if page.Orders[0].Status != enums.OrderStatusPaid {
		t.Fatalf("status = %s, want paid", page.Orders[0].Status)
	}

	_, err = svc.List(context.Background(), storeID, ListQuery{Status: "bogus"})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("error = %v, want validation", err)
	}
}
