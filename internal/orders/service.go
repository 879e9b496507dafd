package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallyhq/tally-backend/pkg/db/models"
	"github.com/tallyhq/tally-backend/pkg/enums"
	pkgerrors "github.com/tallyhq/tally-backend/pkg/errors"
	"github.com/tallyhq/tally-backend/pkg/pagination"
)

// orderRepository is the slice of Repository the service depends on.
type orderRepository interface {
	FindByID(ctx context.Context, storeID, orderID uuid.UUID) (*models.Order, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, filters ListFilters, params pagination.Params) (*ListResult, error)
	UpdateStatus(ctx context.Context, storeID, orderID uuid.UUID, status enums.OrderStatus, at time.Time) error
}

// Service exposes merchant-facing order operations.
type Service interface {
	List(ctx context.Context, storeID uuid.UUID, query ListQuery) (*OrderListDTO, error)
	Get(ctx context.Context, storeID, orderID uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, storeID, orderID uuid.UUID, input UpdateStatusInput) (*OrderDTO, error)
}

type service struct {
	repo orderRepository
	now  func() time.Time
}

// ServiceParams bundles the Service dependencies.
type ServiceParams struct {
	Repo orderRepository
	Now  func() time.Time
}

// NewService builds an order Service and validates its dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("orders: repository is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{repo: params.Repo, now: params.Now}, nil
}

// List pages through the store's orders, newest first, with an optional
// status filter.
func (s *service) List(ctx context.Context, storeID uuid.UUID, query ListQuery) (*OrderListDTO, error) {
	filters := ListFilters{}
	if query.Status != "" {
		parsed, err := enums.ParseOrderStatus(query.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		filters.Status = &parsed
	}

	result, err := s.repo.ListByStore(ctx, storeID, filters, pagination.Params{
		Limit:  query.Limit,
		Cursor: query.Cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}

	dtos := make([]OrderDTO, 0, len(result.Orders))
	for i := range result.Orders {
		dtos = append(dtos, *ToDTO(&result.Orders[i]))
	}
	return &OrderListDTO{Orders: dtos, NextCursor: result.NextCursor}, nil
}

// Get loads a single order scoped to the merchant's store.
func (s *service) Get(ctx context.Context, storeID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, storeID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return ToDTO(order), nil
}

// UpdateStatus advances an order through its lifecycle. Transitions the
// lifecycle does not allow, such as reopening a cancelled order, are
// rejected.
func (s *service) UpdateStatus(ctx context.Context, storeID, orderID uuid.UUID, input UpdateStatusInput) (*OrderDTO, error) {
	next, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	order, err := s.repo.FindByID(ctx, storeID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}

	if !order.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("cannot move order from %s to %s", order.Status, next))
	}

	now := s.now().UTC()
	if err := s.repo.UpdateStatus(ctx, storeID, orderID, next, now); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order status")
	}

	order.Status = next
	if next == enums.OrderStatusPaid && order.PaidAt == nil {
		order.PaidAt = &now
	}
	return ToDTO(order), nil
}
