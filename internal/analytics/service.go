package analytics

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally-backend/pkg/db/models"
	"github.com/tallyhq/tally-backend/pkg/enums"
	pkgerrors "github.com/tallyhq/tally-backend/pkg/errors"
)

const (
	defaultWindowDays = 30
	maxWindowDays     = 365
)

// orderSource feeds the dashboard aggregations. Summaries are computed in
// Go over the raw window rather than in SQL so the day-bucketing and the
// cancelled-order rules live in one place.
type orderSource interface {
	ListByStoreSince(ctx context.Context, storeID uuid.UUID, since time.Time) ([]models.Order, error)
}

// Service computes the merchant dashboard aggregations.
type Service interface {
	Summary(ctx context.Context, storeID uuid.UUID, days int) (*SummaryDTO, error)
	Customers(ctx context.Context, storeID uuid.UUID) ([]CustomerDTO, error)
}

type service struct {
	orders orderSource
	now    func() time.Time
}

// ServiceParams bundles the Service dependencies.
type ServiceParams struct {
	Orders orderSource
	Now    func() time.Time
}

// NewService builds an analytics Service and validates its dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, errors.New("analytics: order source is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{orders: params.Orders, now: params.Now}, nil
}

// Summary aggregates the store's orders over the trailing window. Revenue
// and the per-day series exclude cancelled orders; the order count includes
// them so the merchant sees every checkout that happened.
func (s *service) Summary(ctx context.Context, storeID uuid.UUID, days int) (*SummaryDTO, error) {
	if days <= 0 {
		days = defaultWindowDays
	}
	if days > maxWindowDays {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "window cannot exceed 365 days")
	}

	now := s.now().UTC()
	since := now.AddDate(0, 0, -days)

	rows, err := s.orders.ListByStoreSince(ctx, storeID, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading orders")
	}

	summary := &SummaryDTO{
		WindowDays:   days,
		RevenueByDay: []DayRevenueDTO{},
	}
	byDay := make(map[string]int)
	for _, order := range rows {
		summary.OrderCount++
		if order.Status == enums.OrderStatusCancelled {
			continue
		}
		summary.TotalRevenueCents += order.TotalCents
		day := order.CreatedAt.UTC().Format("2006-01-02")
		byDay[day] += order.TotalCents
	}
	if summary.OrderCount > 0 {
		summary.AverageOrderValueCents = summary.TotalRevenueCents / summary.OrderCount
	}

	keys := make([]string, 0, len(byDay))
	for day := range byDay {
		keys = append(keys, day)
	}
	sort.Strings(keys)
	for _, day := range keys {
		summary.RevenueByDay = append(summary.RevenueByDay, DayRevenueDTO{Date: day, RevenueCents: byDay[day]})
	}

	return summary, nil
}

// Customers groups the store's full order history by customer email. The
// displayed name and last-order date come from the most recent order; spend
// excludes cancelled orders while the order count does not.
func (s *service) Customers(ctx context.Context, storeID uuid.UUID) ([]CustomerDTO, error) {
	rows, err := s.orders.ListByStoreSince(ctx, storeID, time.Time{})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading orders")
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })

	index := make(map[string]int)
	customers := make([]CustomerDTO, 0)
	for _, order := range rows {
		i, seen := index[order.CustomerEmail]
		if !seen {
			index[order.CustomerEmail] = len(customers)
			customers = append(customers, CustomerDTO{
				Name:          order.CustomerName,
				Email:         order.CustomerEmail,
				LastOrderDate: order.CreatedAt,
			})
			i = len(customers) - 1
		}
		customers[i].TotalOrders++
		if order.Status != enums.OrderStatusCancelled {
			customers[i].TotalSpentCents += order.TotalCents
		}
	}

	return customers, nil
}
