package analytics

import "time"

// DayRevenueDTO is one point of the dashboard revenue chart.
type DayRevenueDTO struct {
	Date         string `json:"date"`
	RevenueCents int    `json:"revenue_cents"`
}

// SummaryDTO is the dashboard headline block for the trailing window.
type SummaryDTO struct {
	WindowDays             int             `json:"window_days"`
	TotalRevenueCents      int             `json:"total_revenue_cents"`
	OrderCount             int             `json:"order_count"`
	AverageOrderValueCents int             `json:"average_order_value_cents"`
	RevenueByDay           []DayRevenueDTO `json:"revenue_by_day"`
}

// CustomerDTO is one row of the customers table, derived from order history.
type CustomerDTO struct {
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	LastOrderDate   time.Time `json:"last_order_date"`
	TotalOrders     int       `json:"total_orders"`
	TotalSpentCents int       `json:"total_spent_cents"`
}
