package service

import (
	"context"
	"time"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"

	"github.com/shopspring/decimal"
)

type DashboardStats struct {
	Products      model.ProductStats `json:"products"`
	UnviewedCount int64              `json:"unviewed_orders"`
	TodayOrders   int64              `json:"today_orders"`
	TodayRevenue  decimal.Decimal    `json:"today_revenue"`
}

type DashboardService interface {
	GetStockMovement(ctx context.Context, days int) ([]model.DailyMovement, error)
	GetSales(ctx context.Context, days int) (*model.SalesSummary, error)
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

type dashboardService struct {
	store             repository.Store
	lowStockThreshold decimal.Decimal
	now               func() time.Time
}

func NewDashboardService(store repository.Store, lowStockThreshold float64) DashboardService {
	return &dashboardService{
		store:             store,
		lowStockThreshold: decimal.NewFromFloat(lowStockThreshold),
		now:               time.Now,
	}
}

// period covers the last days calendar days including today.
func (s *dashboardService) period(days int) (time.Time, time.Time) {
	endDate := s.now()
	y, m, d := endDate.Date()
	startDate := time.Date(y, m, d, 0, 0, 0, 0, endDate.Location()).AddDate(0, 0, -(days - 1))
	return startDate, endDate
}

func (s *dashboardService) GetStockMovement(ctx context.Context, days int) ([]model.DailyMovement, error) {
	from, to := s.period(days)
	return s.store.Movements().DailyTotals(ctx, from, to)
}

func (s *dashboardService) GetSales(ctx context.Context, days int) (*model.SalesSummary, error) {
	from, to := s.period(days)
	return s.store.Orders().SalesSummary(ctx, from, to)
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	products, err := s.store.Products().Stats(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, err
	}
	unviewed, err := s.store.Orders().CountUnviewed(ctx)
	if err != nil {
		return nil, err
	}
	from, to := s.period(1)
	today, err := s.store.Orders().SalesSummary(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		Products:      *products,
		UnviewedCount: unviewed,
		TodayOrders:   today.OrderCount,
		TodayRevenue:  today.Revenue,
	}, nil
}
