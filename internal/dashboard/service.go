package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopvite/shopvite-backend/internal/uow"
	"github.com/shopvite/shopvite-backend/pkg/enums"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
)

const (
	defaultSalesDays = 7
	maxSalesDays     = 90
)

type uowRunner interface {
	Run(ctx context.Context, fn func(u *uow.UnitOfWork) error) error
	Repos() *uow.UnitOfWork
}

// Stats is the admin dashboard headline block.
type Stats struct {
	TotalUsers    int64           `json:"total_users"`
	TotalOrders   int64           `json:"total_orders"`
	TotalProducts int64           `json:"total_products"`
	PendingOrders int64           `json:"pending_orders"`
	Revenue       decimal.Decimal `json:"revenue"`
}

// SalesPoint is one day of the sales series.
type SalesPoint struct {
	Day          time.Time       `json:"day"`
	OrderCount   int64           `json:"order_count"`
	Revenue      decimal.Decimal `json:"revenue"`
	RevenueCents int64           `json:"revenue_cents"`
}

// SalesSeries is the response of the sales analytics endpoint.
type SalesSeries struct {
	Days   int          `json:"days"`
	Points []SalesPoint `json:"points"`
}

// Service aggregates store-wide figures for the admin dashboard.
type Service interface {
	Stats(ctx context.Context) (*Stats, error)
	Sales(ctx context.Context, days int) (*SalesSeries, error)
}

type service struct {
	runner uowRunner
}

// NewService wires the dashboard service.
func NewService(runner uowRunner) (Service, error) {
	if runner == nil {
		return nil, errors.New("dashboard: runner is required")
	}
	return &service{runner: runner}, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	repos := s.runner.Repos()

	users, err := repos.Users.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count users")
	}
	orders, err := repos.Orders.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count orders")
	}
	products, err := repos.Products.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count products")
	}
	pending, err := repos.Orders.CountByStatus(ctx, enums.OrderStatusPending)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count pending orders")
	}
	revenueCents, err := repos.Orders.TotalRevenueCents(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum revenue")
	}

	return &Stats{
		TotalUsers:    users,
		TotalOrders:   orders,
		TotalProducts: products,
		PendingOrders: pending,
		Revenue:       centsToDecimal(revenueCents),
	}, nil
}

func (s *service) Sales(ctx context.Context, days int) (*SalesSeries, error) {
	if days <= 0 {
		days = defaultSalesDays
	}
	if days > maxSalesDays {
		days = maxSalesDays
	}

	points, err := s.runner.Repos().Orders.SalesSeries(ctx, days)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load sales series")
	}

	series := &SalesSeries{Days: days, Points: make([]SalesPoint, 0, len(points))}
	for _, point := range points {
		series.Points = append(series.Points, SalesPoint{
			Day:          point.Day,
			OrderCount:   point.OrderCount,
			Revenue:      centsToDecimal(point.RevenueCents),
			RevenueCents: point.RevenueCents,
		})
	}
	return series, nil
}

func centsToDecimal(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))
}
