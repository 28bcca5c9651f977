package http

import (
	"context"
	"io"

	"sacdash/internal/services"
	"sacdash/pkg/contracts/domain"
)

// DashboardServiceInterface defines what the handlers need from the
// dashboard service.
type DashboardServiceInterface interface {
	Load(ctx context.Context) error
	Dashboard(ctx context.Context, opts domain.FilterOptions) (domain.Dashboard, error)
	Transactions(ctx context.Context, opts domain.FilterOptions) ([]domain.DisplayRow, error)
	ExportWorkbook(ctx context.Context, opts domain.FilterOptions, w io.Writer) error
	Health(ctx context.Context) services.HealthStatus
}
