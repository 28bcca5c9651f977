package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "sacdash/internal/errors"
	"sacdash/internal/services"
	"sacdash/pkg/contracts/domain"
)

const dateParamFormat = "2006-01-02"

// DashboardHandler handles dashboard HTTP requests
type DashboardHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
		validate:     validator.New(),
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetDashboard)
	r.Get("/transactions", h.GetTransactions)
	r.Get("/export", h.ExportWorkbook)
	r.Post("/reload", h.Reload)

	return r
}

// filterRequest carries the raw filter query parameters through validation.
type filterRequest struct {
	View  string   `validate:"omitempty,oneof=Engines Mods Both"`
	Start string   `validate:"omitempty,datetime=2006-01-02"`
	End   string   `validate:"omitempty,datetime=2006-01-02"`
	Staff []string `validate:"dive,max=128"`
}

// parseFilter extracts and validates the filter controls from the query
// string. All controls are optional: the view defaults to Both and the
// date range defaults to the bounds of the view-filtered ledger.
func (h *DashboardHandler) parseFilter(r *http.Request) (domain.FilterOptions, error) {
	q := r.URL.Query()

	req := filterRequest{
		View:  q.Get("view"),
		Start: q.Get("start"),
		End:   q.Get("end"),
	}
	for _, raw := range q["staff"] {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				req.Staff = append(req.Staff, name)
			}
		}
	}

	if err := h.validate.Struct(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			field := strings.ToLower(verrs[0].Field())
			return domain.FilterOptions{}, apierrors.ErrValidation(field, fmt.Sprintf("invalid value for %s", field))
		}
		return domain.FilterOptions{}, apierrors.ErrInvalidRequest
	}

	opts := domain.FilterOptions{
		View:  domain.ViewBoth,
		Staff: req.Staff,
	}
	if req.View != "" {
		opts.View = domain.View(req.View)
	}
	if req.Start != "" {
		t, _ := time.Parse(dateParamFormat, req.Start)
		opts.Start = t
	}
	if req.End != "" {
		t, _ := time.Parse(dateParamFormat, req.End)
		opts.End = t
	}

	if !opts.Start.IsZero() && !opts.End.IsZero() && opts.End.Before(opts.Start) {
		return domain.FilterOptions{}, apierrors.ErrValidation("end", "end date precedes start date")
	}

	return opts, nil
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	opts, err := h.parseFilter(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "building dashboard",
		slog.String("request_id", reqID),
		slog.String("view", string(opts.View)),
	)

	dash, err := h.service.Dashboard(r.Context(), opts)
	if err != nil {
		if errors.Is(err, services.ErrSnapshotNotLoaded) {
			h.errorHandler.HandleError(w, r, apierrors.ErrSnapshotUnavailable)
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   dash,
	})
}

// GetTransactions handles GET /api/dashboard/transactions
func (h *DashboardHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.parseFilter(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	rows, err := h.service.Transactions(r.Context(), opts)
	if err != nil {
		if errors.Is(err, services.ErrSnapshotNotLoaded) {
			h.errorHandler.HandleError(w, r, apierrors.ErrSnapshotUnavailable)
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   rows,
		"count":  len(rows),
	})
}

// ExportWorkbook handles GET /api/dashboard/export
func (h *DashboardHandler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	opts, err := h.parseFilter(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "exporting workbook",
		slog.String("view", string(opts.View)))

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="sac-dashboard-%s.xlsx"`, time.Now().Format("20060102-150405")))

	if err := h.service.ExportWorkbook(r.Context(), opts, w); err != nil {
		h.logger.ErrorContext(r.Context(), "workbook export failed",
			slog.String("error", err.Error()))
		// Headers may already be written; nothing more to do safely.
	}
}

// Reload handles POST /api/dashboard/reload: re-pulls the five sources and
// atomically swaps the snapshot. A failed load keeps the previous snapshot.
func (h *DashboardHandler) Reload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.InfoContext(r.Context(), "reloading snapshot",
		slog.String("request_id", reqID))

	if err := h.service.Load(r.Context()); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.SourceError("reload", err))
		return
	}

	health := h.service.Health(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   health,
	})
}
