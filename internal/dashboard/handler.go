package dashboard

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/console/internal/platform/httpx"
	"github.com/odyssey-erp/console/internal/shared"
)

// Handler exposes the dashboard API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.show)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	scope, err := ParseScope(r.URL.Query())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if scope.EmployeeID == 0 {
		scope.EmployeeID = httpx.ActorID(r)
	}
	vm, err := h.service.Get(r.Context(), scope)
	if err != nil {
		h.logger.Error("build dashboard", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vm)
}

// ParseScope reads employee_id, window_days, period_start and period_end.
func ParseScope(values url.Values) (Scope, error) {
	var scope Scope
	if raw := values.Get("employee_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			return Scope{}, shared.NewValidationError("employee_id", "must be a non-negative integer")
		}
		scope.EmployeeID = id
	}
	if raw := values.Get("window_days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 || days > 366 {
			return Scope{}, shared.NewValidationError("window_days", "must be between 1 and 366")
		}
		scope.WindowDays = days
	}
	for field, dest := range map[string]*shared.Date{"period_start": &scope.PeriodStart, "period_end": &scope.PeriodEnd} {
		raw := values.Get(field)
		if raw == "" {
			continue
		}
		d, err := shared.ParseDate(raw)
		if err != nil {
			return Scope{}, shared.NewValidationError(field, "must be a YYYY-MM-DD date")
		}
		*dest = d
	}
	if !scope.PeriodStart.IsZero() && !scope.PeriodEnd.IsZero() && scope.PeriodEnd.Before(scope.PeriodStart) {
		return Scope{}, shared.NewValidationError("period_end", "must not be before period_start")
	}
	return scope, nil
}
