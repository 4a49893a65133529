package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/console/internal/assets"
	"github.com/odyssey-erp/console/internal/clients"
	"github.com/odyssey-erp/console/internal/dashboard"
	"github.com/odyssey-erp/console/internal/employees"
	"github.com/odyssey-erp/console/internal/expenses"
	"github.com/odyssey-erp/console/internal/invoices"
	"github.com/odyssey-erp/console/internal/observability"
	"github.com/odyssey-erp/console/internal/platform/httpx"
	"github.com/odyssey-erp/console/internal/projects"
	"github.com/odyssey-erp/console/internal/risks"
	"github.com/odyssey-erp/console/internal/tasks"
)

// Mounter is implemented by every module handler.
type Mounter interface {
	MountRoutes(r chi.Router)
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger     *slog.Logger
	Config     *Config
	Services   *Services
	JobHandler Mounter
	Metrics    *observability.Metrics
}

// NewRouter constructs the chi.Router with console defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	svc := params.Services
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		status := svc.Probe.Status(r.Context())
		code := http.StatusOK
		if status.Status != dashboard.StatusOK {
			code = http.StatusServiceUnavailable
		}
		httpx.JSON(w, code, status)
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/clients", clients.NewHandler(params.Logger, svc.Clients, svc.Idempotency).MountRoutes)
		r.Route("/employees", employees.NewHandler(params.Logger, svc.Employees, svc.Idempotency).MountRoutes)
		r.Route("/projects", projects.NewHandler(params.Logger, svc.Projects, svc.Idempotency).MountRoutes)
		r.Route("/tasks", tasks.NewHandler(params.Logger, svc.Tasks, svc.Idempotency).MountRoutes)
		r.Route("/invoices", invoices.NewHandler(params.Logger, svc.Invoices, svc.Idempotency).MountRoutes)
		r.Route("/expenses", expenses.NewHandler(params.Logger, svc.Expenses, svc.Idempotency).MountRoutes)
		r.Route("/risks", risks.NewHandler(params.Logger, svc.Risks, svc.Idempotency).MountRoutes)
		r.Route("/assets", assets.NewHandler(params.Logger, svc.Assets, svc.Idempotency).MountRoutes)
		r.Route("/dashboard", dashboard.NewHandler(params.Logger, svc.Dashboard).MountRoutes)
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	return r
}
