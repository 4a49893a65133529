package clients

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/console/internal/platform/httpx"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

// Handler exposes the client API.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	idempotency shared.IdempotencyChecker
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service, idempotency shared.IdempotencyChecker) *Handler {
	return &Handler{logger: logger, service: service, idempotency: idempotency}
}

// MountRoutes attaches client routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.List(r.Context(), query.ParseParams(r.URL.Query()))
	if err != nil {
		h.fail(w, "list clients", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get client", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var created Client
	err := httpx.Idempotent(r, h.idempotency, "clients", func() error {
		var err error
		created, err = h.service.Create(r.Context(), in, httpx.ActorID(r))
		return err
	})
	if err != nil {
		h.fail(w, "create client", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Warn(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
