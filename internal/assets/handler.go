package assets

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/console/internal/platform/httpx"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

// Handler exposes the asset API.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	idempotency shared.IdempotencyChecker
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service, idempotency shared.IdempotencyChecker) *Handler {
	return &Handler{logger: logger, service: service, idempotency: idempotency}
}

// MountRoutes attaches asset routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Post("/{id}/transitions", h.transition)
	r.Get("/{id}/history", h.history)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.List(r.Context(), query.ParseParams(r.URL.Query()))
	if err != nil {
		h.fail(w, "list assets", err)
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
	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get asset", err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var created Asset
	err := httpx.Idempotent(r, h.idempotency, "assets", func() error {
		var err error
		created, err = h.service.Create(r.Context(), in, httpx.ActorID(r))
		return err
	})
	if err != nil {
		h.fail(w, "create asset", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	action, err := httpx.DecodeAction(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	a, err := h.service.Transition(r.Context(), id, action, httpx.ActorID(r))
	if err != nil {
		h.fail(w, "transition asset", err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	records, err := h.service.History(r.Context(), id)
	if err != nil {
		h.fail(w, "asset history", err)
		return
	}
	httpx.JSON(w, http.StatusOK, records)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Warn(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
