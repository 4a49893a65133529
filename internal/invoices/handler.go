package invoices

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/console/internal/platform/httpx"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

// Handler exposes the invoice API.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	idempotency shared.IdempotencyChecker
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service, idempotency shared.IdempotencyChecker) *Handler {
	return &Handler{logger: logger, service: service, idempotency: idempotency}
}

// MountRoutes attaches invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Post("/{id}/transitions", h.transition)
	r.Get("/{id}/history", h.history)
	r.Post("/{id}/lines", h.addLine)
	r.Put("/{id}/lines/{lineID}", h.updateLine)
	r.Delete("/{id}/lines/{lineID}", h.removeLine)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.List(r.Context(), query.ParseParams(r.URL.Query()))
	if err != nil {
		h.fail(w, "list invoices", err)
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
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var created Invoice
	err := httpx.Idempotent(r, h.idempotency, "invoices", func() error {
		var err error
		created, err = h.service.Create(r.Context(), in, httpx.ActorID(r))
		return err
	})
	if err != nil {
		h.fail(w, "create invoice", err)
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
	inv, err := h.service.Transition(r.Context(), id, action, httpx.ActorID(r))
	if err != nil {
		h.fail(w, "transition invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	records, err := h.service.History(r.Context(), id)
	if err != nil {
		h.fail(w, "invoice history", err)
		return
	}
	httpx.JSON(w, http.StatusOK, records)
}

func (h *Handler) addLine(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in LineInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.AddLine(r.Context(), id, in, httpx.ActorID(r))
	if err != nil {
		h.fail(w, "add invoice line", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) updateLine(w http.ResponseWriter, r *http.Request) {
	id, lineID, err := lineParams(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in LineInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.UpdateLine(r.Context(), id, lineID, in, httpx.ActorID(r))
	if err != nil {
		h.fail(w, "update invoice line", err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) removeLine(w http.ResponseWriter, r *http.Request) {
	id, lineID, err := lineParams(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.RemoveLine(r.Context(), id, lineID, httpx.ActorID(r))
	if err != nil {
		h.fail(w, "remove invoice line", err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func lineParams(r *http.Request) (int64, int64, error) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		return 0, 0, err
	}
	lineID, err := httpx.IDParam(r, "lineID")
	if err != nil {
		return 0, 0, err
	}
	return id, lineID, nil
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Warn(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
