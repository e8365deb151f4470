package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"wrldrelief/internal/registry"
	"wrldrelief/internal/transport/http/shared"
	"wrldrelief/pkg/requestcontext"
)

//go:generate mockgen -source=handlers_registry.go -destination=mocks/registry_service.go -package=mocks

// RegistryService is the subset of the registry the handler needs.
type RegistryService interface {
	Register(ctx context.Context, caller string, in registry.RegisterInput) (*registry.Disaster, error)
	UpdateDescription(ctx context.Context, caller, id, location, description string) error
	Deactivate(ctx context.Context, caller, id string) error
	Get(ctx context.Context, id string) (*registry.Disaster, error)
	List(ctx context.Context) ([]*registry.Disaster, error)
}

type RegistryHandler struct {
	svc    RegistryService
	logger *slog.Logger
}

func NewRegistryHandler(svc RegistryService, logger *slog.Logger) *RegistryHandler {
	return &RegistryHandler{svc: svc, logger: logger}
}

func (h *RegistryHandler) Register(r chi.Router) {
	r.Post("/disasters", h.handleRegister)
	r.Patch("/disasters/{id}", h.handleUpdate)
	r.Post("/disasters/{id}/deactivate", h.handleDeactivate)
}

func (h *RegistryHandler) RegisterReads(r chi.Router) {
	r.Get("/disasters", h.handleList)
	r.Get("/disasters/{id}", h.handleGet)
}

type registerDisasterRequest struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	Severity    int       `json:"severity"`
	Description string    `json:"description"`
	StartedAt   time.Time `json:"started_at"`
}

func (h *RegistryHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req registerDisasterRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	d, err := h.svc.Register(ctx, requestcontext.Caller(ctx), registry.RegisterInput{
		ID:          req.ID,
		Name:        req.Name,
		Location:    req.Location,
		Severity:    req.Severity,
		Description: req.Description,
		StartedAt:   req.StartedAt,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, d)
}

type updateDisasterRequest struct {
	Location    string `json:"location"`
	Description string `json:"description"`
}

func (h *RegistryHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req updateDisasterRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.svc.UpdateDescription(ctx, requestcontext.Caller(ctx), id, req.Location, req.Description); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RegistryHandler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if err := h.svc.Deactivate(ctx, requestcontext.Caller(ctx), id); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RegistryHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, d)
}

func (h *RegistryHandler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, list)
}
