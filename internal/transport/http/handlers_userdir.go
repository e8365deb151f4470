package httptransport

import (
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"wrldrelief/internal/transport/http/shared"
	"wrldrelief/internal/userdir"
	"wrldrelief/pkg/requestcontext"
)

type UserHandler struct {
	svc    *userdir.Service
	logger *slog.Logger
}

func NewUserHandler(svc *userdir.Service, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

func (h *UserHandler) Register(r chi.Router) {
	r.Post("/users", h.handleRegister)
	r.Post("/users/{addr}/verify", h.handleVerify)
	r.Post("/users/{addr}/roles", h.handleGrantRole)
	r.Delete("/users/{addr}/roles/{role}", h.handleRevokeRole)
}

func (h *UserHandler) RegisterReads(r chi.Router) {
	r.Get("/users/{addr}", h.handleGet)
}

type registerUserRequest struct {
	DisplayName string `json:"display_name"`
}

type userResponse struct {
	Address       string    `json:"address"`
	DisplayName   string    `json:"display_name"`
	Verified      bool      `json:"verified"`
	Roles         []string  `json:"roles"`
	TotalDonated  int64     `json:"total_donated"`
	TotalReceived int64     `json:"total_received"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toUserResponse(u *userdir.User) userResponse {
	roles := make([]string, 0, len(u.Roles))
	for r, ok := range u.Roles {
		if ok {
			roles = append(roles, string(r))
		}
	}
	sort.Strings(roles)
	return userResponse{
		Address:       u.Address,
		DisplayName:   u.DisplayName,
		Verified:      u.Verified,
		Roles:         roles,
		TotalDonated:  u.TotalDonated,
		TotalReceived: u.TotalReceived,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// handleRegister enrolls the authenticated caller under their own address.
func (h *UserHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req registerUserRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	u, err := h.svc.Register(ctx, requestcontext.Caller(ctx), req.DisplayName)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toUserResponse(u))
}

func (h *UserHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.svc.Verify(ctx, requestcontext.Caller(ctx), chi.URLParam(r, "addr")); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type grantRoleRequest struct {
	Role string `json:"role"`
}

func (h *UserHandler) handleGrantRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req grantRoleRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	role, err := userdir.ParseRole(req.Role)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.svc.GrantRole(ctx, requestcontext.Caller(ctx), chi.URLParam(r, "addr"), role); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) handleRevokeRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role, err := userdir.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.svc.RevokeRole(ctx, requestcontext.Caller(ctx), chi.URLParam(r, "addr"), role); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.GetUserInfo(r.Context(), chi.URLParam(r, "addr"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toUserResponse(u))
}
