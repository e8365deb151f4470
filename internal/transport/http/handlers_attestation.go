package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"wrldrelief/internal/asset"
	"wrldrelief/internal/attestation"
	"wrldrelief/internal/transport/http/shared"
)

// AttestationHandler serves attestation and governance token reads. Minting
// happens inside the campaign engine; there is no mint endpoint.
type AttestationHandler struct {
	svc        *attestation.Service
	governance *asset.ReliefToken
	logger     *slog.Logger
}

func NewAttestationHandler(svc *attestation.Service, governance *asset.ReliefToken, logger *slog.Logger) *AttestationHandler {
	return &AttestationHandler{svc: svc, governance: governance, logger: logger}
}

func (h *AttestationHandler) RegisterReads(r chi.Router) {
	r.Get("/attestations/{tokenID}", h.handleGet)
	r.Get("/holders/{addr}/attestations", h.handleListByHolder)
	r.Get("/holders/{addr}/governance", h.handleGovernanceBalance)
}

func (h *AttestationHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Get(r.Context(), chi.URLParam(r, "tokenID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, a)
}

func (h *AttestationHandler) handleListByHolder(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListByHolder(r.Context(), chi.URLParam(r, "addr"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, list)
}

func (h *AttestationHandler) handleGovernanceBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.governance.BalanceOf(r.Context(), chi.URLParam(r, "addr"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}
