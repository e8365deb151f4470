package httptransport

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"wrldrelief/internal/campaign"
	"wrldrelief/internal/transport/http/shared"
	relieferrors "wrldrelief/pkg/relieferrors"
	"wrldrelief/pkg/requestcontext"
)

// CampaignHandler exposes the factory and campaign operations. It is a thin
// layer: every capability and precondition check lives in the engine.
type CampaignHandler struct {
	factory *campaign.Factory
	logger  *slog.Logger
}

func NewCampaignHandler(factory *campaign.Factory, logger *slog.Logger) *CampaignHandler {
	return &CampaignHandler{factory: factory, logger: logger}
}

// Register mounts the campaign routes. The router applies auth middleware to
// this whole group; read-only routes are mounted separately.
func (h *CampaignHandler) Register(r chi.Router) {
	r.Post("/campaigns", h.handleCreate)
	r.Patch("/campaigns/{id}", h.handleUpdate)
	r.Post("/campaigns/{id}/status", h.handleChangeStatus)
	r.Post("/campaigns/{id}/donations", h.handleDonate)
	r.Post("/campaigns/{id}/distributions", h.handleDistribute)
	r.Post("/campaigns/{id}/pause", h.handleEmergencyPause)
	r.Post("/campaigns/{id}/unpause", h.handleEmergencyUnpause)
	r.Post("/campaigns/{id}/withdraw", h.handleEmergencyWithdraw)
	r.Post("/admin/campaigns/{id}/deactivate", h.handleDeactivate)
	r.Post("/admin/factory/pause", h.handleFactoryPause)
	r.Post("/admin/factory/unpause", h.handleFactoryUnpause)
}

// RegisterReads mounts the public query routes.
func (h *CampaignHandler) RegisterReads(r chi.Router) {
	r.Get("/campaigns/count", h.handleCount)
	r.Get("/campaigns/{id}", h.handleInfo)
	r.Get("/campaigns/{id}/donations/{donationID}", h.handleDonationByID)
	r.Get("/campaigns/{id}/distributions/{distributionID}", h.handleDistributionByID)
	r.Get("/disasters/{id}/campaigns", h.handleByDisaster)
	r.Get("/organizers/{addr}/campaigns", h.handleByOrganizer)
}

type createCampaignRequest struct {
	DisasterID   string    `json:"disaster_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	SupportItems []string  `json:"support_items"`
	ImageURL     string    `json:"image_url"`
}

type createCampaignResponse struct {
	ID     uint64 `json:"id"`
	Handle string `json:"handle"`
}

func (h *CampaignHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createCampaignRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	c, err := h.factory.CreateCampaign(ctx, requestcontext.Caller(ctx), campaign.CreateInput{
		DisasterID:   req.DisasterID,
		Name:         req.Name,
		Description:  req.Description,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		SupportItems: req.SupportItems,
		ImageURL:     req.ImageURL,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, createCampaignResponse{ID: c.ID(), Handle: c.Handle()})
}

type donateRequest struct {
	Amount int64 `json:"amount"`
}

func (h *CampaignHandler) handleDonate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := h.campaignFromPath(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req donateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	donation, err := c.Donate(ctx, requestcontext.Caller(ctx), req.Amount)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, donation)
}

type distributeRequest struct {
	Recipient   string `json:"recipient"`
	SupportItem string `json:"support_item"`
	Amount      int64  `json:"amount"`
}

func (h *CampaignHandler) handleDistribute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := h.campaignFromPath(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req distributeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	dist, err := c.Distribute(ctx, requestcontext.Caller(ctx), req.Recipient, req.SupportItem, req.Amount)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, dist)
}

type updateCampaignRequest struct {
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

func (h *CampaignHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := h.campaignFromPath(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req updateCampaignRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := c.UpdateCampaign(ctx, requestcontext.Caller(ctx), req.Description, req.ImageURL); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type changeStatusRequest struct {
	Status string `json:"status"`
}

func (h *CampaignHandler) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := h.campaignFromPath(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req changeStatusRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	status, err := campaign.ParseStatus(req.Status)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := c.ChangeStatus(ctx, requestcontext.Caller(ctx), status); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CampaignHandler) handleEmergencyPause(w http.ResponseWriter, r *http.Request) {
	h.adminAction(w, r, func(c *campaign.Campaign) error {
		return c.EmergencyPause(r.Context(), requestcontext.Caller(r.Context()))
	})
}

func (h *CampaignHandler) handleEmergencyUnpause(w http.ResponseWriter, r *http.Request) {
	h.adminAction(w, r, func(c *campaign.Campaign) error {
		return c.EmergencyUnpause(r.Context(), requestcontext.Caller(r.Context()))
	})
}

func (h *CampaignHandler) handleEmergencyWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := h.campaignFromPath(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	amount, err := c.EmergencyWithdraw(ctx, requestcontext.Caller(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]int64{"amount": amount})
}

func (h *CampaignHandler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.factory.DeactivateCampaign(ctx, requestcontext.Caller(ctx), id); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CampaignHandler) handleFactoryPause(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.factory.Pause(ctx, requestcontext.Caller(ctx)); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CampaignHandler) handleFactoryUnpause(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.factory.Unpause(ctx, requestcontext.Caller(ctx)); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CampaignHandler) handleInfo(w http.ResponseWriter, r *http.Request) {
	c, err := h.campaignFromPath(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, c.Info())
}

func (h *CampaignHandler) handleDonationByID(w http.ResponseWriter, r *http.Request) {
	c, err := h.campaignFromPath(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	donationID, err := pathID(r, "donationID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	donation, err := c.DonationByID(donationID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, donation)
}

func (h *CampaignHandler) handleDistributionByID(w http.ResponseWriter, r *http.Request) {
	c, err := h.campaignFromPath(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	distributionID, err := pathID(r, "distributionID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	dist, err := c.DistributionByID(distributionID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, dist)
}

func (h *CampaignHandler) handleByDisaster(w http.ResponseWriter, r *http.Request) {
	records := h.factory.ActiveCampaignsByDisaster(r.Context(), chi.URLParam(r, "id"))
	shared.WriteJSON(w, http.StatusOK, records)
}

func (h *CampaignHandler) handleByOrganizer(w http.ResponseWriter, r *http.Request) {
	records := h.factory.CampaignsByOrganizer(chi.URLParam(r, "addr"))
	shared.WriteJSON(w, http.StatusOK, records)
}

func (h *CampaignHandler) handleCount(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]uint64{"count": h.factory.TotalCampaignCount()})
}

func (h *CampaignHandler) adminAction(w http.ResponseWriter, r *http.Request, fn func(*campaign.Campaign) error) {
	c, err := h.campaignFromPath(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := fn(c); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CampaignHandler) campaignFromPath(r *http.Request) (*campaign.Campaign, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return nil, err
	}
	return h.factory.Campaign(id)
}

func pathID(r *http.Request, name string) (uint64, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, relieferrors.Newf(relieferrors.CodeInvalidInput, "invalid %s", name)
	}
	return id, nil
}
