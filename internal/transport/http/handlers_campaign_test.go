package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"wrldrelief/internal/asset"
	"wrldrelief/internal/attestation"
	"wrldrelief/internal/campaign"
	"wrldrelief/internal/campaign/adapters"
	"wrldrelief/internal/registry"
	"wrldrelief/internal/userdir"
	"wrldrelief/pkg/requestcontext"
)

const (
	testAdmin     = "0xadmin"
	testOrganizer = "0xorganizer"
	testDonor     = "0xdonor"
	testRecipient = "0xrecipient"
	testDisaster  = "quake-1"
)

// campaignEnv wires the campaign handler to real in-memory collaborators. The
// caller comes from the X-Caller header and the clock is controlled per env.
type campaignEnv struct {
	router  *chi.Mux
	escrow  *asset.Ledger
	factory *campaign.Factory
	now     time.Time
	base    time.Time
}

func newCampaignEnv(t *testing.T) *campaignEnv {
	t.Helper()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), base)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	users := userdir.NewService(userdir.NewInMemoryStore(), log)
	require.NoError(t, users.Bootstrap(ctx, testAdmin, "admin"))
	for addr, role := range map[string]userdir.Role{
		testOrganizer: userdir.RoleOrganizer,
		testDonor:     userdir.RoleDonor,
		testRecipient: userdir.RoleRecipient,
	} {
		_, err := users.Register(ctx, addr, addr)
		require.NoError(t, err)
		require.NoError(t, users.Verify(ctx, testAdmin, addr))
		require.NoError(t, users.GrantRole(ctx, testAdmin, addr, role))
	}

	disasters := registry.NewService(registry.NewInMemoryStore(), adapters.NewAuthorizer(users), nil, log)
	_, err := disasters.Register(ctx, testAdmin, registry.RegisterInput{
		ID:        testDisaster,
		Name:      "Coastal Earthquake",
		Severity:  8,
		StartedAt: base.Add(-24 * time.Hour),
	})
	require.NoError(t, err)

	escrow := asset.NewLedger("USDT")
	attest := attestation.NewService(attestation.NewInMemoryStore(), log)
	factory := campaign.NewFactory(
		adapters.NewUserDirectory(users),
		disasters,
		campaign.Template{Asset: escrow, Attestations: attest, Governance: asset.NewReliefToken()},
		nil, log, nil,
	)

	env := &campaignEnv{escrow: escrow, factory: factory, now: base, base: base}

	h := NewCampaignHandler(factory, log)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			reqCtx := requestcontext.WithTime(req.Context(), env.now)
			if caller := req.Header.Get("X-Caller"); caller != "" {
				reqCtx = requestcontext.WithCaller(reqCtx, caller)
			}
			next.ServeHTTP(w, req.WithContext(reqCtx))
		})
	})
	h.Register(r)
	h.RegisterReads(r)
	env.router = r
	return env
}

func (e *campaignEnv) do(t *testing.T, method, path, caller string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set("X-Caller", caller)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *campaignEnv) createCampaign(t *testing.T) uint64 {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/campaigns", testOrganizer, map[string]any{
		"disaster_id":   testDisaster,
		"name":          "Quake Relief",
		"start_date":    e.base.Add(time.Hour),
		"end_date":      e.base.Add(30 * 24 * time.Hour),
		"support_items": []string{"water"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		ID uint64 `json:"id"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.ID
}

func TestCreateCampaignViaHandler(t *testing.T) {
	env := newCampaignEnv(t)

	id := env.createCampaign(t)
	require.Equal(t, uint64(1), id)

	rec := env.do(t, http.MethodGet, "/campaigns/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var info struct {
		Name   string `json:"name"`
		Status string `json:"status"`
		Handle string `json:"handle"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	require.Equal(t, "Quake Relief", info.Name)
	require.Equal(t, "active", info.Status)
	require.Equal(t, "campaign:1", info.Handle)

	rec = env.do(t, http.MethodGet, "/campaigns/count", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"count":1}`, rec.Body.String())
}

func TestCreateCampaignRequiresOrganizer(t *testing.T) {
	env := newCampaignEnv(t)

	rec := env.do(t, http.MethodPost, "/campaigns", testDonor, map[string]any{
		"disaster_id":   testDisaster,
		"name":          "Nope",
		"start_date":    env.base.Add(time.Hour),
		"end_date":      env.base.Add(2 * time.Hour),
		"support_items": []string{"water"},
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "unauthorized", body.Error)
}

func TestDonateAndDistributeViaHandler(t *testing.T) {
	env := newCampaignEnv(t)
	id := env.createCampaign(t)
	handle := fmt.Sprintf("campaign:%d", id)

	ctx := context.Background()
	require.NoError(t, env.escrow.Mint(ctx, testDonor, 1000))
	require.NoError(t, env.escrow.Approve(ctx, testDonor, handle, 1000))

	// Inside the donation window.
	env.now = env.base.Add(2 * time.Hour)

	rec := env.do(t, http.MethodPost, "/campaigns/1/donations", testDonor, map[string]int64{"amount": 1000})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var donation struct {
		ID     uint64 `json:"id"`
		Amount int64  `json:"amount"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&donation))
	require.Equal(t, uint64(1), donation.ID)
	require.Equal(t, int64(970), donation.Amount)

	rec = env.do(t, http.MethodPost, "/campaigns/1/distributions", testOrganizer, map[string]any{
		"recipient":    testRecipient,
		"support_item": "water",
		"amount":       400,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/campaigns/1/distributions/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/campaigns/1", "", nil)
	var info struct {
		TotalDonations int64 `json:"total_donations"`
		CanEdit        bool  `json:"can_edit"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	require.Equal(t, int64(570), info.TotalDonations)
	require.False(t, info.CanEdit)
}

func TestDonateOutsideWindowViaHandler(t *testing.T) {
	env := newCampaignEnv(t)
	env.createCampaign(t)

	// Clock still at base, before the start date.
	rec := env.do(t, http.MethodPost, "/campaigns/1/donations", testDonor, map[string]int64{"amount": 100})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDeactivateViaHandler(t *testing.T) {
	env := newCampaignEnv(t)
	env.createCampaign(t)

	rec := env.do(t, http.MethodPost, "/admin/campaigns/1/deactivate", testAdmin, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodPost, "/admin/campaigns/1/deactivate", testAdmin, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodGet, "/disasters/"+testDisaster+"/campaigns", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "null", rec.Body.String())
}

func TestInvalidCampaignID(t *testing.T) {
	env := newCampaignEnv(t)

	rec := env.do(t, http.MethodGet, "/campaigns/abc", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/campaigns/99", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmergencyControlsViaHandler(t *testing.T) {
	env := newCampaignEnv(t)
	env.createCampaign(t)

	rec := env.do(t, http.MethodPost, "/campaigns/1/pause", testAdmin, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodPost, "/campaigns/1/pause", testOrganizer, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/campaigns/1/unpause", testAdmin, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodPost, "/campaigns/1/withdraw", testAdmin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"amount":0}`, rec.Body.String())
}
