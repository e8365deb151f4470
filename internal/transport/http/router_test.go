package httptransport

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"wrldrelief/internal/asset"
	"wrldrelief/internal/attestation"
	"wrldrelief/internal/campaign"
	"wrldrelief/internal/campaign/adapters"
	"wrldrelief/internal/jwt"
	"wrldrelief/internal/registry"
	"wrldrelief/internal/userdir"
)

func newFullRouter(t *testing.T) http.Handler {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	users := userdir.NewService(userdir.NewInMemoryStore(), log)
	disasters := registry.NewService(registry.NewInMemoryStore(), adapters.NewAuthorizer(users), nil, log)
	attest := attestation.NewService(attestation.NewInMemoryStore(), log)
	governance := asset.NewReliefToken()
	factory := campaign.NewFactory(
		adapters.NewUserDirectory(users), disasters,
		campaign.Template{Asset: asset.NewLedger("USDT"), Attestations: attest, Governance: governance},
		nil, log, nil,
	)

	tokens := jwt.NewService("test-key", "wrldrelief", "wrldrelief-api")
	rt := NewRouter(
		NewCampaignHandler(factory, log),
		NewRegistryHandler(disasters, log),
		NewUserHandler(users, log),
		NewAttestationHandler(attest, governance, log),
		tokens,
		tokens,
		nil,
		log,
	)
	return rt.Handler()
}

func TestMutationsRequireBearerToken(t *testing.T) {
	router := newFullRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", bytes.NewBufferString(`{"display_name":"Alice"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenFlow(t *testing.T) {
	router := newFullRouter(t)

	// Issue a token for an address.
	body, _ := json.Marshal(map[string]string{"address": "0xalice"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tok))
	require.NotEmpty(t, tok.AccessToken)

	// The token authenticates the caller as their own address.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users", bytes.NewBufferString(`{"display_name":"Alice"}`))
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var user struct {
		Address  string `json:"address"`
		Verified bool   `json:"verified"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&user))
	require.Equal(t, "0xalice", user.Address)
	require.False(t, user.Verified)

	// Public reads need no token.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/0xalice", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	router := newFullRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
