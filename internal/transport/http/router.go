package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wrldrelief/internal/platform/metrics"
	"wrldrelief/internal/platform/middleware"
	"wrldrelief/internal/transport/http/shared"
	relieferrors "wrldrelief/pkg/relieferrors"
)

const requestTimeout = 15 * time.Second

// TokenIssuer signs access tokens for the development token endpoint.
type TokenIssuer interface {
	GenerateAccessToken(address string, expiresIn time.Duration) (string, error)
}

// Router assembles the full HTTP surface.
type Router struct {
	campaigns    *CampaignHandler
	registry     *RegistryHandler
	users        *UserHandler
	attestations *AttestationHandler
	validator    middleware.TokenValidator
	issuer       TokenIssuer
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

func NewRouter(
	campaigns *CampaignHandler,
	registry *RegistryHandler,
	users *UserHandler,
	attestations *AttestationHandler,
	validator middleware.TokenValidator,
	issuer TokenIssuer,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Router {
	return &Router{
		campaigns:    campaigns,
		registry:     registry,
		users:        users,
		attestations: attestations,
		validator:    validator,
		issuer:       issuer,
		metrics:      m,
		logger:       logger,
	}
}

// Handler builds the chi router with the middleware chain applied.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(rt.logger))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.ContentTypeJSON)
		if rt.metrics != nil {
			api.Use(middleware.Latency(rt.metrics))
		}

		if rt.issuer != nil {
			api.Post("/auth/token", rt.handleToken)
		}

		// Reads are public.
		rt.campaigns.RegisterReads(api)
		rt.registry.RegisterReads(api)
		rt.users.RegisterReads(api)
		rt.attestations.RegisterReads(api)

		// Mutations require an authenticated caller.
		api.Group(func(priv chi.Router) {
			priv.Use(middleware.RequireAuth(rt.validator, rt.logger))
			rt.campaigns.Register(priv)
			rt.registry.Register(priv)
			rt.users.Register(priv)
		})
	})

	return r
}

type tokenRequest struct {
	Address string `json:"address"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// handleToken signs a short-lived token for any address. Development
// convenience only; production deployments terminate auth upstream.
func (rt *Router) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	if req.Address == "" {
		shared.WriteError(w, relieferrors.New(relieferrors.CodeInvalidInput, "address required"))
		return
	}
	const ttl = time.Hour
	token, err := rt.issuer.GenerateAccessToken(req.Address, ttl)
	if err != nil {
		shared.WriteError(w, relieferrors.Wrap(relieferrors.CodeInternal, "sign token", err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
	})
}
