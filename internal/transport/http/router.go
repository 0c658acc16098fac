// Package httptransport assembles the HTTP surface: chi router, request
// middleware, and the module handlers. It delegates to domain services
// without embedding business logic so transport concerns remain isolated.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	escalationhandler "custos/internal/escalation/handler"
	forecasthandler "custos/internal/forecast/handler"
	governancehandler "custos/internal/governance/handler"
	"custos/internal/jwttoken"
	marketinghandler "custos/internal/marketing/handler"
	operationshandler "custos/internal/operations/handler"
	"custos/pkg/platform/audit"
	"custos/pkg/platform/httputil"
)

// Deps collects everything the router mounts.
type Deps struct {
	Logger  *slog.Logger
	Tokens  *jwttoken.Service
	AgentID string

	// Security receives auth-rejection events; the audit worker drains it.
	Security chan<- audit.Event

	Escalation *escalationhandler.Handler
	Operations *operationshandler.Handler
	Forecast   *forecasthandler.Handler
	Marketing  *marketinghandler.Handler
	Governance *governancehandler.Handler
}

// NewRouter wires all endpoints. Reviewer endpoints sit behind bearer-token
// auth; workflow endpoints are open to the internal network but honor a
// bearer token when one is presented.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestContext)
	r.Use(requestLogger(deps.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	auth := newAuthenticator(deps.Tokens, deps.Logger, deps.AgentID, deps.Security)

	// Workflow endpoints accept anonymous callers, but a presented token is
	// still validated so an authenticated actor can approve escalations.
	r.Group(func(r chi.Router) {
		r.Use(auth.optional)
		deps.Escalation.Register(r)
		deps.Operations.Register(r)
		deps.Forecast.Register(r)
		deps.Marketing.Register(r)
		deps.Governance.Register(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.middleware)
		deps.Escalation.RegisterReview(r)
		deps.Forecast.RegisterReview(r)
		deps.Governance.RegisterReview(r)
	})

	return r
}
