package httptransport

import (
	"log/slog"
	"net/http"
	"strings"

	"custos/internal/jwttoken"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/audit"
	"custos/pkg/platform/httputil"
	"custos/pkg/requestcontext"
)

// authenticator guards reviewer endpoints with bearer-token auth. Rejected
// credentials become security audit events, delivered asynchronously via
// the audit worker so the rejection path never blocks on storage.
type authenticator struct {
	tokens   *jwttoken.Service
	logger   *slog.Logger
	agentID  string
	security chan<- audit.Event
}

func newAuthenticator(tokens *jwttoken.Service, logger *slog.Logger, agentID string, security chan<- audit.Event) *authenticator {
	return &authenticator{
		tokens:   tokens,
		logger:   logger,
		agentID:  agentID,
		security: security,
	}
}

func (a *authenticator) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		raw := strings.TrimSpace(r.Header.Get("Authorization"))
		token, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			a.reject(w, r, "missing bearer token")
			return
		}

		claims, err := a.tokens.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			a.reject(w, r, dErrors.MessageOf(err))
			return
		}

		ctx = requestcontext.WithActorID(ctx, claims.ActorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// optional authenticates when credentials are present but lets anonymous
// requests through. Workflow endpoints accept anonymous callers; decisions
// that require review then escalate instead of executing, while a valid
// token lets the actor approve under their own authority.
func (a *authenticator) optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get("Authorization"))
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			a.reject(w, r, "missing bearer token")
			return
		}

		claims, err := a.tokens.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			a.reject(w, r, dErrors.MessageOf(err))
			return
		}

		ctx := requestcontext.WithActorID(r.Context(), claims.ActorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *authenticator) reject(w http.ResponseWriter, r *http.Request, reason string) {
	ctx := r.Context()

	event := audit.Event{
		AgentID:   a.agentID,
		Subject:   r.URL.Path,
		Action:    string(audit.ActionAuthRejected),
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
	}
	select {
	case a.security <- event:
	default:
		// Drop rather than block the request path; the warn log still
		// records the rejection.
	}

	a.logger.WarnContext(ctx, "request rejected",
		"request_id", requestcontext.RequestID(ctx),
		"path", r.URL.Path,
		"reason", reason,
	)
	httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
}
