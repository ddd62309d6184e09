// Package httptransport is the console's HTTP surface: login flows, session
// introspection, guarded screens and the backend forwarder.
package httptransport

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"evoting/internal/apiclient"
	"evoting/internal/capability"
	"evoting/internal/domain"
	"evoting/internal/guard"
	"evoting/internal/session"
	"evoting/internal/voterauth"
	id "evoting/pkg/domain"
	"evoting/pkg/platform/middleware/request"
)

// AdminAuth signs administrators in and out.
type AdminAuth interface {
	Login(ctx context.Context, email, password string) (*domain.Principal, error)
	Logout(ctx context.Context, kind id.PrincipalKind) error
}

// VoterAuth is the voter login state machine.
type VoterAuth interface {
	Initiate(ctx context.Context, claims voterauth.IdentityClaims) (voterauth.State, error)
	Verify(ctx context.Context, code string) (voterauth.State, error)
	Reset() voterauth.State
	State() voterauth.State
}

// Sessions is the read side of the session store.
type Sessions interface {
	Active(ctx context.Context, kind id.PrincipalKind) *domain.Principal
	Status(ctx context.Context, kind id.PrincipalKind) session.Status
}

// Backend relays screen API calls.
type Backend interface {
	Forward(ctx context.Context, kind id.PrincipalKind, method, pathAndQuery, contentType string, body io.Reader) (*apiclient.Response, error)
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type namedCheck struct {
	name    string
	checker HealthChecker
}

// Handler wires console endpoints to the identity core.
type Handler struct {
	admin    AdminAuth
	voter    VoterAuth
	sessions Sessions
	guard    *guard.Guard
	resolver *capability.Resolver
	backend  Backend
	logger   *slog.Logger
	checks   []namedCheck
}

func NewHandler(admin AdminAuth, voter VoterAuth, sessions Sessions, g *guard.Guard, backend Backend, logger *slog.Logger) *Handler {
	return &Handler{
		admin:    admin,
		voter:    voter,
		sessions: sessions,
		guard:    g,
		resolver: capability.NewResolver(sessions),
		backend:  backend,
		logger:   logger,
	}
}

// AddHealthCheck makes /readyz fail while checker does.
func (h *Handler) AddHealthCheck(name string, checker HealthChecker) {
	h.checks = append(h.checks, namedCheck{name: name, checker: checker})
}

// NewRouter mounts every console route. gatherer backs /metrics and may be nil.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.RequestTime)
	r.Use(request.ClientMetadata)
	r.Use(request.Logger(h.logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/readyz", h.HandleReady)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Get(guard.AdminLoginPath, h.HandleLoginEntry(id.KindAdministrator))
	r.Get(guard.VoterLoginPath, h.HandleLoginEntry(id.KindVoter))

	r.Route("/api", func(r chi.Router) {
		r.Get("/session", h.HandleSessionStatus)
		r.Get("/can", h.HandleCan)

		r.Post("/admin/login", h.HandleAdminLogin)
		r.Post("/admin/logout", h.HandleLogout(id.KindAdministrator))
		r.Get("/admin/me", h.HandleMe(id.KindAdministrator))
		r.Get("/admin/menu", h.HandleMenu(id.KindAdministrator))

		r.Post("/voter/login", h.HandleVoterInitiate)
		r.Post("/voter/verify", h.HandleVoterVerify)
		r.Post("/voter/reset", h.HandleVoterReset)
		r.Get("/voter/state", h.HandleVoterState)
		r.Post("/voter/logout", h.HandleLogout(id.KindVoter))
		r.Get("/voter/me", h.HandleMe(id.KindVoter))
	})

	r.Handle("/backend/*", http.HandlerFunc(h.HandleForward))

	for _, route := range h.guard.Routes() {
		r.With(h.guard.Require(route)).Get(route.Path, h.HandleView(route))
	}
	return r
}
