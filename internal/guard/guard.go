// Package guard decides whether a protected console route may be entered.
package guard

import (
	"context"
	"log/slog"
	"net/http"

	"evoting/internal/capability"
	"evoting/internal/platform/metrics"
	id "evoting/pkg/domain"
	dErrors "evoting/pkg/domain-errors"
	"evoting/pkg/platform/httputil"
	"evoting/pkg/requestcontext"
)

// Decision is the outcome of Authorize. Redirect is set when Allow is false.
type Decision struct {
	Allow    bool
	Redirect string
}

// Guard evaluates routes against the session store.
type Guard struct {
	sessions capability.SessionReader
	routes   []Route
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Guard)

func WithRoutes(routes []Route) Option {
	return func(g *Guard) {
		g.routes = routes
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Guard) {
		g.metrics = m
	}
}

func New(sessions capability.SessionReader, opts ...Option) *Guard {
	g := &Guard{
		sessions: sessions,
		routes:   DefaultRoutes(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Authorize allows entry when an unexpired principal of the route's kind is
// signed in, and otherwise redirects to that kind's login. It does not check the
// route's capability; see Require and Menu.
func (g *Guard) Authorize(ctx context.Context, route Route) Decision {
	if g.sessions.Active(ctx, route.Kind) == nil {
		g.metrics.IncrementGuardDecision(route.Kind.String(), "redirect")
		return Decision{Redirect: LoginPath(route.Kind)}
	}
	g.metrics.IncrementGuardDecision(route.Kind.String(), "allow")
	return Decision{Allow: true}
}

// Menu returns the routes of kind the signed-in principal may see, in order.
func (g *Guard) Menu(ctx context.Context, kind id.PrincipalKind) []Route {
	p := g.sessions.Active(ctx, kind)
	if p == nil {
		return nil
	}
	out := make([]Route, 0, len(g.routes))
	for _, r := range g.routes {
		if r.Kind == kind && capability.CanAccess(p, r.Capability) {
			out = append(out, r)
		}
	}
	return out
}

// Routes returns the full route table.
func (g *Guard) Routes() []Route {
	return g.routes
}

// Lookup finds the route registered for path.
func (g *Guard) Lookup(path string) (Route, bool) {
	for _, r := range g.routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// Require is chi-compatible middleware for route. A missing session redirects
// to the login entry point; a principal lacking the route's capability gets 403.
func (g *Guard) Require(route Route) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			decision := g.Authorize(ctx, route)
			if !decision.Allow {
				http.Redirect(w, r, decision.Redirect, http.StatusFound)
				return
			}
			if !capability.CanAccess(g.sessions.Active(ctx, route.Kind), route.Capability) {
				g.metrics.IncrementGuardDecision(route.Kind.String(), "forbidden")
				g.logger.InfoContext(ctx, "route denied",
					"path", route.Path,
					"capability", route.Capability,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "you do not have access to "+route.Title))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
