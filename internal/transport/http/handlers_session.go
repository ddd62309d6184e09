package httptransport

import (
	"net/http"

	"evoting/internal/guard"
	id "evoting/pkg/domain"
	dErrors "evoting/pkg/domain-errors"
	"evoting/pkg/platform/httputil"
	"evoting/pkg/platform/middleware/request"
	"evoting/pkg/requestcontext"
)

// HandleAdminLogin handles POST /api/admin/login.
func (h *Handler) HandleAdminLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[adminLoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.admin.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.InfoContext(ctx, "administrator login failed",
			"request_id", requestID,
			"client_ip", request.ClientIP(ctx),
			"code", dErrors.CodeOf(err),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "administrator signed in",
		"request_id", requestID,
		"subject_id", p.SubjectID,
		"is_super", p.IsSuper,
	)
	httputil.WriteJSON(w, http.StatusOK, toPrincipalResponse(p))
}

// HandleLogout clears the session of kind.
func (h *Handler) HandleLogout(kind id.PrincipalKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.admin.Logout(r.Context(), kind); err != nil {
			httputil.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleMe returns the active principal of kind, or 401.
func (h *Handler) HandleMe(kind id.PrincipalKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := h.sessions.Active(r.Context(), kind)
		if p == nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "not signed in"))
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toPrincipalResponse(p))
	}
}

// HandleMenu returns the navigation entries the principal of kind may see.
func (h *Handler) HandleMenu(kind id.PrincipalKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if h.sessions.Active(ctx, kind) == nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "not signed in"))
			return
		}
		items := h.guard.Menu(ctx, kind)
		if items == nil {
			items = []guard.Route{}
		}
		httputil.WriteJSON(w, http.StatusOK, menuResponse{Items: items})
	}
}

// HandleSessionStatus handles GET /api/session.
func (h *Handler) HandleSessionStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out := make([]SessionStatusResponse, 0, len(id.AllKinds))
	for _, kind := range id.AllKinds {
		out = append(out, toSessionStatus(h.sessions.Status(ctx, kind)))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleCan handles GET /api/can?kind=admin&capability=register_voter. Repeating
// capability asks about several at once: granted lists the ones held, in request
// order, and allowed is true only when all of them are.
func (h *Handler) HandleCan(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kindParam := q.Get("kind")
	if kindParam == "" {
		kindParam = id.KindAdministrator.String()
	}
	kind, err := id.ParsePrincipalKind(kindParam)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "unknown principal kind"))
		return
	}
	capabilities := q["capability"]
	if len(capabilities) > 1 {
		granted := h.resolver.Filter(r.Context(), kind, capabilities)
		httputil.WriteJSON(w, http.StatusOK, canResponse{
			Kind:    kind.String(),
			Allowed: len(granted) == len(capabilities),
			Granted: granted,
		})
		return
	}
	capability := q.Get("capability")
	httputil.WriteJSON(w, http.StatusOK, canResponse{
		Kind:       kind.String(),
		Capability: capability,
		Allowed:    h.resolver.Can(r.Context(), kind, capability),
	})
}

// HandleLoginEntry describes the login form for kind. Guarded routes redirect
// here when no session is active.
func (h *Handler) HandleLoginEntry(kind id.PrincipalKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		action := "/api/admin/login"
		if kind == id.KindVoter {
			action = "/api/voter/login"
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"kind":          kind.String(),
			"action":        action,
			"authenticated": h.sessions.Active(r.Context(), kind) != nil,
		})
	}
}

// HandleView serves a guarded screen. The screen body itself is rendered
// elsewhere; the console answers with the route and the principal viewing it.
func (h *Handler) HandleView(route guard.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, viewResponse{
			Route:     route,
			Principal: toPrincipalResponse(h.sessions.Active(r.Context(), route.Kind)),
		})
	}
}

// HandleReady reports 503 naming the first dependency that fails its check.
func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	for _, c := range h.checks {
		if err := c.checker.Health(ctx); err != nil {
			h.logger.WarnContext(ctx, "readiness check failed",
				"check", c.name,
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "check": c.name})
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
