package httptransport

import (
	"net/http"
	"strings"

	"evoting/internal/apiclient"
	"evoting/internal/guard"
	id "evoting/pkg/domain"
	dErrors "evoting/pkg/domain-errors"
	"evoting/pkg/platform/httputil"
	"evoting/pkg/requestcontext"
)

// HeaderLoginRedirect tells the caller where to sign in again after the backend
// rejected a credential.
const HeaderLoginRedirect = "X-Login-Redirect"

// HandleForward relays /backend/<path> to the election backend as <path>,
// attaching the credential of the kind the path belongs to.
func (h *Handler) HandleForward(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	path := strings.TrimPrefix(r.URL.Path, "/backend")
	if path == "" {
		path = "/"
	}
	target := path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	kind, _ := apiclient.KindForPath(path)
	if kind != "" && h.sessions.Active(ctx, kind) == nil {
		w.Header().Set(HeaderLoginRedirect, guard.LoginPath(kind))
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "not signed in"))
		return
	}

	res, err := h.backend.Forward(ctx, kind, r.Method, target, r.Header.Get("Content-Type"), r.Body)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthenticated) && kind != "" {
			w.Header().Set(HeaderLoginRedirect, guard.LoginPath(kind))
		}
		h.logger.WarnContext(ctx, "backend forward failed",
			"request_id", requestcontext.RequestID(ctx),
			"path", path,
			"kind", kindLabel(kind),
			"code", dErrors.CodeOf(err),
		)
		httputil.WriteError(w, err)
		return
	}

	if res.ContentType != "" {
		w.Header().Set("Content-Type", res.ContentType)
	}
	w.WriteHeader(res.Status)
	_, _ = w.Write(res.Body)
}

func kindLabel(kind id.PrincipalKind) string {
	if kind == "" {
		return "public"
	}
	return kind.String()
}
