package httptransport

import (
	"net/http"

	"evoting/internal/voterauth"
	dErrors "evoting/pkg/domain-errors"
	"evoting/pkg/platform/httputil"
	"evoting/pkg/requestcontext"
)

// HandleVoterInitiate handles POST /api/voter/login with the identity claims.
func (h *Handler) HandleVoterInitiate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	claims, ok := httputil.DecodeAndPrepare[voterauth.IdentityClaims](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	state, err := h.voter.Initiate(ctx, *claims)
	if err != nil {
		h.writeVoterError(w, r, state, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVoterState(state))
}

// HandleVoterVerify handles POST /api/voter/verify with the one-time code.
func (h *Handler) HandleVoterVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[voterVerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	state, err := h.voter.Verify(ctx, req.Code)
	if err != nil {
		h.writeVoterError(w, r, state, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVoterState(state))
}

// HandleVoterReset handles POST /api/voter/reset.
func (h *Handler) HandleVoterReset(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, toVoterState(h.voter.Reset()))
}

// HandleVoterState handles GET /api/voter/state.
func (h *Handler) HandleVoterState(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, toVoterState(h.voter.State()))
}

type voterErrorResponse struct {
	Error            string             `json:"error"`
	ErrorDescription string             `json:"error_description"`
	State            VoterStateResponse `json:"state"`
}

// writeVoterError answers with the classified error and the attempt's state so
// the portal can render the right step.
func (h *Handler) writeVoterError(w http.ResponseWriter, r *http.Request, state voterauth.State, err error) {
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), "voter login failed",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, dErrors.ToHTTPStatus(code), voterErrorResponse{
		Error:            string(code),
		ErrorDescription: dErrors.MessageOf(err),
		State:            toVoterState(state),
	})
}
