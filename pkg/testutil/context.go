package testutil

import (
	"net/http"
	"time"

	"evoting/pkg/requestcontext"
)

// WithRequestTime pins the request-scoped clock, as the RequestTime middleware
// would. Use it to test expiry at a fixed instant.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithRequestID sets the request ID the handlers log with.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
