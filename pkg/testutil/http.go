// Package testutil holds helpers shared by the console's handler, guard, and
// client tests: request builders, response assertions, signed test credentials,
// and Given/When/Then subtests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewJSONRequest builds a request whose body is body encoded as JSON. A nil body
// sends no payload but keeps the JSON content type.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	if body == nil {
		return NewRequestWithBody(t, method, path, "")
	}
	return NewRequestWithBody(t, method, path, MustMarshal(t, body))
}

func NewRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, path, nil)
}

// NewRequestWithBody sends body verbatim as JSON, for malformed payloads.
func NewRequestWithBody(t *testing.T, method, path string, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DoRequest runs req through handler and returns the recorder.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func MustMarshal(t *testing.T, v any) string {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err, "failed to marshal value")
	return string(body)
}

// decode reads the recorded body without draining it, so several assertions can
// inspect the same response.
func decode(t *testing.T, rr *httptest.ResponseRecorder, target any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), target), "response is not JSON: %s", rr.Body.String())
}

// UnmarshalResponse decodes the response body into a T.
func UnmarshalResponse[T any](t *testing.T, rr *httptest.ResponseRecorder) *T {
	t.Helper()
	var result T
	decode(t, rr, &result)
	return &result
}

// errorEnvelope is the error body every console endpoint writes. Voter endpoints
// add a state object, which is ignored here.
type errorEnvelope struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, rr.Code, "unexpected status code, body: %s", rr.Body.String())
}

func AssertStatusOK(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	AssertStatus(t, rr, http.StatusOK)
}

// AssertStatusAndError checks the status and the envelope's error code, and
// that the envelope carries a description for the operator.
func AssertStatusAndError(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus int, expectedCode string) {
	t.Helper()
	AssertStatus(t, rr, expectedStatus)
	var env errorEnvelope
	decode(t, rr, &env)
	assert.Equal(t, expectedCode, env.Error, "unexpected error code")
	assert.NotEmpty(t, env.Description, "error_description is empty")
}

// AssertLoginRedirect checks that a guarded screen sent the browser to the
// login path.
func AssertLoginRedirect(t *testing.T, rr *httptest.ResponseRecorder, loginPath string) {
	t.Helper()
	AssertStatus(t, rr, http.StatusFound)
	assert.Equal(t, loginPath, rr.Header().Get("Location"), "unexpected redirect target")
}

// AssertJSONContains checks one top-level field of a JSON object body.
func AssertJSONContains(t *testing.T, rr *httptest.ResponseRecorder, key string, expectedValue any) {
	t.Helper()
	var result map[string]any
	decode(t, rr, &result)
	assert.Equal(t, expectedValue, result[key], "unexpected value for key %q", key)
}

func AssertJSONHasKey(t *testing.T, rr *httptest.ResponseRecorder, key string) {
	t.Helper()
	var result map[string]any
	decode(t, rr, &result)
	assert.Contains(t, result, key, "expected key %q not found in response", key)
}
