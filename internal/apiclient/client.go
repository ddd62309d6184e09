// Package apiclient calls the election backend on behalf of the console.
//
// Every call is classified before it is returned: callers only ever see one of
// the domain error codes, never a raw transport error. Any call that carried a
// credential and came back 401 clears that kind's session before the error is
// returned, unless a newer login replaced the credential while the call was in
// flight.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"evoting/internal/platform/metrics"
	"evoting/internal/session"
	id "evoting/pkg/domain"
	dErrors "evoting/pkg/domain-errors"
	"evoting/pkg/requestcontext"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Backend endpoints.
const (
	PathAdminLogin    = "/api/auth/admin/login"
	PathVoterInitiate = "/api/auth/voter/login"
	PathVoterVerify   = "/api/auth/voter/verify-otp"
)

const maxResponseBytes = 4 << 20

// Sessions is the part of the session store the client needs.
type Sessions interface {
	Credential(kind id.PrincipalKind) (string, bool)
	ClearIf(ctx context.Context, kind id.PrincipalKind, raw, reason string) (bool, error)
}

// Client is an HTTP client for the election backend.
type Client struct {
	baseURL  string
	http     *http.Client
	sessions Sessions
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func New(baseURL string, sessions Sessions, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 15 * time.Second},
		sessions: sessions,
		logger:   slog.Default(),
		tracer:   otel.Tracer("evoting/apiclient"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// AdminLogin exchanges email and password for an administrator credential.
// Rejected credentials classify as CodeInvalidCredentials.
func (c *Client) AdminLogin(ctx context.Context, email, password string) (string, error) {
	res, err := c.send(ctx, call{
		endpoint: "admin_login",
		method:   http.MethodPost,
		path:     PathAdminLogin,
		body:     adminLoginRequest{Email: email, Password: password},
	})
	if err != nil {
		return "", err
	}
	env, err := decodeEnvelope(res)
	if err != nil {
		return "", err
	}
	if rejected(res.Status, env) {
		if res.Status >= 500 || res.Status == http.StatusTooManyRequests {
			return "", serverError(res.Status, env.Error)
		}
		return "", dErrors.New(dErrors.CodeInvalidCredentials, orDefault(env.Error, "invalid email or password"))
	}
	return decodeToken(env)
}

// InitiateVoterLogin submits the location and identity claims. A backend
// rejection classifies as CodeIdentityMismatch.
func (c *Client) InitiateVoterLogin(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	res, err := c.send(ctx, call{
		endpoint: "voter_initiate",
		method:   http.MethodPost,
		path:     PathVoterInitiate,
		body:     req,
	})
	if err != nil {
		return nil, err
	}
	env, err := decodeEnvelope(res)
	if err != nil {
		return nil, err
	}
	if rejected(res.Status, env) {
		if res.Status >= 500 || res.Status == http.StatusTooManyRequests {
			return nil, serverError(res.Status, env.Error)
		}
		return nil, dErrors.New(dErrors.CodeIdentityMismatch, orDefault(env.Error, "details do not match our records"))
	}
	var out InitiateResponse
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeNetworkOrServer, "unexpected response from server")
		}
	}
	return &out, nil
}

// VerifyVoterOTP submits the one-time code. A backend rejection classifies as
// CodeInvalidChallengeResponse.
func (c *Client) VerifyVoterOTP(ctx context.Context, req VerifyRequest) (string, error) {
	res, err := c.send(ctx, call{
		endpoint: "voter_verify",
		method:   http.MethodPost,
		path:     PathVoterVerify,
		body:     req,
	})
	if err != nil {
		return "", err
	}
	env, err := decodeEnvelope(res)
	if err != nil {
		return "", err
	}
	if rejected(res.Status, env) {
		if res.Status >= 500 || res.Status == http.StatusTooManyRequests {
			return "", serverError(res.Status, env.Error)
		}
		return "", dErrors.New(dErrors.CodeInvalidChallengeResponse, orDefault(env.Error, "invalid or expired code"))
	}
	return decodeToken(env)
}

// Do performs an authenticated JSON call as the signed-in principal of kind and
// decodes the envelope's data into out (if non-nil).
func (c *Client) Do(ctx context.Context, kind id.PrincipalKind, method, path string, body, out any) error {
	res, err := c.send(ctx, call{
		endpoint: "api",
		method:   method,
		path:     path,
		body:     body,
		kind:     kind,
	})
	if err != nil {
		return err
	}
	env, err := decodeEnvelope(res)
	if err != nil {
		return err
	}
	if rejected(res.Status, env) {
		return classifyStatus(res.Status, env.Error)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return dErrors.Wrap(err, dErrors.CodeNetworkOrServer, "unexpected response from server")
		}
	}
	return nil
}

// Forward relays a raw request to the backend as the principal of kind. Non-2xx
// responses other than 401 are returned as-is for the caller to relay.
func (c *Client) Forward(ctx context.Context, kind id.PrincipalKind, method, pathAndQuery, contentType string, body io.Reader) (*Response, error) {
	return c.send(ctx, call{
		endpoint:    "forward",
		method:      method,
		path:        pathAndQuery,
		rawBody:     body,
		contentType: contentType,
		kind:        kind,
	})
}

type call struct {
	endpoint    string
	method      string
	path        string
	body        any
	rawBody     io.Reader
	contentType string
	// kind is empty for the unauthenticated login endpoints.
	kind id.PrincipalKind
}

// send performs the request. A 401 on a credentialed call clears that kind's
// session if it still holds the credential that was sent, and returns
// CodeUnauthenticated; every other status yields a Response.
func (c *Client) send(ctx context.Context, cl call) (_ *Response, err error) {
	start := time.Now()
	status := "error"
	ctx, span := c.tracer.Start(ctx, "backend "+cl.endpoint, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", cl.method),
			attribute.String("evoting.endpoint", cl.endpoint),
		))
	defer func() {
		c.metrics.ObserveBackendCall(cl.endpoint, status, start)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, dErrors.MessageOf(err))
		}
		span.End()
	}()

	req, sent, err := c.newRequest(ctx, cl)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeNetworkOrServer, "request cancelled")
		}
		c.logger.WarnContext(ctx, "backend unreachable",
			"endpoint", cl.endpoint,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeNetworkOrServer, "unable to reach the election server")
	}
	defer resp.Body.Close()

	status = strconv.Itoa(resp.StatusCode)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeNetworkOrServer, "failed to read server response")
	}

	if resp.StatusCode == http.StatusUnauthorized && cl.kind != "" {
		c.logger.WarnContext(ctx, "backend rejected credential, clearing session",
			"kind", cl.kind.String(),
			"endpoint", cl.endpoint,
			"request_id", requestcontext.RequestID(ctx),
		)
		if _, clearErr := c.sessions.ClearIf(ctx, cl.kind, sent, session.ReasonUnauthenticated); clearErr != nil {
			c.logger.ErrorContext(ctx, "failed to clear rejected session", "error", clearErr)
		}
		return nil, dErrors.New(dErrors.CodeUnauthenticated, "session expired, please sign in again")
	}

	return &Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

// newRequest builds the HTTP request and returns the credential it attached, if any.
func (c *Client) newRequest(ctx context.Context, cl call) (*http.Request, string, error) {
	var body io.Reader
	contentType := cl.contentType
	switch {
	case cl.body != nil:
		data, err := json.Marshal(cl.body)
		if err != nil {
			return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode request")
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	case cl.rawBody != nil:
		body = cl.rawBody
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to build request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if reqID := requestcontext.RequestID(ctx); reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}

	if cl.kind != "" {
		raw, ok := c.sessions.Credential(cl.kind)
		if !ok {
			return nil, "", dErrors.New(dErrors.CodeUnauthenticated, fmt.Sprintf("no %s session", cl.kind))
		}
		req.Header.Set("Authorization", "Bearer "+raw)
		return req, raw, nil
	}
	return req, "", nil
}

func decodeEnvelope(res *Response) (*envelope, error) {
	var env envelope
	if len(bytes.TrimSpace(res.Body)) == 0 {
		if res.Status >= 200 && res.Status < 300 {
			return &envelope{Success: true}, nil
		}
		return &env, nil
	}
	if err := json.Unmarshal(res.Body, &env); err != nil {
		if res.Status >= 200 && res.Status < 300 {
			return nil, dErrors.Wrap(err, dErrors.CodeNetworkOrServer, "unexpected response from server")
		}
		// Error pages from proxies are not JSON; classify by status alone.
		return &env, nil
	}
	return &env, nil
}

func decodeToken(env *envelope) (string, error) {
	var tr tokenResponse
	if err := json.Unmarshal(env.Data, &tr); err != nil || strings.TrimSpace(tr.Token) == "" {
		if err == nil {
			err = errors.New("response has no token")
		}
		return "", dErrors.Wrap(err, dErrors.CodeNetworkOrServer, "server did not issue a credential")
	}
	return strings.TrimSpace(tr.Token), nil
}

func rejected(status int, env *envelope) bool {
	return status < 200 || status >= 300 || !env.Success
}

func classifyStatus(status int, msg string) error {
	switch {
	case status == http.StatusForbidden:
		return dErrors.New(dErrors.CodeForbidden, orDefault(msg, "permission denied"))
	case status >= 400 && status < 500 && status != http.StatusTooManyRequests:
		return dErrors.New(dErrors.CodeBadRequest, orDefault(msg, "request rejected"))
	default:
		return serverError(status, msg)
	}
}

func serverError(status int, msg string) error {
	return dErrors.New(dErrors.CodeNetworkOrServer, orDefault(msg, fmt.Sprintf("server error (status %d)", status)))
}

func orDefault(msg, def string) string {
	if strings.TrimSpace(msg) == "" {
		return def
	}
	return msg
}

// KindForPath infers which credential a backend path is called with: admin and
// audit screens use the administrator credential, voter and ballot screens the
// voter credential.
func KindForPath(path string) (id.PrincipalKind, bool) {
	p := strings.ToLower(path)
	switch {
	case strings.Contains(p, "/admin"), strings.Contains(p, "/audit"):
		return id.KindAdministrator, true
	case strings.Contains(p, "/voter"), strings.Contains(p, "/vote"):
		return id.KindVoter, true
	default:
		return "", false
	}
}
