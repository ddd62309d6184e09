package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"evoting/internal/credential"
	"evoting/internal/platform/metrics"
	"evoting/internal/session"
	"evoting/internal/storage"
	id "evoting/pkg/domain"
	dErrors "evoting/pkg/domain-errors"
	"evoting/pkg/testutil"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

type ClientSuite struct {
	suite.Suite
	ctx      context.Context
	sessions *session.Store
	metrics  *metrics.Metrics
	handler  http.HandlerFunc
	server   *httptest.Server
	client   *Client
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.ctx = context.Background()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.sessions = session.NewStore(storage.NewInMemorySlotStore(), credential.NewCodec(), session.WithMetrics(s.metrics))
	s.handler = func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.handler(w, r)
	}))
	s.client = New(s.server.URL, s.sessions, WithMetrics(s.metrics))
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, data any, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": success, "data": data, "error": msg})
}

func (s *ClientSuite) requireCode(err error, code dErrors.Code) {
	s.T().Helper()
	s.Require().Error(err)
	s.Equal(code, dErrors.CodeOf(err), "unexpected error code for %v", err)
}

func (s *ClientSuite) TestAdminLogin() {
	s.Run("returns the issued token", func() {
		s.handler = func(w http.ResponseWriter, r *http.Request) {
			s.Equal(PathAdminLogin, r.URL.Path)
			s.Empty(r.Header.Get("Authorization"))
			var body adminLoginRequest
			s.Require().NoError(json.NewDecoder(r.Body).Decode(&body))
			s.Equal("ro@example.org", body.Email)
			writeEnvelope(w, http.StatusOK, true, map[string]string{"token": "tok"}, "")
		}
		token, err := s.client.AdminLogin(s.ctx, "ro@example.org", "pw")
		s.Require().NoError(err)
		s.Equal("tok", token)
	})

	s.Run("rejection is invalid credentials with the server message", func() {
		s.handler = func(w http.ResponseWriter, _ *http.Request) {
			writeEnvelope(w, http.StatusUnauthorized, false, nil, "Invalid credentials")
		}
		_, err := s.client.AdminLogin(s.ctx, "ro@example.org", "wrong")
		s.requireCode(err, dErrors.CodeInvalidCredentials)
		s.Equal("Invalid credentials", dErrors.MessageOf(err))
	})

	s.Run("success without token is a server error", func() {
		s.handler = func(w http.ResponseWriter, _ *http.Request) {
			writeEnvelope(w, http.StatusOK, true, map[string]string{}, "")
		}
		_, err := s.client.AdminLogin(s.ctx, "ro@example.org", "pw")
		s.requireCode(err, dErrors.CodeNetworkOrServer)
	})
}

func (s *ClientSuite) TestInitiateVoterLogin() {
	req := InitiateRequest{
		VoterID:       "KL/01/001/123456",
		NationalID:    "111122223333",
		District:      "Kozhikode",
		LocalBodyType: "Municipality",
		LocalBodyName: "Vadakara Mun",
		Ward:          "12",
	}

	s.Run("success", func() {
		s.handler = func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			s.Require().NoError(json.NewDecoder(r.Body).Decode(&body))
			s.Equal("111122223333", body["aadhaar"])
			s.Equal("12", body["ward_no"])
			writeEnvelope(w, http.StatusOK, true, map[string]string{
				"challenge_reference": "abc123",
				"message":             "OTP sent",
				"phone":               "******7890",
			}, "")
		}
		res, err := s.client.InitiateVoterLogin(s.ctx, req)
		s.Require().NoError(err)
		s.Equal("abc123", res.ChallengeReference)
		s.Equal("******7890", res.Phone)
	})

	s.Run("mismatch", func() {
		s.handler = func(w http.ResponseWriter, _ *http.Request) {
			writeEnvelope(w, http.StatusNotFound, false, nil, "Voter details do not match")
		}
		_, err := s.client.InitiateVoterLogin(s.ctx, req)
		s.requireCode(err, dErrors.CodeIdentityMismatch)
	})

	s.Run("maintenance is a server error", func() {
		s.handler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, "<html>down</html>")
		}
		_, err := s.client.InitiateVoterLogin(s.ctx, req)
		s.requireCode(err, dErrors.CodeNetworkOrServer)
	})

	s.Run("rate limited is a server error", func() {
		s.handler = func(w http.ResponseWriter, _ *http.Request) {
			writeEnvelope(w, http.StatusTooManyRequests, false, nil, "slow down")
		}
		_, err := s.client.InitiateVoterLogin(s.ctx, req)
		s.requireCode(err, dErrors.CodeNetworkOrServer)
	})
}

func (s *ClientSuite) TestVerifyVoterOTP() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		var body VerifyRequest
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&body))
		if body.Code != "554321" {
			writeEnvelope(w, http.StatusBadRequest, false, nil, "Invalid OTP")
			return
		}
		writeEnvelope(w, http.StatusOK, true, map[string]string{"token": "voter-token"}, "")
	}

	_, err := s.client.VerifyVoterOTP(s.ctx, VerifyRequest{VoterID: "V", Code: "000000", ChallengeReference: "abc123"})
	s.requireCode(err, dErrors.CodeInvalidChallengeResponse)

	token, err := s.client.VerifyVoterOTP(s.ctx, VerifyRequest{VoterID: "V", Code: "554321", ChallengeReference: "abc123"})
	s.Require().NoError(err)
	s.Equal("voter-token", token)
}

func (s *ClientSuite) TestUnreachableBackend() {
	s.server.Close()
	_, err := s.client.AdminLogin(s.ctx, "a@b.c", "pw")
	s.requireCode(err, dErrors.CodeNetworkOrServer)
}

func (s *ClientSuite) TestDo_AttachesCredential() {
	raw := testutil.AdminCredential(s.T(), 5, false, "view_results")
	_, err := s.sessions.Save(s.ctx, id.KindAdministrator, raw)
	s.Require().NoError(err)

	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.Equal("Bearer "+raw, r.Header.Get("Authorization"))
		writeEnvelope(w, http.StatusOK, true, map[string]int{"count": 3}, "")
	}
	var out struct {
		Count int `json:"count"`
	}
	s.Require().NoError(s.client.Do(s.ctx, id.KindAdministrator, http.MethodGet, "/api/admin/results", nil, &out))
	s.Equal(3, out.Count)
}

func (s *ClientSuite) TestDo_WithoutSessionFailsLocally() {
	var calls atomic.Int32
	s.handler = func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}
	err := s.client.Do(s.ctx, id.KindVoter, http.MethodGet, "/api/voter/ballot", nil, nil)
	s.requireCode(err, dErrors.CodeUnauthenticated)
	s.Zero(calls.Load())
}

func (s *ClientSuite) TestUnauthenticatedClearsOnlyThatKind() {
	_, err := s.sessions.Save(s.ctx, id.KindAdministrator, testutil.AdminCredential(s.T(), 5, false))
	s.Require().NoError(err)
	_, err = s.sessions.Save(s.ctx, id.KindVoter, testutil.VoterCredential(s.T(), "V-1"))
	s.Require().NoError(err)

	s.handler = func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, false, nil, "Token expired")
	}

	err = s.client.Do(s.ctx, id.KindVoter, http.MethodGet, "/api/voter/ballot", nil, nil)
	s.requireCode(err, dErrors.CodeUnauthenticated)

	s.Nil(s.sessions.Current(id.KindVoter), "voter session cleared before the error is returned")
	s.NotNil(s.sessions.Current(id.KindAdministrator))
	s.Equal(1.0, promtest.ToFloat64(s.metrics.CredentialsCleared.WithLabelValues("voter", session.ReasonUnauthenticated)))
	s.Positive(promtest.CollectAndCount(s.metrics.BackendCallDuration))
}

func (s *ClientSuite) TestUnauthenticatedAfterReloginKeepsNewSession() {
	_, err := s.sessions.Save(s.ctx, id.KindAdministrator, testutil.AdminCredential(s.T(), 5, false))
	s.Require().NoError(err)
	relogin := testutil.AdminCredential(s.T(), 6, true)

	s.handler = func(w http.ResponseWriter, _ *http.Request) {
		// The operator signs in again while the call for the old credential is in flight.
		_, err := s.sessions.Save(context.Background(), id.KindAdministrator, relogin)
		s.NoError(err)
		writeEnvelope(w, http.StatusUnauthorized, false, nil, "Token expired")
	}

	err = s.client.Do(s.ctx, id.KindAdministrator, http.MethodGet, "/api/admin/results", nil, nil)
	s.requireCode(err, dErrors.CodeUnauthenticated)

	p := s.sessions.Current(id.KindAdministrator)
	s.Require().NotNil(p, "newer login survives the late rejection")
	s.Equal("6", p.SubjectID)
	raw, ok := s.sessions.Credential(id.KindAdministrator)
	s.True(ok)
	s.Equal(relogin, raw)
	s.Zero(promtest.ToFloat64(s.metrics.CredentialsCleared.WithLabelValues("administrator", session.ReasonUnauthenticated)))
}

func (s *ClientSuite) TestDo_Classification() {
	_, err := s.sessions.Save(s.ctx, id.KindAdministrator, testutil.AdminCredential(s.T(), 5, false))
	s.Require().NoError(err)

	cases := []struct {
		status int
		code   dErrors.Code
	}{
		{http.StatusForbidden, dErrors.CodeForbidden},
		{http.StatusBadRequest, dErrors.CodeBadRequest},
		{http.StatusServiceUnavailable, dErrors.CodeNetworkOrServer},
		{http.StatusInternalServerError, dErrors.CodeNetworkOrServer},
	}
	for _, tc := range cases {
		s.handler = func(w http.ResponseWriter, _ *http.Request) {
			writeEnvelope(w, tc.status, false, nil, "")
		}
		err := s.client.Do(s.ctx, id.KindAdministrator, http.MethodGet, "/api/admin/x", nil, nil)
		s.requireCode(err, tc.code)
		s.NotNil(s.sessions.Current(id.KindAdministrator), "status %d must not clear", tc.status)
	}
}

func (s *ClientSuite) TestForward() {
	raw := testutil.AdminCredential(s.T(), 5, true)
	_, err := s.sessions.Save(s.ctx, id.KindAdministrator, raw)
	s.Require().NoError(err)

	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/api/admin/elections", r.URL.Path)
		s.Equal("active=true", r.URL.RawQuery)
		body, _ := io.ReadAll(r.Body)
		s.Equal(`{"name":"x"}`, string(body))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"success":false,"error":"exists"}`)
	}

	res, err := s.client.Forward(s.ctx, id.KindAdministrator, http.MethodPost,
		"/api/admin/elections?active=true", "application/json", strings.NewReader(`{"name":"x"}`))
	s.Require().NoError(err)
	s.Equal(http.StatusConflict, res.Status)
	s.Contains(string(res.Body), "exists")
}

func TestKindForPath(t *testing.T) {
	cases := map[string]struct {
		kind id.PrincipalKind
		ok   bool
	}{
		"/api/admin/elections":  {id.KindAdministrator, true},
		"/api/audit/logs":       {id.KindAdministrator, true},
		"/api/voter/ballot":     {id.KindVoter, true},
		"/api/vote/cast":        {id.KindVoter, true},
		"/api/public/districts": {"", false},
	}
	for path, want := range cases {
		kind, ok := KindForPath(path)
		if ok != want.ok || kind != want.kind {
			t.Errorf("KindForPath(%q) = %q, %v; want %q, %v", path, kind, ok, want.kind, want.ok)
		}
	}
}
