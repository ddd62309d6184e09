// Package voterauth drives the two-phase voter login: identity claims first, then
// a one-time code. The only write it performs is saving the verified voter
// credential to the session store.
package voterauth

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"evoting/internal/domain"
	"evoting/internal/platform/metrics"
	id "evoting/pkg/domain"
	dErrors "evoting/pkg/domain-errors"
	"evoting/pkg/requestcontext"
)

// Machine holds one voter login attempt. Every transition bumps an epoch; a
// backend response that returns after the epoch moved on is discarded with
// CodeStaleResponse.
type Machine struct {
	api          API
	sessions     Sessions
	logger       *slog.Logger
	metrics      *metrics.Metrics
	newReference func() string

	mu    sync.Mutex
	state State
	epoch uint64
}

// Option configures a Machine.
type Option func(*Machine)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

func WithMetrics(metrics *metrics.Metrics) Option {
	return func(m *Machine) {
		m.metrics = metrics
	}
}

// WithReferenceGenerator sets how a challenge reference is minted when the
// backend does not return one.
func WithReferenceGenerator(fn func() string) Option {
	return func(m *Machine) {
		m.newReference = fn
	}
}

func New(api API, sessions Sessions, opts ...Option) *Machine {
	m := &Machine{
		api:          api,
		sessions:     sessions,
		logger:       slog.Default(),
		newReference: uuid.NewString,
		state:        State{Phase: PhaseCollectingIdentity},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// State returns a snapshot of the attempt.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Initiate submits identity claims. It is valid from any phase except COMPLETE;
// from AWAITING_CODE or FAILED it abandons the pending challenge and starts over.
// On success the machine moves to AWAITING_CODE. A rejection leaves it in
// COLLECTING_IDENTITY.
func (m *Machine) Initiate(ctx context.Context, claims IdentityClaims) (State, error) {
	claims = claims.Normalize()

	m.mu.Lock()
	if m.state.Phase == PhaseComplete {
		m.mu.Unlock()
		return m.State(), dErrors.New(dErrors.CodeInvalidState, "voter is already signed in; reset before starting a new login")
	}
	if err := claims.Validate(); err != nil {
		m.mu.Unlock()
		m.metrics.IncrementVoterAuth("initiate", string(dErrors.CodeValidation))
		return m.State(), err
	}
	m.epoch++
	epoch := m.epoch
	m.state = State{Phase: PhaseCollectingIdentity}
	m.mu.Unlock()

	res, err := m.api.InitiateVoterLogin(ctx, claims.toRequest())

	m.mu.Lock()
	defer m.mu.Unlock()
	if epoch != m.epoch {
		m.metrics.IncrementVoterAuth("initiate", string(dErrors.CodeStaleResponse))
		return m.state, dErrors.New(dErrors.CodeStaleResponse, "login attempt was superseded")
	}
	if err != nil {
		m.state.LastError = dErrors.MessageOf(err)
		m.metrics.IncrementVoterAuth("initiate", string(dErrors.CodeOf(err)))
		m.logger.InfoContext(ctx, "voter identity not accepted",
			"code", dErrors.CodeOf(err),
			"request_id", requestcontext.RequestID(ctx),
		)
		return m.state, err
	}

	ref := strings.TrimSpace(res.ChallengeReference)
	if ref == "" {
		ref = m.newReference()
	}
	m.state = State{
		Phase:              PhaseAwaitingCode,
		VoterID:            claims.VoterID,
		ChallengeReference: ref,
		ContactHint:        res.Phone,
		Message:            res.Message,
	}
	m.metrics.IncrementVoterAuth("initiate", "success")
	return m.state, nil
}

// Verify submits the one-time code against the held challenge. It is valid only
// from AWAITING_CODE or FAILED; elsewhere it fails locally without a backend
// call. A rejected code moves the machine to FAILED, where the voter may retry
// or reset. On success the voter credential is saved and the machine is COMPLETE.
func (m *Machine) Verify(ctx context.Context, code string) (State, error) {
	code = strings.TrimSpace(code)

	m.mu.Lock()
	if (m.state.Phase != PhaseAwaitingCode && m.state.Phase != PhaseFailed) || m.state.ChallengeReference == "" {
		phase := m.state.Phase
		m.mu.Unlock()
		return m.State(), dErrors.New(dErrors.CodeInvalidState, "no pending challenge in phase "+string(phase))
	}
	if code == "" {
		m.mu.Unlock()
		return m.State(), dErrors.New(dErrors.CodeValidation, "code is required")
	}
	epoch := m.epoch
	req := verifyRequest(m.state, code)
	m.mu.Unlock()

	token, err := m.api.VerifyVoterOTP(ctx, req)

	m.mu.Lock()
	if epoch != m.epoch {
		m.mu.Unlock()
		m.metrics.IncrementVoterAuth("verify", string(dErrors.CodeStaleResponse))
		return m.State(), dErrors.New(dErrors.CodeStaleResponse, "login attempt was superseded")
	}
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidChallengeResponse) {
			m.state.Phase = PhaseFailed
		}
		m.state.LastError = dErrors.MessageOf(err)
		state := m.state
		m.mu.Unlock()
		m.metrics.IncrementVoterAuth("verify", string(dErrors.CodeOf(err)))
		return state, err
	}
	// The code was accepted; any other verify still in flight is now stale.
	m.epoch++
	epoch = m.epoch
	voterID := m.state.VoterID
	m.mu.Unlock()

	// Save does slot I/O and notifies subscribers, so it runs unlocked.
	p, saveErr := m.sessions.Save(ctx, id.KindVoter, token)

	m.mu.Lock()
	defer m.mu.Unlock()
	if saveErr != nil {
		m.metrics.IncrementVoterAuth("verify", string(dErrors.CodeOf(saveErr)))
		m.logger.ErrorContext(ctx, "verified voter credential could not be stored",
			"error", saveErr,
			"request_id", requestcontext.RequestID(ctx),
		)
		if epoch == m.epoch {
			m.state.Phase = PhaseFailed
			m.state.LastError = dErrors.MessageOf(saveErr)
		}
		return m.state, saveErr
	}
	if epoch != m.epoch {
		m.metrics.IncrementVoterAuth("verify", string(dErrors.CodeStaleResponse))
		return m.state, dErrors.New(dErrors.CodeStaleResponse, "login attempt was superseded")
	}

	m.state = State{
		Phase:     PhaseComplete,
		VoterID:   voterID,
		Principal: p,
	}
	m.metrics.IncrementVoterAuth("verify", "success")
	m.logger.InfoContext(ctx, "voter signed in",
		"subject_id", p.SubjectID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return m.state, nil
}

// Reset abandons the attempt from any phase. It does not touch the session
// store; signing out is a separate operation.
func (m *Machine) Reset() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch++
	m.state = State{Phase: PhaseCollectingIdentity}
	return m.state
}

// OnSession follows the session store. When the voter session ends while the
// machine is COMPLETE, the machine returns to COLLECTING_IDENTITY so the next
// login can start without an explicit reset. Subscribe it with Store.Subscribe.
func (m *Machine) OnSession(kind id.PrincipalKind, p *domain.Principal) {
	if kind != id.KindVoter || p != nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Phase != PhaseComplete {
		return
	}
	m.epoch++
	m.state = State{Phase: PhaseCollectingIdentity}
	m.logger.Info("voter session ended, login reset")
}
