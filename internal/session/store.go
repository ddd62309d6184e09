// Package session is the single source of truth for who is authenticated.
//
// A Store holds at most one principal per kind, backed by one persisted
// credential slot per kind. It is an explicitly constructed object: every consumer
// (route guard, capability resolver, API client, login flows) receives the same
// *Store by injection.
//
// Writes go through Save and Clear only. Each write persists the slot, swaps the
// in-memory snapshot, and notifies subscribers before returning, so every
// consumer observes the new state within the same call.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"evoting/internal/domain"
	"evoting/internal/platform/metrics"
	"evoting/internal/storage"
	id "evoting/pkg/domain"
	dErrors "evoting/pkg/domain-errors"
	"evoting/pkg/platform/sentinel"
	"evoting/pkg/requestcontext"
)

// Slot keys, one per principal kind.
const (
	SlotAdministrator = "administrator-credential"
	SlotVoter         = "voter-credential"
)

// Reasons recorded when a slot is cleared.
const (
	ReasonLogout          = "logout"
	ReasonUnauthenticated = "unauthenticated"
	ReasonMalformed       = "malformed"
)

// SlotKey returns the storage key for kind.
func SlotKey(kind id.PrincipalKind) string {
	if kind == id.KindVoter {
		return SlotVoter
	}
	return SlotAdministrator
}

// Decoder turns a raw credential into a principal.
type Decoder interface {
	Decode(raw string, kind id.PrincipalKind) (*domain.Principal, error)
}

// Listener is notified after every publish. A nil principal means the kind is
// signed out. Listeners run synchronously on the writer's goroutine and must not
// call Save, Load, or Clear.
type Listener func(kind id.PrincipalKind, p *domain.Principal)

type entry struct {
	raw       string
	principal *domain.Principal
}

type subscription struct {
	id int
	fn Listener
}

// Store holds the current principal of each kind.
type Store struct {
	slots   storage.SlotStore
	codec   Decoder
	logger  *slog.Logger
	metrics *metrics.Metrics

	// writeMu serializes persist+publish so listeners observe writes in order.
	writeMu sync.Mutex

	mu        sync.RWMutex
	entries   map[id.PrincipalKind]entry
	listeners []subscription
	nextSubID int
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

func NewStore(slots storage.SlotStore, codec Decoder, opts ...Option) *Store {
	s := &Store{
		slots:   slots,
		codec:   codec,
		logger:  slog.Default(),
		entries: make(map[id.PrincipalKind]entry, len(id.AllKinds)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Load reads the persisted credential for kind and publishes its principal, or nil
// when the slot is empty. An undecodable credential is erased and nil is
// published; that is not an error. Only storage failures are returned.
func (s *Store) Load(ctx context.Context, kind id.PrincipalKind) (*domain.Principal, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	raw, err := s.slots.Get(ctx, SlotKey(kind))
	if errors.Is(err, sentinel.ErrNotFound) {
		s.publish(kind, entry{})
		return nil, nil
	}
	if err != nil {
		s.publish(kind, entry{})
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read credential slot")
	}

	p, err := s.codec.Decode(raw, kind)
	if err != nil {
		s.logger.WarnContext(ctx, "discarding undecodable stored credential",
			"kind", kind.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		s.erase(ctx, kind, ReasonMalformed)
		s.publish(kind, entry{})
		return nil, nil
	}

	s.publish(kind, entry{raw: raw, principal: p})
	return p, nil
}

// LoadAll loads every kind; used once at startup.
func (s *Store) LoadAll(ctx context.Context) error {
	var errs []error
	for _, kind := range id.AllKinds {
		if _, err := s.Load(ctx, kind); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Save persists raw as the credential for kind and publishes its principal. It is
// the only write path after a successful login. A credential that does not
// decode is never kept: the slot is erased, nil is published, and a
// CodeMalformedCredential error is returned.
func (s *Store) Save(ctx context.Context, kind id.PrincipalKind, raw string) (*domain.Principal, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	p, err := s.codec.Decode(raw, kind)
	if err != nil {
		s.logger.WarnContext(ctx, "refusing to store undecodable credential",
			"kind", kind.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		s.erase(ctx, kind, ReasonMalformed)
		s.publish(kind, entry{})
		return nil, err
	}

	if err := s.slots.Set(ctx, SlotKey(kind), raw); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist credential")
	}
	s.publish(kind, entry{raw: raw, principal: p})

	s.logger.InfoContext(ctx, "session established",
		"kind", kind.String(),
		"subject_id", p.SubjectID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return p, nil
}

// Clear erases the credential for kind and publishes nil. The in-memory session is
// dropped even when the slot cannot be erased, so a revoked session never keeps
// being served; the storage error is still returned.
func (s *Store) Clear(ctx context.Context, kind id.PrincipalKind, reason string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.clearLocked(ctx, kind, reason)
}

// ClearIf clears kind only while raw is still its credential, and reports whether
// it did. A rejection that arrives after a newer login leaves that login alone.
func (s *Store) ClearIf(ctx context.Context, kind id.PrincipalKind, raw, reason string) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if current, _ := s.Credential(kind); current != raw {
		s.logger.InfoContext(ctx, "credential already replaced, keeping session",
			"kind", kind.String(),
			"reason", reason,
			"request_id", requestcontext.RequestID(ctx),
		)
		return false, nil
	}
	return true, s.clearLocked(ctx, kind, reason)
}

// clearLocked erases and publishes nil. Callers hold writeMu.
func (s *Store) clearLocked(ctx context.Context, kind id.PrincipalKind, reason string) error {
	err := s.erase(ctx, kind, reason)
	s.publish(kind, entry{})
	s.logger.InfoContext(ctx, "session cleared",
		"kind", kind.String(),
		"reason", reason,
		"request_id", requestcontext.RequestID(ctx),
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to erase credential slot")
	}
	return nil
}

// Current returns the published principal for kind, or nil. Expired principals
// are returned; use Active to exclude them.
func (s *Store) Current(kind id.PrincipalKind) *domain.Principal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[kind].principal
}

// Active returns the principal for kind unless it is absent or expired at the
// request-scoped time.
func (s *Store) Active(ctx context.Context, kind id.PrincipalKind) *domain.Principal {
	p := s.Current(kind)
	if p == nil || p.Expired(requestcontext.Now(ctx)) {
		return nil
	}
	return p
}

// Status describes the session of one kind for presentation.
type Status struct {
	Kind      id.PrincipalKind
	Principal *domain.Principal
	Expired   bool
}

// Status reports whether kind is signed in and whether the credential has expired,
// so callers can prompt for a new login without treating expiry as an error.
func (s *Store) Status(ctx context.Context, kind id.PrincipalKind) Status {
	p := s.Current(kind)
	return Status{
		Kind:      kind,
		Principal: p,
		Expired:   p != nil && p.Expired(requestcontext.Now(ctx)),
	}
}

// Credential returns the raw bearer credential for kind.
func (s *Store) Credential(kind id.PrincipalKind) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.entries[kind]
	return e.raw, e.raw != ""
}

// Subscribe registers fn for every future publish and returns a function that
// removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	subID := s.nextSubID
	s.listeners = append(s.listeners, subscription{id: subID, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.listeners {
			if sub.id == subID {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// publish swaps the snapshot for kind and notifies listeners. Callers hold writeMu.
func (s *Store) publish(kind id.PrincipalKind, e entry) {
	s.mu.Lock()
	if e.principal == nil {
		delete(s.entries, kind)
	} else {
		s.entries[kind] = e
	}
	subs := make([]subscription, len(s.listeners))
	copy(subs, s.listeners)
	s.mu.Unlock()

	s.metrics.IncrementPublished(kind.String(), e.principal != nil)
	for _, sub := range subs {
		sub.fn(kind, e.principal)
	}
}

// erase deletes the slot for kind. Callers hold writeMu.
func (s *Store) erase(ctx context.Context, kind id.PrincipalKind, reason string) error {
	s.metrics.IncrementCleared(kind.String(), reason)
	if err := s.slots.Delete(ctx, SlotKey(kind)); err != nil {
		s.logger.ErrorContext(ctx, "failed to erase credential slot",
			"kind", kind.String(),
			"error", err,
		)
		return err
	}
	return nil
}
