// Package adminauth signs administrators in and out of the console.
package adminauth

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"

	"evoting/internal/domain"
	"evoting/internal/session"
	id "evoting/pkg/domain"
	dErrors "evoting/pkg/domain-errors"
	"evoting/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks API,Sessions

// API exchanges administrator credentials with the backend.
type API interface {
	AdminLogin(ctx context.Context, email, password string) (string, error)
}

// Sessions is the part of the session store the service writes to.
type Sessions interface {
	Save(ctx context.Context, kind id.PrincipalKind, raw string) (*domain.Principal, error)
	Clear(ctx context.Context, kind id.PrincipalKind, reason string) error
}

type Service struct {
	api      API
	sessions Sessions
	logger   *slog.Logger
}

func NewService(api API, sessions Sessions, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: api, sessions: sessions, logger: logger}
}

// Login validates the form locally, exchanges it for a credential and stores it
// as the administrator session. A rejected login leaves any existing session
// untouched.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Principal, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "email is invalid")
	}
	if password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "password is required")
	}

	token, err := s.api.AdminLogin(ctx, email, password)
	if err != nil {
		s.logger.InfoContext(ctx, "administrator login rejected",
			"code", dErrors.CodeOf(err),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, err
	}

	p, err := s.sessions.Save(ctx, id.KindAdministrator, token)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Logout clears the session of kind.
func (s *Service) Logout(ctx context.Context, kind id.PrincipalKind) error {
	if !kind.IsValid() {
		return dErrors.New(dErrors.CodeBadRequest, "unknown principal kind")
	}
	return s.sessions.Clear(ctx, kind, session.ReasonLogout)
}
