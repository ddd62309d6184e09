package voterauth

import (
	"context"

	"evoting/internal/apiclient"
	"evoting/internal/domain"
	id "evoting/pkg/domain"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks API,Sessions

// API is the backend half of the voter login. Implementations classify failures
// as CodeIdentityMismatch, CodeInvalidChallengeResponse or CodeNetworkOrServer.
type API interface {
	InitiateVoterLogin(ctx context.Context, req apiclient.InitiateRequest) (*apiclient.InitiateResponse, error)
	VerifyVoterOTP(ctx context.Context, req apiclient.VerifyRequest) (string, error)
}

// Sessions is where a verified voter credential is written.
type Sessions interface {
	Save(ctx context.Context, kind id.PrincipalKind, raw string) (*domain.Principal, error)
}
