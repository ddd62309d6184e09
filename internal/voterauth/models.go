package voterauth

import (
	"strings"

	"evoting/internal/apiclient"
	"evoting/internal/domain"
	dErrors "evoting/pkg/domain-errors"
)

// Phase is the position of a voter login attempt.
type Phase string

const (
	PhaseCollectingIdentity Phase = "COLLECTING_IDENTITY"
	PhaseAwaitingCode       Phase = "AWAITING_CODE"
	PhaseFailed             Phase = "FAILED"
	PhaseComplete           Phase = "COMPLETE"
)

// IdentityClaims are the location and identity facts a voter asserts in phase one.
type IdentityClaims struct {
	VoterID       string `json:"voter_id"`
	NationalID    string `json:"national_id"`
	District      string `json:"district"`
	LocalBodyType string `json:"local_body_type"`
	LocalBodyName string `json:"local_body_name"`
	Ward          string `json:"ward"`
}

// Normalize trims surrounding whitespace from every field.
func (c IdentityClaims) Normalize() IdentityClaims {
	return IdentityClaims{
		VoterID:       strings.TrimSpace(c.VoterID),
		NationalID:    strings.TrimSpace(c.NationalID),
		District:      strings.TrimSpace(c.District),
		LocalBodyType: strings.TrimSpace(c.LocalBodyType),
		LocalBodyName: strings.TrimSpace(c.LocalBodyName),
		Ward:          strings.TrimSpace(c.Ward),
	}
}

// Validate requires every field. Call on normalized claims.
func (c IdentityClaims) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"voter_id", c.VoterID},
		{"national_id", c.NationalID},
		{"district", c.District},
		{"local_body_type", c.LocalBodyType},
		{"local_body_name", c.LocalBodyName},
		{"ward", c.Ward},
	}
	for _, f := range fields {
		if f.value == "" {
			return dErrors.New(dErrors.CodeValidation, f.name+" is required")
		}
	}
	return nil
}

func (c IdentityClaims) toRequest() apiclient.InitiateRequest {
	return apiclient.InitiateRequest{
		VoterID:       c.VoterID,
		NationalID:    c.NationalID,
		District:      c.District,
		LocalBodyType: c.LocalBodyType,
		LocalBodyName: c.LocalBodyName,
		Ward:          c.Ward,
	}
}

func verifyRequest(s State, code string) apiclient.VerifyRequest {
	return apiclient.VerifyRequest{
		VoterID:            s.VoterID,
		Code:               code,
		ChallengeReference: s.ChallengeReference,
	}
}

// State is a snapshot of a login attempt.
type State struct {
	Phase              Phase             `json:"phase"`
	VoterID            string            `json:"voter_id,omitempty"`
	ChallengeReference string            `json:"challenge_reference,omitempty"`
	ContactHint        string            `json:"contact_hint,omitempty"`
	Message            string            `json:"message,omitempty"`
	LastError          string            `json:"last_error,omitempty"`
	Principal          *domain.Principal `json:"-"`
}
