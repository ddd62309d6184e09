package httptransport

import (
	"strings"
	"time"

	"evoting/internal/domain"
	"evoting/internal/guard"
	"evoting/internal/session"
	"evoting/internal/voterauth"
	dErrors "evoting/pkg/domain-errors"
)

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *adminLoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "email and password are required")
	}
	return nil
}

type voterVerifyRequest struct {
	Code string `json:"code"`
}

// PrincipalResponse is the presentation view of a signed-in principal.
type PrincipalResponse struct {
	Kind        string     `json:"kind"`
	SubjectID   string     `json:"subject_id"`
	DisplayName string     `json:"display_name,omitempty"`
	Email       string     `json:"email,omitempty"`
	Role        string     `json:"role"`
	IsSuper     bool       `json:"is_super"`
	Permissions []string   `json:"permissions"`
	IssuedAt    *time.Time `json:"issued_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func toPrincipalResponse(p *domain.Principal) *PrincipalResponse {
	if p == nil {
		return nil
	}
	res := &PrincipalResponse{
		Kind:        p.Kind.String(),
		SubjectID:   p.SubjectID,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		Role:        p.RoleLabel(),
		IsSuper:     p.IsSuper,
		Permissions: p.Permissions.Tokens(),
	}
	if res.Permissions == nil {
		res.Permissions = []string{}
	}
	if !p.IssuedAt.IsZero() {
		t := p.IssuedAt
		res.IssuedAt = &t
	}
	if !p.ExpiresAt.IsZero() {
		t := p.ExpiresAt
		res.ExpiresAt = &t
	}
	return res
}

// SessionStatusResponse reports one kind's session.
type SessionStatusResponse struct {
	Kind          string             `json:"kind"`
	Authenticated bool               `json:"authenticated"`
	Expired       bool               `json:"expired"`
	Principal     *PrincipalResponse `json:"principal,omitempty"`
}

func toSessionStatus(st session.Status) SessionStatusResponse {
	return SessionStatusResponse{
		Kind:          st.Kind.String(),
		Authenticated: st.Principal != nil && !st.Expired,
		Expired:       st.Expired,
		Principal:     toPrincipalResponse(st.Principal),
	}
}

// VoterStateResponse is the voter login attempt as the portal renders it.
type VoterStateResponse struct {
	Phase              string             `json:"phase"`
	VoterID            string             `json:"voter_id,omitempty"`
	ChallengeReference string             `json:"challenge_reference,omitempty"`
	ContactHint        string             `json:"contact_hint,omitempty"`
	Message            string             `json:"message,omitempty"`
	LastError          string             `json:"last_error,omitempty"`
	Principal          *PrincipalResponse `json:"principal,omitempty"`
}

func toVoterState(st voterauth.State) VoterStateResponse {
	return VoterStateResponse{
		Phase:              string(st.Phase),
		VoterID:            st.VoterID,
		ChallengeReference: st.ChallengeReference,
		ContactHint:        st.ContactHint,
		Message:            st.Message,
		LastError:          st.LastError,
		Principal:          toPrincipalResponse(st.Principal),
	}
}

type menuResponse struct {
	Items []guard.Route `json:"items"`
}

type canResponse struct {
	Kind       string `json:"kind"`
	Capability string   `json:"capability,omitempty"`
	Allowed    bool     `json:"allowed"`
	Granted    []string `json:"granted,omitempty"`
}

type viewResponse struct {
	Route     guard.Route        `json:"route"`
	Principal *PrincipalResponse `json:"principal"`
}
