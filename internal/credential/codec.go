// Package credential decodes bearer credentials issued by the election backend
// into principals.
//
// The codec never verifies signatures and never issues credentials. Trust in the
// claims is delegated to the issuing server, which re-verifies every credential it
// receives; the console only needs the claims to decide what to render.
package credential

import (
	"encoding/json"
	"fmt"
	"strings"

	"evoting/internal/domain"
	id "evoting/pkg/domain"
	dErrors "evoting/pkg/domain-errors"

	"github.com/golang-jwt/jwt/v5"
)

// Claim names used by the backend when it signs credentials.
const (
	claimUserID      = "user_id"
	claimVoterID     = "voter_id"
	claimSubject     = "sub"
	claimName        = "name"
	claimEmail       = "email"
	claimRole        = "role"
	claimIsSuper     = "is_super"
	claimPermissions = "permissions"
)

// Role labels the backend writes into the role claim.
const (
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleVoter      = "VOTER"
)

// Codec turns raw credential strings into principals.
type Codec struct {
	parser *jwt.Parser
}

func NewCodec() *Codec {
	return &Codec{parser: jwt.NewParser(jwt.WithJSONNumber())}
}

// Decode parses raw as a credential of the given kind. It fails with
// CodeMalformedCredential when the payload is not a claim set, when a known claim
// has the wrong type, when the subject is absent, or when the claims belong to the
// other kind. Expired credentials decode normally.
func (c *Codec) Decode(raw string, kind id.PrincipalKind) (*domain.Principal, error) {
	if !kind.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown principal kind %q", kind))
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, dErrors.New(dErrors.CodeMalformedCredential, "credential is empty")
	}

	claims := jwt.MapClaims{}
	if _, _, err := c.parser.ParseUnverified(raw, claims); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeMalformedCredential, "credential payload is not a claim set")
	}

	subject, err := subjectFor(claims, kind)
	if err != nil {
		return nil, err
	}
	role, err := optionalString(claims, claimRole)
	if err != nil {
		return nil, err
	}
	if err := checkKind(kind, role); err != nil {
		return nil, err
	}
	isSuper, err := optionalBool(claims, claimIsSuper)
	if err != nil {
		return nil, err
	}
	if kind == id.KindVoter && isSuper {
		return nil, dErrors.New(dErrors.CodeMalformedCredential, "voter credential claims super administrator")
	}
	name, err := optionalString(claims, claimName)
	if err != nil {
		return nil, err
	}
	email, err := optionalString(claims, claimEmail)
	if err != nil {
		return nil, err
	}
	perms, err := permissions(claims)
	if err != nil {
		return nil, err
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeMalformedCredential, "credential has an invalid exp claim")
	}
	iat, err := claims.GetIssuedAt()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeMalformedCredential, "credential has an invalid iat claim")
	}

	p := &domain.Principal{
		Kind:        kind,
		SubjectID:   subject,
		IsSuper:     kind == id.KindAdministrator && (isSuper || role == RoleSuperAdmin),
		Permissions: perms,
	}
	if kind == id.KindAdministrator {
		p.DisplayName = name
		p.Email = email
	}
	if exp != nil {
		p.ExpiresAt = exp.Time
	}
	if iat != nil {
		p.IssuedAt = iat.Time
	}
	return p, nil
}

func subjectFor(claims jwt.MapClaims, kind id.PrincipalKind) (string, error) {
	order := []string{claimUserID, claimSubject}
	if kind == id.KindVoter {
		order = []string{claimVoterID, claimUserID, claimSubject}
	}
	for _, name := range order {
		v, ok := claims[name]
		if !ok || v == nil {
			continue
		}
		s, err := identifier(v)
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeMalformedCredential, "credential has an invalid "+name+" claim")
		}
		if s != "" {
			return s, nil
		}
	}
	return "", dErrors.New(dErrors.CodeMalformedCredential, "credential has no subject")
}

// identifier accepts both numeric and string subject claims.
func identifier(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), nil
	case json.Number:
		return t.String(), nil
	case float64:
		return fmt.Sprintf("%.0f", t), nil
	default:
		return "", fmt.Errorf("unsupported identifier type %T", v)
	}
}

func checkKind(kind id.PrincipalKind, role string) error {
	switch {
	case kind == id.KindAdministrator && role == RoleVoter:
		return dErrors.New(dErrors.CodeMalformedCredential, "voter credential presented as administrator credential")
	case kind == id.KindVoter && role != "" && role != RoleVoter:
		return dErrors.New(dErrors.CodeMalformedCredential, "administrator credential presented as voter credential")
	}
	return nil
}

func optionalString(claims jwt.MapClaims, name string) (string, error) {
	v, ok := claims[name]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", dErrors.New(dErrors.CodeMalformedCredential, "credential has an invalid "+name+" claim")
	}
	return strings.TrimSpace(s), nil
}

func optionalBool(claims jwt.MapClaims, name string) (bool, error) {
	v, ok := claims[name]
	if !ok || v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, dErrors.New(dErrors.CodeMalformedCredential, "credential has an invalid "+name+" claim")
	}
	return b, nil
}

// permissions accepts a JSON array of strings or the comma-joined form the
// backend stores roles in.
func permissions(claims jwt.MapClaims) (domain.PermissionSet, error) {
	v, ok := claims[claimPermissions]
	if !ok || v == nil {
		return domain.NewPermissionSet(), nil
	}
	switch t := v.(type) {
	case string:
		return domain.NewPermissionSet(strings.Split(t, ",")...), nil
	case []any:
		tokens := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return domain.PermissionSet{}, dErrors.New(dErrors.CodeMalformedCredential, "credential permissions must be strings")
			}
			tokens = append(tokens, s)
		}
		return domain.NewPermissionSet(tokens...), nil
	default:
		return domain.PermissionSet{}, dErrors.New(dErrors.CodeMalformedCredential, "credential has an invalid permissions claim")
	}
}

// IsMalformed reports whether err is a decode failure.
func IsMalformed(err error) bool {
	return dErrors.HasCode(err, dErrors.CodeMalformedCredential)
}
