package domain

import (
	"slices"
	"time"

	id "evoting/pkg/domain"
	pstrings "evoting/pkg/platform/strings"
)

// Principal is the decoded identity of a logged-in actor. It is built by the
// credential codec and never mutated afterwards; a new login yields a new value.
type Principal struct {
	Kind        id.PrincipalKind
	SubjectID   string
	DisplayName string
	Email       string
	IsSuper     bool
	Permissions PermissionSet
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the credential behind p has passed its expiry at now.
// A principal without an expiry claim never expires locally.
func (p *Principal) Expired(now time.Time) bool {
	if p == nil {
		return true
	}
	if p.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(p.ExpiresAt)
}

// RoleLabel mirrors the label the console shows next to the operator's name.
func (p *Principal) RoleLabel() string {
	switch {
	case p == nil:
		return ""
	case p.Kind == id.KindVoter:
		return "VOTER"
	case p.IsSuper:
		return "SUPER_ADMIN"
	default:
		return "STAFF"
	}
}

// PermissionSet is an ordered, duplicate-free set of permission tokens.
// Order carries no meaning; it is kept only so rendering is stable.
type PermissionSet struct {
	tokens []string
}

// NewPermissionSet trims, drops empties, and de-duplicates tokens.
func NewPermissionSet(tokens ...string) PermissionSet {
	return PermissionSet{tokens: pstrings.DedupeAndTrim(slices.Clone(tokens))}
}

// Tokens returns a copy of the tokens.
func (s PermissionSet) Tokens() []string {
	return slices.Clone(s.tokens)
}

func (s PermissionSet) Len() int {
	return len(s.tokens)
}

// Any reports whether match holds for at least one token.
func (s PermissionSet) Any(match func(token string) bool) bool {
	return slices.ContainsFunc(s.tokens, match)
}
