package domain

import (
	"fmt"
	"strings"
)

// PrincipalKind distinguishes the two independent audiences of the platform.
// Credentials, sessions, and routes are always scoped to exactly one kind.
type PrincipalKind string

const (
	KindAdministrator PrincipalKind = "administrator"
	KindVoter         PrincipalKind = "voter"
)

// AllKinds lists every principal kind in a stable order.
var AllKinds = []PrincipalKind{KindAdministrator, KindVoter}

// ParsePrincipalKind validates and returns a PrincipalKind. Accepts the short
// forms "admin" and "voter" used on the command line.
func ParsePrincipalKind(s string) (PrincipalKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "administrator", "admin":
		return KindAdministrator, nil
	case "voter":
		return KindVoter, nil
	default:
		return "", fmt.Errorf("unknown principal kind: %q", s)
	}
}

func (k PrincipalKind) String() string {
	return string(k)
}

// IsValid reports whether k is one of the known kinds.
func (k PrincipalKind) IsValid() bool {
	return k == KindAdministrator || k == KindVoter
}
