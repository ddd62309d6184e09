// Package capability answers whether a principal may perform an action.
//
// Matching is by substring: a capability is granted when any permission token of
// the principal contains it. A broader token therefore satisfies a narrower check
// ("manage_admins_all" grants "manage_admins"). Do not tighten this into exact set
// membership without a product decision; UI gating across the console relies on it.
package capability

import (
	"context"
	"strings"

	"evoting/internal/domain"
	id "evoting/pkg/domain"
)

// SuperAdminOnly is the capability the console uses for screens no permission
// token is meant to unlock; only the super-administrator bypass reaches them.
const SuperAdminOnly = "SUPER_ADMIN"

// CanAccess decides whether p may use a feature gated by required. The order is
// fixed: no principal denies; super administrators are always allowed, whatever
// required says; an empty requirement allows; otherwise some permission token
// must contain required.
func CanAccess(p *domain.Principal, required string) bool {
	if p == nil {
		return false
	}
	if p.IsSuper {
		return true
	}
	if required == "" {
		return true
	}
	return p.Permissions.Any(func(token string) bool {
		return strings.Contains(token, required)
	})
}

// SessionReader is the part of the session store the resolver needs.
type SessionReader interface {
	Active(ctx context.Context, kind id.PrincipalKind) *domain.Principal
}

// Resolver evaluates capabilities against the current session snapshot.
type Resolver struct {
	sessions SessionReader
}

func NewResolver(sessions SessionReader) *Resolver {
	return &Resolver{sessions: sessions}
}

// Can reports whether the signed-in principal of kind holds required. An absent
// or expired session is denied.
func (r *Resolver) Can(ctx context.Context, kind id.PrincipalKind, required string) bool {
	return CanAccess(r.sessions.Active(ctx, kind), required)
}

// Filter returns the requirements in required that the principal of kind holds,
// preserving order.
func (r *Resolver) Filter(ctx context.Context, kind id.PrincipalKind, required []string) []string {
	p := r.sessions.Active(ctx, kind)
	out := make([]string, 0, len(required))
	for _, req := range required {
		if CanAccess(p, req) {
			out = append(out, req)
		}
	}
	return out
}
