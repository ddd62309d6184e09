package capability

import (
	"context"
	"strings"
	"testing"

	"evoting/internal/domain"
	id "evoting/pkg/domain"

	"github.com/stretchr/testify/assert"
)

func staff(perms ...string) *domain.Principal {
	return &domain.Principal{
		Kind:        id.KindAdministrator,
		SubjectID:   "12",
		Permissions: domain.NewPermissionSet(perms...),
	}
}

func TestCanAccess_NilPrincipal(t *testing.T) {
	assert.False(t, CanAccess(nil, ""))
	assert.False(t, CanAccess(nil, "register_voter"))
}

func TestCanAccess_SuperAdministratorBypass(t *testing.T) {
	super := &domain.Principal{Kind: id.KindAdministrator, SubjectID: "1", IsSuper: true}
	for _, required := range []string{"", "manage_admins", SuperAdminOnly, "capability-nobody-defines", "\x00"} {
		assert.True(t, CanAccess(super, required), "super admin must pass %q", required)
	}
}

func TestCanAccess_RegisteringOfficer(t *testing.T) {
	p := staff("register_voter")

	assert.False(t, CanAccess(p, "manage_admins"))
	assert.True(t, CanAccess(p, "register_voter"))
	assert.True(t, CanAccess(p, ""))
	assert.False(t, CanAccess(p, SuperAdminOnly))
}

// A narrower requirement is satisfied by any token that contains it. This is the
// observed contract of the console and must not silently become exact matching.
func TestCanAccess_SubstringMatching(t *testing.T) {
	p := staff("manage_admins_all", "view_results")

	assert.True(t, CanAccess(p, "manage_admins"))
	assert.True(t, CanAccess(p, "admins"))
	assert.True(t, CanAccess(p, "view"))
	assert.True(t, CanAccess(p, "_"))
	assert.False(t, CanAccess(p, "manage_admins_all_regions"))
	assert.False(t, CanAccess(p, "VIEW_RESULTS"), "matching is case sensitive")
}

// Matching is per token; a requirement spanning two tokens is not granted.
func TestCanAccess_DoesNotSpanTokens(t *testing.T) {
	p := staff("register_voter", "view_results")
	assert.False(t, CanAccess(p, "voter,view"))
	assert.False(t, CanAccess(p, "register_voterview_results"))
}

func TestCanAccess_MatchesDefinition(t *testing.T) {
	perms := []string{"register_voter", "manage_roles", "view_results"}
	p := staff(perms...)
	for _, required := range []string{"", "r", "role", "manage", "results", "xyz", "register_voter ", "ter_vo"} {
		want := required == ""
		for _, token := range perms {
			if strings.Contains(token, required) {
				want = true
			}
		}
		assert.Equal(t, want, CanAccess(p, required), "required %q", required)
	}
}

func TestCanAccess_NoPermissions(t *testing.T) {
	p := staff()
	assert.True(t, CanAccess(p, ""))
	assert.False(t, CanAccess(p, "a"))
}

type fakeSessions map[id.PrincipalKind]*domain.Principal

func (f fakeSessions) Active(_ context.Context, kind id.PrincipalKind) *domain.Principal {
	return f[kind]
}

func TestResolver(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(fakeSessions{id.KindAdministrator: staff("register_voter", "view_results")})

	assert.True(t, r.Can(ctx, id.KindAdministrator, "register_voter"))
	assert.False(t, r.Can(ctx, id.KindAdministrator, "manage_roles"))
	assert.False(t, r.Can(ctx, id.KindVoter, ""), "no voter session")

	got := r.Filter(ctx, id.KindAdministrator, []string{"manage_roles", "view_results", "", "register_voter"})
	assert.Equal(t, []string{"view_results", "", "register_voter"}, got)
}
