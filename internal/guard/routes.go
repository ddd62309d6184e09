package guard

import (
	"evoting/internal/capability"
	id "evoting/pkg/domain"
)

// Login entry points, one per principal kind.
const (
	AdminLoginPath = "/login"
	VoterLoginPath = "/voter/login"
)

// Route is a protected console screen. Capability is empty when any signed-in
// principal of Kind may open it.
type Route struct {
	Path       string           `json:"path"`
	Title      string           `json:"title"`
	Kind       id.PrincipalKind `json:"-"`
	Capability string           `json:"capability,omitempty"`
}

// LoginPath returns the login entry point for kind.
func LoginPath(kind id.PrincipalKind) string {
	if kind == id.KindVoter {
		return VoterLoginPath
	}
	return AdminLoginPath
}

// DefaultRoutes is the console navigation in display order.
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/", Title: "Overview", Kind: id.KindAdministrator},
		{Path: "/elections", Title: "Elections", Kind: id.KindAdministrator, Capability: capability.SuperAdminOnly},
		{Path: "/voters", Title: "Voters List", Kind: id.KindAdministrator, Capability: "register_voter"},
		{Path: "/verification", Title: "Verification", Kind: id.KindAdministrator, Capability: capability.SuperAdminOnly},
		{Path: "/candidates", Title: "Candidates", Kind: id.KindAdministrator, Capability: capability.SuperAdminOnly},
		{Path: "/results", Title: "Live Results", Kind: id.KindAdministrator, Capability: "view_results"},
		{Path: "/roles", Title: "Manage Roles", Kind: id.KindAdministrator, Capability: "manage_roles"},
		{Path: "/staff", Title: "Manage Staff", Kind: id.KindAdministrator, Capability: "manage_admins"},
		{Path: "/assign-roles", Title: "Assign Roles", Kind: id.KindAdministrator, Capability: "manage_admins"},
		{Path: "/admins", Title: "System Admins", Kind: id.KindAdministrator, Capability: capability.SuperAdminOnly},
		{Path: "/audit", Title: "Audit Logs", Kind: id.KindAdministrator, Capability: capability.SuperAdminOnly},
		{Path: "/settings", Title: "Settings", Kind: id.KindAdministrator},
		{Path: "/portal", Title: "Voter Portal", Kind: id.KindVoter},
	}
}
