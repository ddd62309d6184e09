package guard

import (
	"context"
	"net/http"
	"testing"
	"time"

	"evoting/internal/credential"
	"evoting/internal/session"
	"evoting/internal/storage"
	id "evoting/pkg/domain"
	"evoting/pkg/requestcontext"
	"evoting/pkg/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *session.Store {
	t.Helper()
	return session.NewStore(storage.NewInMemorySlotStore(), credential.NewCodec())
}

func route(t *testing.T, g *Guard, path string) Route {
	t.Helper()
	r, ok := g.Lookup(path)
	require.True(t, ok, "route %s not registered", path)
	return r
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	g := New(store)

	testutil.Given(t, "no sessions", func(t *testing.T) {
		testutil.Then(t, "admin routes redirect to the admin login", func(t *testing.T) {
			assert.Equal(t, Decision{Redirect: AdminLoginPath}, g.Authorize(ctx, route(t, g, "/voters")))
		})
		testutil.Then(t, "voter routes redirect to the voter login", func(t *testing.T) {
			assert.Equal(t, Decision{Redirect: VoterLoginPath}, g.Authorize(ctx, route(t, g, "/portal")))
		})
	})

	testutil.Given(t, "only a voter session", func(t *testing.T) {
		_, err := store.Save(ctx, id.KindVoter, testutil.VoterCredential(t, "V-1"))
		require.NoError(t, err)

		assert.True(t, g.Authorize(ctx, route(t, g, "/portal")).Allow)
		assert.Equal(t, AdminLoginPath, g.Authorize(ctx, route(t, g, "/")).Redirect, "kinds are independent")
	})

	testutil.Given(t, "an expired admin session", func(t *testing.T) {
		raw := testutil.MintCredential(t, map[string]any{
			"user_id": 2,
			"exp":     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).Unix(),
		})
		_, err := store.Save(ctx, id.KindAdministrator, raw)
		require.NoError(t, err)

		before := requestcontext.WithTime(ctx, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
		after := requestcontext.WithTime(ctx, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
		assert.True(t, g.Authorize(before, route(t, g, "/")).Allow)
		assert.Equal(t, AdminLoginPath, g.Authorize(after, route(t, g, "/")).Redirect)
	})
}

func TestMenu(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	g := New(store)

	assert.Empty(t, g.Menu(ctx, id.KindAdministrator), "signed out sees nothing")

	_, err := store.Save(ctx, id.KindAdministrator, testutil.AdminCredential(t, 7, false, "register_voter"))
	require.NoError(t, err)

	var paths []string
	for _, r := range g.Menu(ctx, id.KindAdministrator) {
		paths = append(paths, r.Path)
	}
	assert.Equal(t, []string{"/", "/voters", "/settings"}, paths)

	_, err = store.Save(ctx, id.KindAdministrator, testutil.AdminCredential(t, 1, true))
	require.NoError(t, err)
	assert.Len(t, g.Menu(ctx, id.KindAdministrator), 12, "super administrator sees every admin route")

	_, err = store.Save(ctx, id.KindVoter, testutil.VoterCredential(t, "V-2"))
	require.NoError(t, err)
	menu := g.Menu(ctx, id.KindVoter)
	require.Len(t, menu, 1)
	assert.Equal(t, "/portal", menu[0].Path)
}

func TestRequire(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	g := New(store)

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	staffScreen := g.Require(route(t, g, "/staff"))(ok)

	testutil.When(t, "nobody is signed in", func(t *testing.T) {
		rr := testutil.DoRequest(staffScreen, testutil.NewRequest(t, http.MethodGet, "/staff"))
		testutil.AssertLoginRedirect(t, rr, AdminLoginPath)
	})

	testutil.When(t, "the administrator lacks the capability", func(t *testing.T) {
		_, err := store.Save(ctx, id.KindAdministrator, testutil.AdminCredential(t, 7, false, "register_voter"))
		require.NoError(t, err)
		rr := testutil.DoRequest(staffScreen, testutil.NewRequest(t, http.MethodGet, "/staff"))
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})

	testutil.When(t, "the administrator holds the capability", func(t *testing.T) {
		_, err := store.Save(ctx, id.KindAdministrator, testutil.AdminCredential(t, 7, false, "manage_admins"))
		require.NoError(t, err)
		rr := testutil.DoRequest(staffScreen, testutil.NewRequest(t, http.MethodGet, "/staff"))
		testutil.AssertStatus(t, rr, http.StatusNoContent)
	})
}

func TestRequire_ExpiredSessionRedirects(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	g := New(store)

	raw := testutil.MintCredential(t, map[string]any{
		"user_id":  4,
		"is_super": true,
		"exp":      time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC).Unix(),
	})
	_, err := store.Save(ctx, id.KindAdministrator, raw)
	require.NoError(t, err)

	h := g.Require(route(t, g, "/audit"))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := testutil.WithRequestTime(testutil.NewRequest(t, http.MethodGet, "/audit"), time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC))
	testutil.AssertStatusOK(t, testutil.DoRequest(h, req))

	req = testutil.WithRequestTime(testutil.NewRequest(t, http.MethodGet, "/audit"), time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	rr := testutil.DoRequest(h, req)
	testutil.AssertLoginRedirect(t, rr, AdminLoginPath)
}

func TestLoginPath(t *testing.T) {
	assert.Equal(t, "/login", LoginPath(id.KindAdministrator))
	assert.Equal(t, "/voter/login", LoginPath(id.KindVoter))
}
