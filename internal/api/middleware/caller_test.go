package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/growthdesk/storefront/internal/core/domain"
)

type stubResolver struct {
	users map[string]*domain.User
	err   error
}

func (s stubResolver) GetByIdentity(_ context.Context, ref string) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.users[ref], nil
}

func newCtx(identityRef string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if identityRef != "" {
		c.Set(IdentityRefKey, identityRef)
	}
	return c, rec
}

func TestResolveCaller_KnownUser(t *testing.T) {
	resolver := stubResolver{users: map[string]*domain.User{
		"idp|admin": {ID: "u1", Role: domain.RoleAdmin, Status: domain.UserActive},
	}}
	c, _ := newCtx("idp|admin")

	err := ResolveCaller(resolver)(func(c echo.Context) error {
		caller := CallerFrom(c)
		if caller.UserID != "u1" || !caller.IsAdmin() {
			t.Fatalf("unexpected caller: %+v", caller)
		}
		return nil
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResolveCaller_SuspendedAdminIsNotAdmin(t *testing.T) {
	resolver := stubResolver{users: map[string]*domain.User{
		"idp|admin": {ID: "u1", Role: domain.RoleAdmin, Status: domain.UserSuspended},
	}}
	c, rec := newCtx("idp|admin")

	err := ResolveCaller(resolver)(RequireAdmin()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}))(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected %d, got %d", http.StatusForbidden, rec.Code)
	}
	if got := CallerFrom(c).Status; got != domain.UserSuspended {
		t.Fatalf("expected suspended status on caller, got %q", got)
	}
}

func TestResolveCaller_UnsyncedIdentity(t *testing.T) {
	c, _ := newCtx("idp|new")

	err := ResolveCaller(stubResolver{})(func(c echo.Context) error {
		caller := CallerFrom(c)
		if !caller.IsAuthenticated() || caller.UserID != "" {
			t.Fatalf("unexpected caller: %+v", caller)
		}
		return nil
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResolveCaller_NoIdentity(t *testing.T) {
	c, _ := newCtx("")

	err := ResolveCaller(stubResolver{})(func(c echo.Context) error {
		if CallerFrom(c).IsAuthenticated() {
			t.Fatalf("expected anonymous caller")
		}
		return nil
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResolveCaller_LookupError(t *testing.T) {
	c, _ := newCtx("idp|x")
	boom := errors.New("db down")

	err := ResolveCaller(stubResolver{err: boom})(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})(c)
	if !errors.Is(err, boom) {
		t.Fatalf("expected lookup error, got %v", err)
	}
}

func TestRequireAdmin(t *testing.T) {
	cases := []struct {
		name   string
		caller domain.Caller
		want   int
	}{
		{"admin", domain.Caller{IdentityRef: "a", UserID: "1", Role: domain.RoleAdmin, Status: domain.UserActive}, http.StatusOK},
		{"suspended admin", domain.Caller{IdentityRef: "c", UserID: "3", Role: domain.RoleAdmin, Status: domain.UserSuspended}, http.StatusForbidden},
		{"user", domain.Caller{IdentityRef: "b", UserID: "2", Role: domain.RoleUser}, http.StatusForbidden},
		{"anonymous", domain.Anonymous, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newCtx("")
			c.Set(CallerKey, tc.caller)

			err := RequireAdmin()(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})(c)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}
