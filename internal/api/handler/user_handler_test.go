package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/growthdesk/storefront/internal/api/middleware"
	"github.com/growthdesk/storefront/internal/core/domain"
	"github.com/growthdesk/storefront/internal/core/ports"
)

func TestUserHandler_Sync_UsesTokenClaims(t *testing.T) {
	stub := &stubUserService{
		upsertFn: func(ctx context.Context, in ports.IdentityInput) (string, error) {
			if in.IdentityRef != "idp|new" || in.Email != "new@example.com" || in.Name != "New" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return "u-new", nil
		},
	}
	c, rec := newContext(http.MethodPost, "/v1/users/sync", nil, domain.Caller{IdentityRef: "idp|new"})
	c.Set(middleware.EmailKey, "new@example.com")
	c.Set(middleware.NameKey, "New")

	if err := NewUserHandler(stub).Sync(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"id":"u-new"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestUserHandler_Me_NotSynced(t *testing.T) {
	stub := &stubUserService{
		byIdentityFn: func(ctx context.Context, ref string) (*domain.User, error) {
			return nil, nil
		},
	}
	c, _ := newContext(http.MethodGet, "/v1/users/me", nil, domain.Caller{IdentityRef: "idp|new"})

	err := NewUserHandler(stub).Me(c)
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserHandler_SetStatus(t *testing.T) {
	stub := &stubUserService{
		setStatusFn: func(ctx context.Context, caller domain.Caller, id string, st domain.UserStatus) error {
			if id != "u1" || st != domain.UserSuspended {
				t.Fatalf("unexpected args %s %s", id, st)
			}
			return nil
		},
	}
	c, rec := newContext(http.MethodPatch, "/", strings.NewReader(`{"status":"suspended"}`), adminCaller)
	c.SetParamNames("id")
	c.SetParamValues("u1")

	if err := NewUserHandler(stub).SetStatus(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestUserHandler_SetStatus_RejectsUnknown(t *testing.T) {
	c, _ := newContext(http.MethodPatch, "/", strings.NewReader(`{"status":"banned"}`), adminCaller)
	c.SetParamNames("id")
	c.SetParamValues("u1")

	err := NewUserHandler(&stubUserService{}).SetStatus(c)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
