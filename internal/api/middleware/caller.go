package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/growthdesk/storefront/internal/core/domain"
)

// CallerKey is the context key holding the resolved domain.Caller.
const CallerKey = "caller"

// IdentityResolver looks up the user record behind an identity reference.
type IdentityResolver interface {
	GetByIdentity(ctx context.Context, identityRef string) (*domain.User, error)
}

// ResolveCaller turns the identity set by Auth into a domain.Caller. Identities
// that have not been synced yet get a caller without a user id.
func ResolveCaller(users IdentityResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ref, _ := c.Get(IdentityRefKey).(string)
			if ref == "" {
				c.Set(CallerKey, domain.Anonymous)
				return next(c)
			}

			caller := domain.Caller{IdentityRef: ref}
			user, err := users.GetByIdentity(c.Request().Context(), ref)
			if err != nil {
				return err
			}
			if user != nil {
				caller.UserID = user.ID
				caller.Role = user.Role
				caller.Status = user.Status
			}

			c.Set(CallerKey, caller)
			return next(c)
		}
	}
}

// CallerFrom returns the caller stored by ResolveCaller, or domain.Anonymous.
func CallerFrom(c echo.Context) domain.Caller {
	caller, _ := c.Get(CallerKey).(domain.Caller)
	return caller
}
