package handler

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/growthdesk/storefront/internal/api/middleware"
	"github.com/growthdesk/storefront/internal/core/domain"
)

// ctxCaller returns the caller resolved by the middleware chain, failing fast
// when the route requires an identity and none is present.
func ctxCaller(c echo.Context) (domain.Caller, error) {
	caller := middleware.CallerFrom(c)
	if !caller.IsAuthenticated() {
		return domain.Anonymous, domain.ErrUnauthenticated
	}
	return caller, nil
}

// bindAndValidate decodes the request body into req and runs struct validation.
// Both failures surface as domain.ErrValidation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrValidation)
	}
	if err := c.Validate(req); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}
	return nil
}
