package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vetapi/clinic-api/internal/api/middleware"
)

// currentPrincipal returns the principal attached by middleware.Authenticate.
// Routes behind RequireAuth always have one; the check here keeps handlers
// safe when mounted without it.
func currentPrincipal(c echo.Context) (*middleware.Principal, error) {
	p := middleware.PrincipalFrom(c)
	if p == nil || p.Account == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return p, nil
}

// bindAndValidate decodes the JSON body into req and runs struct validation.
// Both failures are reported as 400.
func bindAndValidate(c echo.Context, req any) error {
	if err := bind(c, req); err != nil {
		return err
	}
	return validate(c, req)
}

func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return nil
}

func validate(c echo.Context, req any) error {
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
