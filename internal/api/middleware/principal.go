package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/vetapi/clinic-api/internal/core/domain"
)

const (
	principalKey = "principal"
	roleKey      = "role"
)

type principalCtxKey struct{}

// Principal is the authenticated identity attached to a request.
type Principal struct {
	AccountID string
	Email     string
	Role      string
	Authority string
	Account   *domain.Account
}

func newPrincipal(a *domain.Account) *Principal {
	return &Principal{
		AccountID: a.ID,
		Email:     a.Email,
		Role:      a.Role,
		Authority: a.Authority(),
		Account:   a,
	}
}

// SetPrincipal attaches p to both the echo context and the request context.
func SetPrincipal(c echo.Context, p *Principal) {
	c.Set(principalKey, p)
	c.Set(roleKey, p.Role)
	req := c.Request()
	c.SetRequest(req.WithContext(context.WithValue(req.Context(), principalCtxKey{}, p)))
}

// PrincipalFrom returns the request principal, or nil for anonymous requests.
func PrincipalFrom(c echo.Context) *Principal {
	p, _ := c.Get(principalKey).(*Principal)
	return p
}

// PrincipalFromContext is PrincipalFrom for code that only sees a context.Context.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalCtxKey{}).(*Principal)
	return p
}
