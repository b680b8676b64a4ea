package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/vetapi/clinic-api/internal/api/metrics"
	"github.com/vetapi/clinic-api/internal/core/domain"
	"github.com/vetapi/clinic-api/internal/core/ports"
)

const bearerPrefix = "Bearer "

// DefaultExemptPrefixes are never inspected by Authenticate.
var DefaultExemptPrefixes = []string{"/auth/", "/debug/", "/swagger/", "/health", "/metrics"}

// AuthConfig configures Authenticate.
type AuthConfig struct {
	Codec    ports.TokenCodec
	Accounts ports.AccountRepository
	Log      zerolog.Logger

	// ExemptPrefixes defaults to DefaultExemptPrefixes when nil.
	// Pass an empty, non-nil slice to inspect every route.
	ExemptPrefixes []string
	Skipper        echomiddleware.Skipper
}

// Authenticate resolves a bearer access token into a Principal.
//
// It never rejects a request. Missing, malformed, expired or foreign tokens
// simply leave the request anonymous; RequireAuth and RBAC decide what an
// anonymous request may reach.
func Authenticate(cfg AuthConfig) echo.MiddlewareFunc {
	exempt := cfg.ExemptPrefixes
	if exempt == nil {
		exempt = DefaultExemptPrefixes
	}
	skipper := cfg.Skipper
	if skipper == nil {
		skipper = echomiddleware.DefaultSkipper
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper(c) || isExempt(c.Request().URL.Path, exempt) {
				return next(c)
			}
			if PrincipalFrom(c) != nil {
				return next(c)
			}

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, bearerPrefix) {
				metrics.RequestAuthTotal.WithLabelValues("anonymous").Inc()
				return next(c)
			}

			if p := resolve(c, cfg, strings.TrimPrefix(header, bearerPrefix)); p != nil {
				SetPrincipal(c, p)
				metrics.RequestAuthTotal.WithLabelValues("authenticated").Inc()
			}
			return next(c)
		}
	}
}

func resolve(c echo.Context, cfg AuthConfig, token string) (p *Principal) {
	log := cfg.Log.With().Str("path", c.Request().URL.Path).Logger()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("authentication aborted")
			metrics.RequestAuthTotal.WithLabelValues("error").Inc()
			p = nil
		}
	}()

	if !cfg.Codec.Validate(token) {
		log.Warn().Msg("bearer token rejected")
		metrics.RequestAuthTotal.WithLabelValues("invalid_token").Inc()
		return nil
	}

	claims, err := cfg.Codec.Claims(token)
	if err != nil {
		log.Warn().Err(err).Msg("bearer token claims unreadable")
		metrics.RequestAuthTotal.WithLabelValues("invalid_token").Inc()
		return nil
	}
	if claims.Type != domain.TokenTypeAccess {
		log.Warn().Str("typ", claims.Type).Msg("non-access token presented as bearer")
		metrics.RequestAuthTotal.WithLabelValues("invalid_token").Inc()
		return nil
	}

	account, err := cfg.Accounts.FindByEmail(c.Request().Context(), claims.Subject)
	if errors.Is(err, domain.ErrAccountNotFound) {
		log.Warn().Str("email", claims.Subject).Msg("token subject has no account")
		metrics.RequestAuthTotal.WithLabelValues("unknown_account").Inc()
		return nil
	}
	if err != nil {
		log.Error().Err(err).Msg("account lookup failed during authentication")
		metrics.RequestAuthTotal.WithLabelValues("error").Inc()
		return nil
	}

	return newPrincipal(account)
}

func isExempt(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
