package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vetapi/clinic-api/internal/core/ports"
)

// DebugHandler exposes token introspection for local troubleshooting.
// Mounted only when debug routes are enabled.
type DebugHandler struct {
	codec ports.TokenCodec
}

func NewDebugHandler(codec ports.TokenCodec) *DebugHandler {
	return &DebugHandler{codec: codec}
}

// Token decodes a bearer token and reports whether it currently validates.
//
// @Summary      Inspect token
// @Tags         debug
// @Produce      json
// @Param        token  query     string  false  "Token (defaults to the Authorization header)"
// @Success      200    {object}  debugTokenResponse
// @Failure      400    {object}  debugTokenResponse
// @Router       /debug/token [get]
func (h *DebugHandler) Token(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		token = strings.TrimPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
	}
	if token == "" {
		return c.JSON(http.StatusBadRequest, debugTokenResponse{Error: "no token supplied"})
	}

	claims, err := h.codec.Claims(token)
	if err != nil {
		return c.JSON(http.StatusBadRequest, debugTokenResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, debugTokenResponse{
		Valid:  h.codec.Validate(token),
		Claims: toClaimsResponse(claims),
	})
}
