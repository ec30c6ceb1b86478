package auth

import (
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	apperrors "contactvault/internal/errors"
)

const claimsContextKey = "user"

// Middleware returns the echo-jwt request gate. Every failure mode (missing
// header, bad signature, wrong issuer or audience, expired) is rejected with
// 401 before any handler runs.
func Middleware(jwtService *JWTService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: claimsContextKey,
		ParseTokenFunc: func(c echo.Context, tokenString string) (interface{}, error) {
			return jwtService.ValidateToken(tokenString)
		},
		// One uniform 401 for every failure mode, including a missing
		// header (echo-jwt's default answers 400 for that).
		ErrorHandler: func(c echo.Context, err error) error {
			return unauthorized()
		},
	})
}

// IdentityFromContext extracts the caller's user id from the verified claims
// stored by the middleware. This is the single source of tenant identity;
// request bodies and query parameters are never consulted.
func IdentityFromContext(c echo.Context) (string, error) {
	claims, ok := c.Get(claimsContextKey).(*Claims)
	if !ok || claims.Subject == "" {
		return "", unauthorized()
	}
	return claims.Subject, nil
}

// unauthorized renders the domain sentinel through the shared error mapping,
// so the gate and the handlers answer token failures identically.
func unauthorized() *echo.HTTPError {
	httpErr := apperrors.MapErrorToHTTP(apperrors.ErrUnauthorized)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}
