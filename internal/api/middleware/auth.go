package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/referralhq/referral-api/internal/core/ports"
)

// ActorIDKey is the echo context key under which Auth stores the resolved
// caller's user id.
const ActorIDKey = "actor_id"

// Auth validates the bearer token and injects the caller identity into
// context. A token passes only when both hold:
//   - the JWT signature verifies against jwtSecret (HS256), and
//   - the exact presented string is the durable token bound to the user
//     named in the sub claim.
//
// The second check makes revocation possible: deleting the stored token
// invalidates an otherwise well-signed JWT.
func Auth(jwtSecret string, tokens ports.TokenRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sub, _ := claims["sub"].(string)
			if sub == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			userID, err := tokens.UserIDByKey(c.Request().Context(), parts[1])
			if err != nil || userID != sub {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(ActorIDKey, userID)

			return next(c)
		}
	}
}
