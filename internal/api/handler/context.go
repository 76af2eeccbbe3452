package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/referralhq/referral-api/internal/api/middleware"
)

// ctxActor extracts the caller identity injected by the Auth middleware. An
// empty actor id means the middleware did not run for this route, which is a
// wiring error on a protected endpoint — fail closed with 401.
func ctxActor(c echo.Context) (string, error) {
	actorID, _ := c.Get(middleware.ActorIDKey).(string)
	if actorID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return actorID, nil
}
