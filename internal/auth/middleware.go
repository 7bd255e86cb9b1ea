package auth

import (
	"github.com/labstack/echo/v4"

	"surveyhub/internal/errors"
	"surveyhub/internal/model"
	"surveyhub/internal/session"
)

const (
	// UserContextKey holds the resolved *model.User.
	UserContextKey = "currentUser"
	// APITokenContextKey holds the bearer token parsed by echo-jwt.
	APITokenContextKey = "apiToken"
)

// Require guards a route with policy. The caller id comes from a valid API
// token when present, otherwise from the session cookie.
func (a *Authorizer) Require(policy Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := session.FromContext(c)

			userID := ""
			if claims, ok := ClaimsFromToken(c.Get(APITokenContextKey)); ok {
				userID = claims.Subject
			} else if sess != nil {
				userID = sess.Get().ID
			}

			decision, err := a.Authorize(c.Request().Context(), policy, userID)
			if err != nil {
				return err
			}
			switch decision.Outcome {
			case Rejected:
				return decision.Err()
			case Materialized:
				if sess == nil {
					return errors.Unauthorized(errors.ReasonNoSession)
				}
				if err := sess.Merge(session.Data{ID: decision.User.ID}); err != nil {
					return err
				}
			}

			if decision.User != nil {
				c.Set(UserContextKey, decision.User)
			}
			return next(c)
		}
	}
}

// CurrentUser returns the user injected by Require, or nil.
func CurrentUser(c echo.Context) *model.User {
	user, _ := c.Get(UserContextKey).(*model.User)
	return user
}
