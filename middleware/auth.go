package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"yatube/models"
	"yatube/utils"
)

// SessionCookie holds the signed session token.
const SessionCookie = "sessionid"

// LoginURL is where anonymous users are sent by LoginRequired.
const LoginURL = "/auth/login/"

// SessionResolver turns a session token into its user.
type SessionResolver interface {
	UserFromToken(ctx context.Context, token string) (*models.User, error)
}

// Authenticate loads the current user from the session cookie. Requests
// without a valid session continue anonymously.
func Authenticate(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err == nil && token != "" {
			user, err := sessions.UserFromToken(c.Request.Context(), token)
			if err == nil {
				c.Set(utils.ContextUserKey, user)
				c.Set("user_id", user.ID)
			} else {
				ClearSession(c)
			}
		}
		c.Next()
	}
}

// CurrentUser returns the logged-in user, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(utils.ContextUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// LoginRequired redirects anonymous requests to the login page, remembering
// where they were going.
func LoginRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, LoginURL+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// SetSession stores token in the session cookie for maxAge seconds.
func SetSession(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, maxAge, "/", "", c.Request.TLS != nil, true)
}

func ClearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", c.Request.TLS != nil, true)
}
