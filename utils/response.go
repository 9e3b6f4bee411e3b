package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ContextUserKey is where the session middleware stores the current
// *models.User.
const ContextUserKey = "user"

// View merges the request-wide template values (current user, path) into
// a handler's template data.
func View(c *gin.Context, data gin.H) gin.H {
	view := gin.H{
		"request_path": c.Request.URL.Path,
	}
	if user, ok := c.Get(ContextUserKey); ok {
		view["user"] = user
	}
	for k, v := range data {
		view[k] = v
	}
	return view
}

func SendNotFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "not_found", View(c, gin.H{
		"path": c.Request.URL.Path,
	}))
}

func SendServerError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.HTML(http.StatusInternalServerError, "server_error", View(c, nil))
}

// SendRedirect answers with 302 Found, the status every post/redirect/get
// flow in the site uses.
func SendRedirect(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
}
