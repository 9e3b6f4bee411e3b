package controllers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"yatube/services"
	"yatube/utils"
)

// postID reads the :id path parameter. Anything that is not a positive
// integer answers 404.
func postID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.SendNotFound(c)
		return 0, false
	}
	return uint(id), true
}

// sendError renders the page matching a service error.
func sendError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrNotFound) {
		utils.SendNotFound(c)
		return
	}
	utils.SendServerError(c, err)
}
