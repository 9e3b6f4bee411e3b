package controllers

import (
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"

	"yatube/forms"
	"yatube/middleware"
	"yatube/services"
	"yatube/utils"
)

type CommentController struct {
	blog   *services.BlogService
	logger *slog.Logger
}

func NewCommentController(blog *services.BlogService, logger *slog.Logger) *CommentController {
	return &CommentController{
		blog:   blog,
		logger: logger,
	}
}

// AddComment stores a comment and always returns to the post. Invalid
// comments are dropped without feedback.
func (cc *CommentController) AddComment(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}

	var form forms.CommentForm
	if err := c.ShouldBind(&form); err != nil {
		cc.logger.Debug("could not read comment form", "error", err)
	}

	_, err := cc.blog.AddComment(c.Request.Context(), middleware.CurrentUser(c), id, &form)
	if err != nil {
		if _, ok := forms.AsValidationError(err); !ok {
			sendError(c, err)
			return
		}
		cc.logger.Debug("comment rejected", "post_id", id, "error", err)
	}

	utils.SendRedirect(c, fmt.Sprintf("/posts/%d/", id))
}
