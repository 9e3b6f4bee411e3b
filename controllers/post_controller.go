package controllers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"yatube/forms"
	"yatube/middleware"
	"yatube/models"
	"yatube/services"
	"yatube/utils"
)

type PostController struct {
	blog   *services.BlogService
	logger *slog.Logger
}

func NewPostController(blog *services.BlogService, logger *slog.Logger) *PostController {
	return &PostController{
		blog:   blog,
		logger: logger,
	}
}

func (pc *PostController) Index(c *gin.Context) {
	listing, err := pc.blog.Index(c.Request.Context(), c.Query("page"))
	if err != nil {
		sendError(c, err)
		return
	}

	c.HTML(http.StatusOK, "index", utils.View(c, gin.H{
		"page":  listing.Page,
		"posts": listing.Posts,
	}))
}

func (pc *PostController) GroupPosts(c *gin.Context) {
	listing, err := pc.blog.GroupPosts(c.Request.Context(), c.Param("slug"), c.Query("page"))
	if err != nil {
		sendError(c, err)
		return
	}

	c.HTML(http.StatusOK, "group_list", utils.View(c, gin.H{
		"title": listing.Group.Title,
		"group": listing.Group,
		"page":  listing.Page,
		"posts": listing.Posts,
	}))
}

func (pc *PostController) Profile(c *gin.Context) {
	profile, err := pc.blog.Profile(c.Request.Context(), c.Param("username"), c.Query("page"))
	if err != nil {
		sendError(c, err)
		return
	}

	c.HTML(http.StatusOK, "profile", utils.View(c, gin.H{
		"title":      "Profile of " + profile.Author.FullName(),
		"author":     profile.Author,
		"post_count": profile.PostCount,
		"page":       profile.Page,
		"posts":      profile.Posts,
	}))
}

func (pc *PostController) PostDetail(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}

	detail, err := pc.blog.PostDetail(c.Request.Context(), id)
	if err != nil {
		sendError(c, err)
		return
	}

	c.HTML(http.StatusOK, "post_detail", utils.View(c, gin.H{
		"title":             detail.Title,
		"post":              detail.Post,
		"author_post_count": detail.AuthorPostCount,
		"comments":          detail.Comments,
		"form":              detail.Form,
	}))
}

// PostCreate shows the empty post form on GET and stores the post on POST.
func (pc *PostController) PostCreate(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var form forms.PostForm

	if c.Request.Method == http.MethodGet {
		pc.renderForm(c, http.StatusOK, &form, nil, nil)
		return
	}

	if err := bindPostForm(c, &form); err != nil {
		pc.renderForm(c, http.StatusBadRequest, &form, nil, err)
		return
	}

	_, err := pc.blog.CreatePost(c.Request.Context(), user, &form)
	if err != nil {
		if _, ok := forms.AsValidationError(err); ok {
			pc.renderForm(c, http.StatusOK, &form, nil, err)
			return
		}
		sendError(c, err)
		return
	}

	utils.SendRedirect(c, "/profile/"+url.PathEscape(user.Username)+"/")
}

// PostEdit lets the author change a post. Everyone else is sent back to the
// post page.
func (pc *PostController) PostEdit(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	ctx := c.Request.Context()
	detailURL := fmt.Sprintf("/posts/%d/", id)

	post, err := pc.blog.PostForEdit(ctx, user, id)
	if errors.Is(err, services.ErrForbidden) {
		utils.SendRedirect(c, detailURL)
		return
	}
	if err != nil {
		sendError(c, err)
		return
	}

	if c.Request.Method == http.MethodGet {
		form := forms.PostFormFromPost(post)
		pc.renderForm(c, http.StatusOK, &form, post, nil)
		return
	}

	var form forms.PostForm
	if err := bindPostForm(c, &form); err != nil {
		pc.renderForm(c, http.StatusBadRequest, &form, post, err)
		return
	}

	post, err = pc.blog.EditPost(ctx, user, id, &form)
	switch {
	case err == nil:
		utils.SendRedirect(c, detailURL)
	case errors.Is(err, services.ErrForbidden):
		utils.SendRedirect(c, detailURL)
	default:
		if _, ok := forms.AsValidationError(err); ok {
			pc.renderForm(c, http.StatusOK, &form, post, err)
			return
		}
		sendError(c, err)
	}
}

// renderForm shows create_post. A non-nil post switches it to edit mode.
func (pc *PostController) renderForm(c *gin.Context, status int, form *forms.PostForm, post *models.Post, formErr error) {
	groups, err := pc.blog.Groups(c.Request.Context())
	if err != nil {
		sendError(c, err)
		return
	}

	if formErr != nil {
		if _, ok := forms.AsValidationError(formErr); !ok {
			pc.logger.Warn("could not read post form", "error", formErr)
		}
	}

	data := gin.H{
		"form":    form,
		"groups":  groups,
		"errors":  forms.FieldErrors(formErr),
		"is_edit": post != nil,
		"title":   "New post",
	}
	if post != nil {
		data["post"] = post
		data["title"] = "Edit post"
	}
	c.HTML(status, "create_post", utils.View(c, data))
}

// bindPostForm fills form from the request. The image comes from the
// multipart file, if any.
func bindPostForm(c *gin.Context, form *forms.PostForm) error {
	if err := c.ShouldBind(form); err != nil {
		return err
	}
	if fh, err := c.FormFile("image"); err == nil {
		form.Image = fh
	}
	return nil
}
