package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"yatube/forms"
	"yatube/middleware"
	"yatube/models"
	"yatube/repositories"
	"yatube/services"
	"yatube/utils"
)

type AuthController struct {
	auth   *services.AuthService
	users  repositories.UserStore
	logger *slog.Logger
}

func NewAuthController(auth *services.AuthService, users repositories.UserStore, logger *slog.Logger) *AuthController {
	return &AuthController{
		auth:   auth,
		users:  users,
		logger: logger,
	}
}

func (ac *AuthController) Login(c *gin.Context) {
	form := forms.LoginForm{Next: c.Query("next")}

	if c.Request.Method == http.MethodGet {
		ac.render(c, "login", &form, nil)
		return
	}

	if err := c.ShouldBind(&form); err != nil {
		ac.render(c, "login", &form, forms.InvalidLogin())
		return
	}
	if err := form.Validate(); err != nil {
		ac.render(c, "login", &form, err)
		return
	}

	user, err := ac.auth.Authenticate(c.Request.Context(), form.Username, form.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		ac.logger.Info("failed login", "username", form.Username, "ip", c.ClientIP())
		ac.render(c, "login", &form, forms.InvalidLogin())
		return
	}
	if err != nil {
		sendError(c, err)
		return
	}

	if err := ac.startSession(c, user); err != nil {
		sendError(c, err)
		return
	}
	utils.SendRedirect(c, safeNext(form.Next))
}

func (ac *AuthController) Signup(c *gin.Context) {
	var form forms.SignupForm

	if c.Request.Method == http.MethodGet {
		ac.render(c, "signup", &form, nil)
		return
	}

	if err := c.ShouldBind(&form); err != nil {
		ac.logger.Debug("could not read signup form", "error", err)
	}

	ctx := c.Request.Context()
	data, err := form.Validate(ctx, ac.users)
	if err != nil {
		if _, ok := forms.AsValidationError(err); ok {
			ac.render(c, "signup", &form, err)
			return
		}
		sendError(c, err)
		return
	}

	user, err := ac.auth.Register(ctx, data)
	if err != nil {
		sendError(c, err)
		return
	}
	ac.logger.Info("user registered", "user_id", user.ID, "username", user.Username)

	if err := ac.startSession(c, user); err != nil {
		sendError(c, err)
		return
	}
	utils.SendRedirect(c, "/")
}

func (ac *AuthController) Logout(c *gin.Context) {
	middleware.ClearSession(c)
	utils.SendRedirect(c, "/")
}

func (ac *AuthController) startSession(c *gin.Context, user *models.User) error {
	token, err := ac.auth.IssueToken(user)
	if err != nil {
		return err
	}
	middleware.SetSession(c, token, int(ac.auth.SessionTTL().Seconds()))
	ac.logger.Info("session started", "username", user.Username)
	return nil
}

func (ac *AuthController) render(c *gin.Context, name string, form interface{}, formErr error) {
	c.HTML(http.StatusOK, name, utils.View(c, gin.H{
		"form":   form,
		"errors": forms.FieldErrors(formErr),
		"title":  strings.ToUpper(name[:1]) + name[1:],
	}))
}

// safeNext only follows redirects that stay on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
