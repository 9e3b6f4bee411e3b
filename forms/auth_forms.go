package forms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"yatube/models"
	"yatube/repositories"
	"yatube/utils"
)

type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
	Next     string `form:"next" validate:"-"`
}

func (f *LoginForm) Validate() error {
	f.Username = strings.TrimSpace(f.Username)
	if verr := check(f); !verr.empty() {
		return verr
	}
	return nil
}

// InvalidLogin is the form-wide error shown for a wrong username or password.
func InvalidLogin() *ValidationError {
	verr := &ValidationError{}
	verr.Add("", msgBadLogin)
	return verr
}

// UsernameLookup checks whether a username is taken.
type UsernameLookup interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type SignupForm struct {
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" validate:"max=150"`
	Username  string `form:"username" validate:"required,max=150,username"`
	Email     string `form:"email" validate:"omitempty,email"`
	Password1 string `form:"password1" validate:"required"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`
}

// SignupData is a validated SignupForm; Password is still plain text.
type SignupData struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
}

func (f *SignupForm) Validate(ctx context.Context, users UsernameLookup) (*SignupData, error) {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)

	verr := check(f)

	if f.Password1 != "" && !utils.IsValidPassword(f.Password1) {
		verr.Add("password1", msgWeakPassword)
	}

	if f.Username != "" && !verr.Has("username") {
		_, err := users.GetByUsername(ctx, f.Username)
		switch {
		case err == nil:
			verr.Add("username", msgUsernameTaken)
		case !errors.Is(err, repositories.ErrNotFound):
			return nil, fmt.Errorf("look up user %s: %w", f.Username, err)
		}
	}

	if !verr.empty() {
		return nil, verr
	}
	return &SignupData{
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Username:  f.Username,
		Email:     f.Email,
		Password:  f.Password1,
	}, nil
}
