package forms

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"yatube/models"
	"yatube/repositories"
)

// GroupLookup resolves a submitted group id.
type GroupLookup interface {
	GetByID(ctx context.Context, id uint) (*models.Group, error)
}

// PostForm is the raw create/edit submission. Image is filled from the
// multipart file, not by form binding.
type PostForm struct {
	Text       string                `form:"text" validate:"required"`
	Group      string                `form:"group" validate:"omitempty,numeric"`
	ClearImage string                `form:"image-clear" validate:"-"`
	Image      *multipart.FileHeader `form:"-" validate:"-"`

	// CurrentImage is the stored image key shown while editing.
	CurrentImage string `form:"-" validate:"-"`
}

// PostData is a validated PostForm.
type PostData struct {
	Text       string
	GroupID    *uint
	Image      *ImageUpload
	ClearImage bool
}

// PostFormFromPost pre-populates the edit form.
func PostFormFromPost(post *models.Post) PostForm {
	form := PostForm{
		Text:         post.Text,
		CurrentImage: post.Image,
	}
	if post.GroupID != nil {
		form.Group = strconv.FormatUint(uint64(*post.GroupID), 10)
	}
	return form
}

// SelectedGroup returns the submitted group id, or 0 when none.
func (f PostForm) SelectedGroup() uint {
	id, err := strconv.ParseUint(f.Group, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

// Validate checks the submission. It returns a *ValidationError for bad
// input and a plain error when the group lookup itself fails.
func (f *PostForm) Validate(ctx context.Context, groups GroupLookup) (*PostData, error) {
	f.Text = strings.TrimSpace(f.Text)
	f.Group = strings.TrimSpace(f.Group)

	verr := check(f)
	data := &PostData{
		Text:       f.Text,
		ClearImage: f.ClearImage != "",
	}

	if f.Group != "" && !verr.Has("group") {
		id, err := strconv.ParseUint(f.Group, 10, 64)
		if err != nil {
			verr.Add("group", msgInvalidChoice)
		} else if _, err := groups.GetByID(ctx, uint(id)); err != nil {
			if !errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("look up group %d: %w", id, err)
			}
			verr.Add("group", msgInvalidChoice)
		} else {
			groupID := uint(id)
			data.GroupID = &groupID
		}
	}

	if f.Image != nil {
		img, err := ReadImage(f.Image)
		if err != nil {
			verr.Add("image", imageMessage(err))
		} else {
			data.Image = img
		}
	}

	if !verr.empty() {
		return nil, verr
	}
	return data, nil
}

// NewPost builds an unsaved post owned by authorID. The image key is set by
// the caller once the upload is stored.
func (d *PostData) NewPost(authorID uint) *models.Post {
	return &models.Post{
		Text:     d.Text,
		AuthorID: authorID,
		GroupID:  d.GroupID,
	}
}

// Apply updates an existing post in place. Author and creation time are
// left alone; the image is only cleared when asked and no new file came in.
func (d *PostData) Apply(post *models.Post) {
	post.Text = d.Text
	post.GroupID = d.GroupID
	if d.GroupID == nil {
		post.Group = nil
	}
	if d.ClearImage && d.Image == nil {
		post.Image = ""
	}
}
