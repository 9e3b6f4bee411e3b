package forms

import (
	"strings"

	"yatube/models"
)

type CommentForm struct {
	Text string `form:"text" validate:"required,max=200"`
}

// CommentData is a validated CommentForm.
type CommentData struct {
	Text string
}

func (f *CommentForm) Validate() (*CommentData, error) {
	f.Text = strings.TrimSpace(f.Text)
	if verr := check(f); !verr.empty() {
		return nil, verr
	}
	return &CommentData{Text: f.Text}, nil
}

// NewComment builds an unsaved comment by authorID on postID.
func (d *CommentData) NewComment(authorID, postID uint) *models.Comment {
	return &models.Comment{
		Text:     d.Text,
		AuthorID: authorID,
		PostID:   postID,
	}
}
