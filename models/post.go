package models

import (
	"time"
)

// PostOrder is the default listing order: newest first, id breaking ties
// between posts created in the same instant.
const PostOrder = "created DESC, id DESC"

type Post struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Text      string    `json:"text" gorm:"not null;type:text"`
	CreatedAt time.Time `json:"created" gorm:"column:created;autoCreateTime;index"`
	AuthorID  uint      `json:"author_id" gorm:"not null;index"`
	GroupID   *uint     `json:"group_id" gorm:"index"`
	Image     string    `json:"image" gorm:"size:255"`

	Author   User      `json:"author" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Group    *Group    `json:"group,omitempty" gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL"`
	Comments []Comment `json:"comments,omitempty" gorm:"foreignKey:PostID"`
}

// String returns the first 15 characters of the text.
func (p Post) String() string {
	return Truncate(p.Text, 15)
}

// Title is the page title used on the detail view.
func (p Post) Title() string {
	return Truncate(p.Text, 30)
}

// Truncate cuts s to at most n characters (runes, not bytes).
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
