package models

import (
	"time"
)

const CommentMaxLength = 200

type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    uint      `json:"post_id" gorm:"not null;index"`
	AuthorID  uint      `json:"author_id" gorm:"not null;index"`
	Text      string    `json:"text" gorm:"not null;size:200"`
	CreatedAt time.Time `json:"created" gorm:"column:created;autoCreateTime"`

	Author User `json:"author" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Post   Post `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
}
