package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"yatube/models"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("record not found")

// PostStore is the data access the blog needs for posts. Listing methods
// return rows in models.PostOrder.
type PostStore interface {
	ListAll(ctx context.Context, offset, limit int) ([]models.Post, error)
	CountAll(ctx context.Context) (int64, error)
	ListByGroup(ctx context.Context, groupID uint, offset, limit int) ([]models.Post, error)
	CountByGroup(ctx context.Context, groupID uint) (int64, error)
	ListByAuthor(ctx context.Context, authorID uint, offset, limit int) ([]models.Post, error)
	CountByAuthor(ctx context.Context, authorID uint) (int64, error)
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
}

type GroupStore interface {
	GetBySlug(ctx context.Context, slug string) (*models.Group, error)
	GetByID(ctx context.Context, id uint) (*models.Group, error)
	List(ctx context.Context) ([]models.Group, error)
	Create(ctx context.Context, group *models.Group) error
}

type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type CommentStore interface {
	ListByPost(ctx context.Context, postID uint) ([]models.Comment, error)
	Create(ctx context.Context, comment *models.Comment) error
}

// Repositories bundles the gorm-backed stores sharing one connection.
type Repositories struct {
	Posts    *PostRepository
	Groups   *GroupRepository
	Users    *UserRepository
	Comments *CommentRepository
}

func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Posts:    NewPostRepository(db),
		Groups:   NewGroupRepository(db),
		Users:    NewUserRepository(db),
		Comments: NewCommentRepository(db),
	}
}

// notFound translates gorm's sentinel into ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
