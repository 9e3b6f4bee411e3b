package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"yatube/forms"
	"yatube/models"
	"yatube/repositories"
	"yatube/storage"
	"yatube/utils"
)

// CommentNotifier tells a post's author about a new comment.
type CommentNotifier interface {
	NotifyComment(ctx context.Context, post *models.Post, comment *models.Comment) error
}

// BlogService implements the read and write paths of the posts subsystem.
// Every method takes the acting user explicitly.
type BlogService struct {
	posts    repositories.PostStore
	groups   repositories.GroupStore
	users    repositories.UserStore
	comments repositories.CommentStore
	images   storage.ImageStore
	notifier CommentNotifier
	logger   *slog.Logger
}

func NewBlogService(
	posts repositories.PostStore,
	groups repositories.GroupStore,
	users repositories.UserStore,
	comments repositories.CommentStore,
	images storage.ImageStore,
	notifier CommentNotifier,
	logger *slog.Logger,
) *BlogService {
	return &BlogService{
		posts:    posts,
		groups:   groups,
		users:    users,
		comments: comments,
		images:   images,
		notifier: notifier,
		logger:   logger,
	}
}

// Listing is one page of posts.
type Listing struct {
	Page  utils.Page
	Posts []models.Post
}

type GroupListing struct {
	Group *models.Group
	Listing
}

type ProfileListing struct {
	Author    *models.User
	PostCount int64
	Listing
}

type PostDetail struct {
	Post            *models.Post
	AuthorPostCount int64
	Title           string
	Comments        []models.Comment
	Form            forms.CommentForm
}

// Index lists every post, newest first.
func (s *BlogService) Index(ctx context.Context, page string) (*Listing, error) {
	total, err := s.posts.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	p := utils.NewPage(total, page, utils.PostsPerPage)
	posts, err := s.posts.ListAll(ctx, p.Offset(), p.Limit())
	if err != nil {
		return nil, err
	}
	return &Listing{Page: p, Posts: posts}, nil
}

func (s *BlogService) GroupPosts(ctx context.Context, slug, page string) (*GroupListing, error) {
	group, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		return nil, lookupErr(err, "group %q", slug)
	}

	total, err := s.posts.CountByGroup(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	p := utils.NewPage(total, page, utils.PostsPerPage)
	posts, err := s.posts.ListByGroup(ctx, group.ID, p.Offset(), p.Limit())
	if err != nil {
		return nil, err
	}
	return &GroupListing{Group: group, Listing: Listing{Page: p, Posts: posts}}, nil
}

func (s *BlogService) Profile(ctx context.Context, username, page string) (*ProfileListing, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, lookupErr(err, "user %q", username)
	}

	total, err := s.posts.CountByAuthor(ctx, author.ID)
	if err != nil {
		return nil, err
	}
	p := utils.NewPage(total, page, utils.PostsPerPage)
	posts, err := s.posts.ListByAuthor(ctx, author.ID, p.Offset(), p.Limit())
	if err != nil {
		return nil, err
	}
	return &ProfileListing{
		Author:    author,
		PostCount: total,
		Listing:   Listing{Page: p, Posts: posts},
	}, nil
}

func (s *BlogService) PostDetail(ctx context.Context, postID uint) (*PostDetail, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, lookupErr(err, "post %d", postID)
	}

	count, err := s.posts.CountByAuthor(ctx, post.AuthorID)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	return &PostDetail{
		Post:            post,
		AuthorPostCount: count,
		Title:           post.Title(),
		Comments:        comments,
	}, nil
}

// Groups lists the choices for the post form.
func (s *BlogService) Groups(ctx context.Context) ([]models.Group, error) {
	return s.groups.List(ctx)
}

// CreatePost validates form and stores a new post by author. A
// *forms.ValidationError means nothing was stored.
func (s *BlogService) CreatePost(ctx context.Context, author *models.User, form *forms.PostForm) (*models.Post, error) {
	data, err := form.Validate(ctx, s.groups)
	if err != nil {
		return nil, err
	}

	post := data.NewPost(author.ID)
	if err := s.saveImage(ctx, data, post); err != nil {
		return nil, err
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	post.Author = *author

	s.logger.Info("post created", "post_id", post.ID, "author", author.Username)
	return post, nil
}

// PostForEdit loads a post that editor is allowed to change.
func (s *BlogService) PostForEdit(ctx context.Context, editor *models.User, postID uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, lookupErr(err, "post %d", postID)
	}
	if editor == nil || editor.ID != post.AuthorID {
		return nil, ErrForbidden
	}
	return post, nil
}

// EditPost updates text, group and image of a post owned by editor.
// The returned post is the stored one even when validation fails, so the
// form can be re-rendered around it.
func (s *BlogService) EditPost(ctx context.Context, editor *models.User, postID uint, form *forms.PostForm) (*models.Post, error) {
	post, err := s.PostForEdit(ctx, editor, postID)
	if err != nil {
		return nil, err
	}
	form.CurrentImage = post.Image

	data, err := form.Validate(ctx, s.groups)
	if err != nil {
		return post, err
	}

	data.Apply(post)
	if err := s.saveImage(ctx, data, post); err != nil {
		return post, err
	}
	if err := s.posts.Update(ctx, post); err != nil {
		return post, err
	}

	s.logger.Info("post edited", "post_id", post.ID, "author", editor.Username)
	return post, nil
}

// AddComment stores a comment by author on the post. Invalid input comes
// back as a *forms.ValidationError; callers may drop it.
func (s *BlogService) AddComment(ctx context.Context, author *models.User, postID uint, form *forms.CommentForm) (*models.Comment, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, lookupErr(err, "post %d", postID)
	}

	data, err := form.Validate()
	if err != nil {
		return nil, err
	}

	comment := data.NewComment(author.ID, post.ID)
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	comment.Author = *author

	if s.notifier != nil && post.AuthorID != author.ID {
		if err := s.notifier.NotifyComment(ctx, post, comment); err != nil {
			s.logger.Warn("comment notification failed", "post_id", post.ID, "error", err)
		}
	}
	return comment, nil
}

func (s *BlogService) saveImage(ctx context.Context, data *forms.PostData, post *models.Post) error {
	if data.Image == nil {
		return nil
	}
	key := storage.NewImageKey(data.Image.Ext)
	if err := s.images.Save(ctx, key, data.Image.ContentType, data.Image.Data); err != nil {
		return fmt.Errorf("store image: %w", err)
	}
	post.Image = key
	return nil
}

// lookupErr maps a repository miss onto ErrNotFound.
func lookupErr(err error, format string, args ...interface{}) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
	}
	return err
}
