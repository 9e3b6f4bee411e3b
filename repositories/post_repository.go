package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"yatube/models"
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// listing is the base query for every post listing.
func (r *PostRepository) listing(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		Order(models.PostOrder)
}

func (r *PostRepository) ListAll(ctx context.Context, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	if err := r.listing(ctx).Offset(offset).Limit(limit).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (r *PostRepository) CountAll(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return total, nil
}

func (r *PostRepository) ListByGroup(ctx context.Context, groupID uint, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.listing(ctx).
		Where("group_id = ?", groupID).
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts of group %d: %w", groupID, err)
	}
	return posts, nil
}

func (r *PostRepository) CountByGroup(ctx context.Context, groupID uint) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("group_id = ?", groupID).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count posts of group %d: %w", groupID, err)
	}
	return total, nil
}

func (r *PostRepository) ListByAuthor(ctx context.Context, authorID uint, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.listing(ctx).
		Where("author_id = ?", authorID).
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts of author %d: %w", authorID, err)
	}
	return posts, nil
}

func (r *PostRepository) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("author_id = ?", authorID).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count posts of author %d: %w", authorID, err)
	}
	return total, nil
}

func (r *PostRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		First(&post, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("Author", "Group", "Comments").Create(post).Error; err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// Update writes the mutable fields only; author and created never change.
func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).
		Model(&models.Post{ID: post.ID}).
		Select("text", "group_id", "image").
		Updates(map[string]interface{}{
			"text":     post.Text,
			"group_id": post.GroupID,
			"image":    post.Image,
		}).Error
	if err != nil {
		return fmt.Errorf("update post %d: %w", post.ID, err)
	}
	return nil
}
