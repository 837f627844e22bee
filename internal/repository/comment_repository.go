package repository

import (
	"github.com/google/uuid"
	"github.com/threadbox/backend/internal/domain"
	"gorm.io/gorm"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(comment *domain.Comment) error {
	return r.db.Create(comment).Error
}

func (r *CommentRepository) FindByID(id uuid.UUID) (*domain.Comment, error) {
	var comment domain.Comment
	err := r.db.Preload("User").Where("id = ?", id).First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *CommentRepository) Update(comment *domain.Comment) error {
	return r.db.Omit("User").Save(comment).Error
}

func (r *CommentRepository) Exists(id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&domain.Comment{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// ListVisible returns all non-deleted comments, newest first. The tree is
// reconstructed by the service layer; the stored rows stay flat.
func (r *CommentRepository) ListVisible() ([]domain.Comment, error) {
	var comments []domain.Comment
	err := r.db.Preload("User").
		Where("is_deleted = ?", false).
		Order("created_at DESC").
		Find(&comments).Error
	return comments, err
}

// ListVisibleIncludingOwnDeleted additionally includes the given user's
// soft-deleted comments, so the author can see what is still restorable.
func (r *CommentRepository) ListVisibleIncludingOwnDeleted(userID uuid.UUID) ([]domain.Comment, error) {
	var comments []domain.Comment
	err := r.db.Preload("User").
		Where("is_deleted = ? OR user_id = ?", false, userID).
		Order("created_at DESC").
		Find(&comments).Error
	return comments, err
}
