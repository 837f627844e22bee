package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/threadbox/backend/internal/domain"
	"github.com/threadbox/backend/internal/dto"
	"github.com/threadbox/backend/internal/repository"
	"gorm.io/gorm"
)

// EditWindow and RestoreWindow bound how long after posting a comment can be
// edited and how long after deletion it can be restored. Both boundaries are
// inclusive: at exactly 15 minutes the operation still succeeds.
const (
	EditWindow    = 15 * time.Minute
	RestoreWindow = 15 * time.Minute
)

type CommentService struct {
	commentRepo         *repository.CommentRepository
	userRepo            *repository.UserRepository
	notificationService *NotificationService
}

func NewCommentService(
	commentRepo *repository.CommentRepository,
	userRepo *repository.UserRepository,
	notificationService *NotificationService,
) *CommentService {
	return &CommentService{
		commentRepo:         commentRepo,
		userRepo:            userRepo,
		notificationService: notificationService,
	}
}

// Create inserts a new active comment. A non-nil parent must reference an
// existing comment (it may itself be deleted; replies stay attachable). When
// the parent belongs to another user a reply notification is dispatched, but
// a dispatch failure never fails the creation.
func (s *CommentService) Create(userID uuid.UUID, req dto.CreateCommentRequest) (*domain.Comment, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, ErrEmptyContent
	}

	if req.ParentID != nil {
		exists, err := s.commentRepo.Exists(*req.ParentID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrCommentNotFound
		}
	}

	comment := &domain.Comment{
		UserID:    userID,
		ParentID:  req.ParentID,
		Content:   req.Content,
		CreatedAt: time.Now(),
	}
	if err := s.commentRepo.Create(comment); err != nil {
		return nil, err
	}

	if err := s.notificationService.DispatchReply(comment); err != nil {
		log.Printf("failed to dispatch reply notification for comment %s: %v", comment.ID, err)
	}

	return comment, nil
}

func (s *CommentService) GetByID(id uuid.UUID) (*domain.Comment, error) {
	comment, err := s.commentRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return comment, nil
}

// Edit replaces the content of a comment. Preconditions, checked in order:
// the comment exists, the requester is its author, and no more than 15
// minutes have passed since it was created. The window is measured from
// created_at and ignores deletion state.
func (s *CommentService) Edit(commentID, requesterID uuid.UUID, content string) (*domain.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	comment, err := s.GetByID(commentID)
	if err != nil {
		return nil, err
	}

	if comment.UserID != requesterID {
		return nil, ErrNotCommentAuthor
	}

	if time.Since(comment.CreatedAt) > EditWindow {
		return nil, ErrEditWindowExpired
	}

	now := time.Now()
	comment.Content = content
	comment.EditedAt = &now
	if err := s.commentRepo.Update(comment); err != nil {
		return nil, err
	}

	return comment, nil
}

// SoftDelete marks a comment deleted without removing the row, keeping it
// restorable for the restore window. Re-deleting an already-deleted comment
// is rejected; allowing it would reset deleted_at and extend the restore
// window without bound.
func (s *CommentService) SoftDelete(commentID, requesterID uuid.UUID) (*domain.Comment, error) {
	comment, err := s.GetByID(commentID)
	if err != nil {
		return nil, err
	}

	if comment.UserID != requesterID {
		return nil, ErrNotCommentAuthor
	}

	if comment.IsDeleted {
		return nil, ErrCommentAlreadyDeleted
	}

	now := time.Now()
	comment.IsDeleted = true
	comment.DeletedAt = &now
	if err := s.commentRepo.Update(comment); err != nil {
		return nil, err
	}

	return comment, nil
}

// Restore brings a soft-deleted comment back, content untouched. The comment
// must currently be deleted and the deletion must be at most 15 minutes old.
func (s *CommentService) Restore(commentID, requesterID uuid.UUID) (*domain.Comment, error) {
	comment, err := s.GetByID(commentID)
	if err != nil {
		return nil, err
	}

	if comment.UserID != requesterID {
		return nil, ErrNotCommentAuthor
	}

	if !comment.IsDeleted || comment.DeletedAt == nil {
		return nil, ErrCommentNotDeleted
	}

	elapsed := time.Since(*comment.DeletedAt)
	if elapsed > RestoreWindow {
		return nil, fmt.Errorf("%w (deleted %d minutes ago)", ErrRestoreWindowExpired, int(elapsed.Minutes()))
	}

	comment.IsDeleted = false
	comment.DeletedAt = nil
	if err := s.commentRepo.Update(comment); err != nil {
		return nil, err
	}

	return comment, nil
}

// List returns the reply forest for display. The flat listing comes back
// newest first and the tree preserves that order at every level. When viewer
// is set and includeDeleted is true, the viewer's own deleted comments are
// included so the author can still restore them.
func (s *CommentService) List(viewer *uuid.UUID, includeDeleted bool) ([]*dto.CommentResponse, error) {
	comments, err := s.listFlat(viewer, includeDeleted)
	if err != nil {
		return nil, err
	}
	return BuildCommentTree(comments), nil
}

// ListFlat returns the same collection without tree reconstruction.
func (s *CommentService) ListFlat(viewer *uuid.UUID, includeDeleted bool) ([]*dto.CommentResponse, error) {
	comments, err := s.listFlat(viewer, includeDeleted)
	if err != nil {
		return nil, err
	}
	responses := make([]*dto.CommentResponse, 0, len(comments))
	for i := range comments {
		responses = append(responses, toCommentResponse(&comments[i]))
	}
	return responses, nil
}

func (s *CommentService) listFlat(viewer *uuid.UUID, includeDeleted bool) ([]domain.Comment, error) {
	if includeDeleted && viewer != nil {
		return s.commentRepo.ListVisibleIncludingOwnDeleted(*viewer)
	}
	return s.commentRepo.ListVisible()
}

// BuildCommentTree reshapes a flat, parent-referencing collection into a
// forest of root comments. Two passes, O(n): the first allocates a node per
// comment, the second links each node to its parent. A comment whose parent
// is not in the collection is kept as a root rather than dropped, and a
// self-referential parent id is ignored so malformed rows cannot form a
// cycle.
func BuildCommentTree(comments []domain.Comment) []*dto.CommentResponse {
	nodes := make(map[uuid.UUID]*dto.CommentResponse, len(comments))
	for i := range comments {
		nodes[comments[i].ID] = toCommentResponse(&comments[i])
	}

	roots := make([]*dto.CommentResponse, 0, len(comments))
	for i := range comments {
		c := &comments[i]
		node := nodes[c.ID]
		if c.ParentID != nil && *c.ParentID != c.ID {
			if parent, ok := nodes[*c.ParentID]; ok {
				parent.Replies = append(parent.Replies, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	return roots
}

func toCommentResponse(c *domain.Comment) *dto.CommentResponse {
	return &dto.CommentResponse{
		ID:        c.ID,
		Content:   c.Content,
		ParentID:  c.ParentID,
		Author:    dto.UserBriefDTO{ID: c.UserID, Username: c.User.Username},
		CreatedAt: c.CreatedAt,
		EditedAt:  c.EditedAt,
		IsDeleted: c.IsDeleted,
		DeletedAt: c.DeletedAt,
		Replies:   []*dto.CommentResponse{},
	}
}
