package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateCommentRequest struct {
	Content  string     `json:"content" validate:"required,min=1"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1"`
}

// CommentResponse is a node in the reply tree. Replies preserve the order the
// flat listing came back in (newest first).
type CommentResponse struct {
	ID        uuid.UUID          `json:"id"`
	Content   string             `json:"content"`
	ParentID  *uuid.UUID         `json:"parent_id,omitempty"`
	Author    UserBriefDTO       `json:"author"`
	CreatedAt time.Time          `json:"created_at"`
	EditedAt  *time.Time         `json:"edited_at,omitempty"`
	IsDeleted bool               `json:"is_deleted"`
	DeletedAt *time.Time         `json:"deleted_at,omitempty"`
	Replies   []*CommentResponse `json:"replies"`
}
