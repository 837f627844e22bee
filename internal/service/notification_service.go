package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/threadbox/backend/internal/domain"
	"github.com/threadbox/backend/internal/repository"
)

// NotificationPusher delivers a notification to a connected client, if any.
// Implemented by the websocket hub; delivery is best effort.
type NotificationPusher interface {
	Push(userID uuid.UUID, notification *domain.Notification)
}

type NotificationService struct {
	repo        *repository.NotificationRepository
	commentRepo *repository.CommentRepository
	userRepo    *repository.UserRepository
	pusher      NotificationPusher
}

func NewNotificationService(
	repo *repository.NotificationRepository,
	commentRepo *repository.CommentRepository,
	userRepo *repository.UserRepository,
) *NotificationService {
	return &NotificationService{
		repo:        repo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
	}
}

// SetPusher attaches the live-delivery hub. Optional; without it
// notifications are only persisted.
func (s *NotificationService) SetPusher(p NotificationPusher) {
	s.pusher = p
}

// DispatchReply persists a reply notification for the parent comment's
// author. No-op for top-level comments and for self-replies.
func (s *NotificationService) DispatchReply(reply *domain.Comment) error {
	if reply.ParentID == nil {
		return nil
	}

	parent, err := s.commentRepo.FindByID(*reply.ParentID)
	if err != nil {
		return err
	}
	if parent.UserID == reply.UserID {
		return nil
	}

	replier, err := s.userRepo.FindByID(reply.UserID)
	if err != nil {
		return err
	}

	notification := &domain.Notification{
		UserID:    parent.UserID,
		CommentID: reply.ID,
		Message:   fmt.Sprintf("%s replied to your comment", replier.Username),
	}
	if err := s.repo.Create(notification); err != nil {
		return err
	}

	if s.pusher != nil {
		s.pusher.Push(notification.UserID, notification)
	}

	return nil
}

// ListForUser returns the user's notifications, newest first, plus the
// unread count.
func (s *NotificationService) ListForUser(userID uuid.UUID) ([]domain.Notification, int64, error) {
	notifications, err := s.repo.FindByRecipient(userID)
	if err != nil {
		return nil, 0, err
	}
	unread, err := s.repo.CountUnread(userID)
	if err != nil {
		return nil, 0, err
	}
	return notifications, unread, nil
}

// MarkRead sets is_read on a notification owned by requesterID. A missing id
// and someone else's id fail identically with ErrNotificationNotFound.
func (s *NotificationService) MarkRead(id, requesterID uuid.UUID) error {
	ok, err := s.repo.MarkRead(id, requesterID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}
