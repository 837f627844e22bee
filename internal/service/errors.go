package service

import "errors"

var (
	// Validation
	ErrEmptyContent = errors.New("content cannot be empty")

	// Not found
	ErrCommentNotFound = errors.New("comment not found")
	ErrUserNotFound    = errors.New("user not found")

	// Forbidden
	ErrNotCommentAuthor     = errors.New("requester is not the comment author")
	ErrEditWindowExpired    = errors.New("comments can only be edited within 15 minutes of posting")
	ErrRestoreWindowExpired = errors.New("comments can only be restored within 15 minutes of deletion")

	// Invalid state
	ErrCommentNotDeleted     = errors.New("comment is not currently deleted")
	ErrCommentAlreadyDeleted = errors.New("comment is already deleted")

	// Deliberately covers both the missing and the not-owned case so callers
	// cannot probe for other users' notification ids.
	ErrNotificationNotFound = errors.New("notification not found")
)
