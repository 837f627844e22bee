package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadbox/backend/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCommentRepoTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&domain.User{}, &domain.Comment{}, &domain.Notification{})
	require.NoError(t, err)

	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *domain.User {
	user := &domain.User{Username: username, PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedComment(t *testing.T, db *gorm.DB, userID uuid.UUID, content string, createdAt time.Time, deleted bool) *domain.Comment {
	c := &domain.Comment{
		UserID:    userID,
		Content:   content,
		CreatedAt: createdAt,
	}
	if deleted {
		now := createdAt.Add(time.Minute)
		c.IsDeleted = true
		c.DeletedAt = &now
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func TestListVisible_ExcludesDeletedNewestFirst(t *testing.T) {
	db := setupCommentRepoTestDB(t)
	repo := NewCommentRepository(db)
	user := seedUser(t, db, "alice")

	base := time.Now().Add(-time.Hour)
	old := seedComment(t, db, user.ID, "old", base, false)
	seedComment(t, db, user.ID, "deleted", base.Add(time.Minute), true)
	recent := seedComment(t, db, user.ID, "recent", base.Add(2*time.Minute), false)

	comments, err := repo.ListVisible()
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, recent.ID, comments[0].ID, "newest first")
	assert.Equal(t, old.ID, comments[1].ID)
	assert.Equal(t, "alice", comments[0].User.Username, "author is preloaded")
}

func TestListVisibleIncludingOwnDeleted_OnlyOwnerSeesDeleted(t *testing.T) {
	db := setupCommentRepoTestDB(t)
	repo := NewCommentRepository(db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	base := time.Now().Add(-time.Hour)
	seedComment(t, db, alice.ID, "alice active", base, false)
	seedComment(t, db, alice.ID, "alice deleted", base.Add(time.Minute), true)
	seedComment(t, db, bob.ID, "bob deleted", base.Add(2*time.Minute), true)

	forAlice, err := repo.ListVisibleIncludingOwnDeleted(alice.ID)
	require.NoError(t, err)
	assert.Len(t, forAlice, 2, "alice sees her active and deleted comments, not bob's deleted one")

	forBob, err := repo.ListVisibleIncludingOwnDeleted(bob.ID)
	require.NoError(t, err)
	assert.Len(t, forBob, 2, "bob sees alice's active comment and his own deleted one")
}

func TestExists(t *testing.T) {
	db := setupCommentRepoTestDB(t)
	repo := NewCommentRepository(db)
	user := seedUser(t, db, "alice")

	c := seedComment(t, db, user.ID, "here", time.Now(), false)

	exists, err := repo.Exists(c.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(uuid.New())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMarkRead_MatchesIDAndRecipientTogether(t *testing.T) {
	db := setupCommentRepoTestDB(t)
	notificationRepo := NewNotificationRepository(db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	c := seedComment(t, db, bob.ID, "reply", time.Now(), false)

	n := &domain.Notification{UserID: alice.ID, CommentID: c.ID, Message: "bob replied to your comment"}
	require.NoError(t, notificationRepo.Create(n))

	ok, err := notificationRepo.MarkRead(n.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok, "recipient mismatch behaves like a missing row")

	ok, err = notificationRepo.MarkRead(n.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	unread, err := notificationRepo.CountUnread(alice.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}
