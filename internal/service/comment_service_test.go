package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadbox/backend/internal/domain"
	"github.com/threadbox/backend/internal/dto"
	"github.com/threadbox/backend/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupCommentTest wires the full service stack against an in-memory SQLite
// database.
func setupCommentTest(t *testing.T) (*CommentService, *NotificationService, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&domain.User{}, &domain.Comment{}, &domain.Notification{})
	require.NoError(t, err)

	commentRepo := repository.NewCommentRepository(db)
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notificationService := NewNotificationService(notificationRepo, commentRepo, userRepo)
	commentService := NewCommentService(commentRepo, userRepo, notificationService)

	return commentService, notificationService, db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *domain.User {
	user := &domain.User{Username: username, PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	return user
}

// ageComment rewrites created_at so window checks can be exercised without a
// real 15-minute wait.
func ageComment(t *testing.T, db *gorm.DB, id uuid.UUID, createdAt time.Time) {
	require.NoError(t, db.Model(&domain.Comment{}).Where("id = ?", id).Update("created_at", createdAt).Error)
}

func ageDeletion(t *testing.T, db *gorm.DB, id uuid.UUID, deletedAt time.Time) {
	require.NoError(t, db.Model(&domain.Comment{}).Where("id = ?", id).Update("deleted_at", deletedAt).Error)
}

// ============================================================================
// Create
// ============================================================================

func TestCreate_EmptyContentRejected(t *testing.T) {
	svc, _, db := setupCommentTest(t)
	user := createTestUser(t, db, "alice")

	_, err := svc.Create(user.ID, dto.CreateCommentRequest{Content: "   "})
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestCreate_DanglingParentRejected(t *testing.T) {
	svc, _, db := setupCommentTest(t)
	user := createTestUser(t, db, "alice")

	missing := uuid.New()
	_, err := svc.Create(user.ID, dto.CreateCommentRequest{Content: "hi", ParentID: &missing})
	assert.ErrorIs(t, err, ErrCommentNotFound)

	var count int64
	require.NoError(t, db.Model(&domain.Comment{}).Count(&count).Error)
	assert.Zero(t, count, "no comment with a dangling parent may be persisted")
}

func TestCreate_ReplyToDeletedParentAllowed(t *testing.T) {
	svc, _, db := setupCommentTest(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	parent, err := svc.Create(alice.ID, dto.CreateCommentRequest{Content: "root"})
	require.NoError(t, err)
	_, err = svc.SoftDelete(parent.ID, alice.ID)
	require.NoError(t, err)

	reply, err := svc.Create(bob.ID, dto.CreateCommentRequest{Content: "reply", ParentID: &parent.ID})
	require.NoError(t, err)
	assert.Equal(t, parent.ID, *reply.ParentID)
}

func TestCreate_StartsActive(t *testing.T) {
	svc, _, db := setupCommentTest(t)
	user := createTestUser(t, db, "alice")

	comment, err := svc.Create(user.ID, dto.CreateCommentRequest{Content: "hello"})
	require.NoError(t, err)
	assert.False(t, comment.IsDeleted)
	assert.Nil(t, comment.DeletedAt)
	assert.Nil(t, comment.EditedAt)
}

// ============================================================================
// Edit window
// ============================================================================

func TestEdit_WithinWindowSucceeds(t *testing.T) {
	svc, _, db := setupCommentTest(t)
	user := createTestUser(t, db, "alice")

	comment, err := svc.Create(user.ID, dto.CreateCommentRequest{Content: "before"})
	require.NoError(t, err)

	updated, err := svc.Edit(comment.ID, user.ID, "after")
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Content)
	require.NotNil(t, updated.EditedAt)
	assert.False(t, updated.EditedAt.Before(updated.CreatedAt), "edited_at must be >= created_at")
}

func TestEdit_NonAuthorForbidden(t *testing.T) {
	svc, _, db := setupCommentTest(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	comment, err := svc.Create(alice.ID, dto.CreateCommentRequest{Content: "original"})
	require.NoError(t, err)

	_, err = svc.Edit(comment.ID, bob.ID, "hijacked")
	assert.ErrorIs(t, err, ErrNotCommentAuthor)

	stored, err := svc.GetByID(comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", stored.Content, "failed edit must not partially update content")
}

func TestEdit_JustInsideWindowSucceeds(t *testing.T) {
	svc, _, db := setupCommentTest(t)
	user := createTestUser(t, db, "alice")

	comment, err := svc.Create(user.ID, dto.CreateCommentRequest{Content: "before"})
	require.NoError(t, err)
	ageComment(t, db, comment.ID, time.Now().Add(-EditWindow).Add(5*time.Second))

	_, err = svc.Edit(comment.ID, user.ID, "after")
	assert.NoError(t, err)
}

func TestEdit_PastWindowExpired(t *testing.T) {
	svc, _, db := setupCommentTest(t)
	user := createTestUser(t, db, "alice")

	comment, err := svc.Create(user.ID, dto.CreateCommentRequest{Content: "before"})
	require.NoError(t, err)
	ageComment(t, db, comment.ID, time.Now().Add(-EditWindow).Add(-time.Second))

	_, err = svc.Edit(comment.ID, user.ID, "after")
	assert.ErrorIs(t, err, ErrEditWindowExpired)

	stored, err := svc.GetByID(comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "before", stored.Content)
	assert.Nil(t, stored.EditedAt)
}

func TestEdit_MissingCommentNotFound(t *testing.T) {
	svc, _, db := setupCommentTest(t)
	user := createTestUser(t, db, "alice")

	_, err := svc.Edit(uuid.New(), user.ID, "whatever")
	assert.ErrorIs(t, err, ErrCommentNotFound)
}

// The edit window is measured from created_at and ignores deletion state, so
// a deleted comment can still be edited inside its window.
func TestEdit_DeletedCommentStillEditableInsideWindow(t *testing.T) {
	svc, _, db := setupCommentTest(t)
	user := createTestUser(t, db, "alice")

	comment, err := svc.Create(user.ID, dto.CreateCommentRequest{Content: "before"})
	require.NoError(t, err)
	_, err = svc.SoftDelete(comment.ID, user.ID)
	require.NoError(t, err)

	updated, err := svc.Edit(comment.ID, user.ID, "after")
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Content)
	assert.True(t, updated.IsDeleted)
}

// ============================================================================
// Soft delete / restore
// ============================================================================

func TestDelete_SetsFlagAndTimestampTogether(t *testing.T) {
	svc, _, db := setupCommentTest(t)
	user := createTestUser(t, db, "alice")

	comment, err := svc.Create(user.ID, dto.CreateCommentRequest{Content: "bye"})
	require.NoError(t, err)

	deleted, err := svc.SoftDelete(comment.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted)
	require.NotNil(t, deleted.DeletedAt, "is_deleted implies deleted_at is set")
}

func TestDelete_NonAuthorForbidden(t *testing.T) {
	svc, _, db := setupCommentTest(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	comment, err := svc.Create(alice.ID, dto.CreateCommentRequest{Content: "mine"})
	require.NoError(t, err)

	_, err = svc.SoftDelete(comment.ID, bob.ID)
	assert.ErrorIs(t, err, ErrNotCommentAuthor)
}

// Re-deleting is rejected so deleted_at cannot be pushed forward to extend
// the restore window.
func TestDelete_RedeleteRejected(t *testing.T) {
	svc, _, db := setupCommentTest(t)
	user := createTestUser(t, db, "alice")

	comment, err := svc.Create(user.ID, dto.CreateCommentRequest{Content: "bye"})
	require.NoError(t, err)

	first, err := svc.SoftDelete(comment.ID, user.ID)
	require.NoError(t, err)

	_, err = svc.SoftDelete(comment.ID, user.ID)
	assert.ErrorIs(t, err, ErrCommentAlreadyDeleted)

	stored, err := svc.GetByID(comment.ID)
	require.NoError(t, err)
	assert.Equal(t, first.DeletedAt.Unix(), stored.DeletedAt.Unix(), "deleted_at must not be reset")
}

func TestRestore_WithinWindowReturnsToActive(t *testing.T) {
	svc, _, db := setupCommentTest(t)
	user := createTestUser(t, db, "alice")

	comment, err := svc.Create(user.ID, dto.CreateCommentRequest{Content: "keep me"})
	require.NoError(t, err)
	_, err = svc.SoftDelete(comment.ID, user.ID)
	require.NoError(t, err)

	restored, err := svc.Restore(comment.ID, user.ID)
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted)
	assert.Nil(t, restored.DeletedAt)
	assert.Equal(t, "keep me", restored.Content, "restore must not touch content")
}

func TestRestore_NotDeletedInvalidState(t *testing.T) {
	svc, _, db := setupCommentTest(t)
	user := createTestUser(t, db, "alice")

	comment, err := svc.Create(user.ID, dto.CreateCommentRequest{Content: "active"})
	require.NoError(t, err)

	_, err = svc.Restore(comment.ID, user.ID)
	assert.ErrorIs(t, err, ErrCommentNotDeleted)
}

func TestRestore_PastWindowExpired(t *testing.T) {
	svc, _, db := setupCommentTest(t)
	user := createTestUser(t, db, "alice")

	comment, err := svc.Create(user.ID, dto.CreateCommentRequest{Content: "gone"})
	require.NoError(t, err)
	_, err = svc.SoftDelete(comment.ID, user.ID)
	require.NoError(t, err)
	ageDeletion(t, db, comment.ID, time.Now().Add(-RestoreWindow).Add(-time.Minute))

	_, err = svc.Restore(comment.ID, user.ID)
	assert.ErrorIs(t, err, ErrRestoreWindowExpired)
	assert.Contains(t, err.Error(), "minutes", "expiry message reports minutes elapsed")
}

func TestRestore_JustInsideWindowSucceeds(t *testing.T) {
	svc, _, db := setupCommentTest(t)
	user := createTestUser(t, db, "alice")

	comment, err := svc.Create(user.ID, dto.CreateCommentRequest{Content: "gone"})
	require.NoError(t, err)
	_, err = svc.SoftDelete(comment.ID, user.ID)
	require.NoError(t, err)
	ageDeletion(t, db, comment.ID, time.Now().Add(-RestoreWindow).Add(5*time.Second))

	_, err = svc.Restore(comment.ID, user.ID)
	assert.NoError(t, err)
}

func TestRestore_NonAuthorForbidden(t *testing.T) {
	svc, _, db := setupCommentTest(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	comment, err := svc.Create(alice.ID, dto.CreateCommentRequest{Content: "mine"})
	require.NoError(t, err)
	_, err = svc.SoftDelete(comment.ID, alice.ID)
	require.NoError(t, err)

	_, err = svc.Restore(comment.ID, bob.ID)
	assert.ErrorIs(t, err, ErrNotCommentAuthor)
}

// ============================================================================
// Tree builder
// ============================================================================

func treeComment(id, parent string, user uuid.UUID) domain.Comment {
	c := domain.Comment{
		ID:      uuid.MustParse(id),
		UserID:  user,
		Content: id,
	}
	if parent != "" {
		p := uuid.MustParse(parent)
		c.ParentID = &p
	}
	return c
}

const (
	treeID1 = "00000000-0000-0000-0000-000000000001"
	treeID2 = "00000000-0000-0000-0000-000000000002"
	treeID3 = "00000000-0000-0000-0000-000000000003"
)

func TestBuildCommentTree_ChainNestsDepthThree(t *testing.T) {
	user := uuid.New()
	flat := []domain.Comment{
		treeComment(treeID1, "", user),
		treeComment(treeID2, treeID1, user),
		treeComment(treeID3, treeID2, user),
	}

	forest := BuildCommentTree(flat)

	require.Len(t, forest, 1)
	root := forest[0]
	assert.Equal(t, uuid.MustParse(treeID1), root.ID)
	require.Len(t, root.Replies, 1)
	assert.Equal(t, uuid.MustParse(treeID2), root.Replies[0].ID)
	require.Len(t, root.Replies[0].Replies, 1)
	assert.Equal(t, uuid.MustParse(treeID3), root.Replies[0].Replies[0].ID)
}

func TestBuildCommentTree_MissingParentBecomesRoot(t *testing.T) {
	user := uuid.New()
	flat := []domain.Comment{
		treeComment(treeID1, "", user),
		treeComment(treeID2, treeID3, user), // parent not in collection
	}

	forest := BuildCommentTree(flat)

	require.Len(t, forest, 2, "orphan must be kept at root level, not dropped")
	assert.Equal(t, uuid.MustParse(treeID1), forest[0].ID)
	assert.Equal(t, uuid.MustParse(treeID2), forest[1].ID)
}

func TestBuildCommentTree_SelfReferenceIgnored(t *testing.T) {
	user := uuid.New()
	flat := []domain.Comment{
		treeComment(treeID1, treeID1, user),
	}

	forest := BuildCommentTree(flat)

	require.Len(t, forest, 1)
	assert.Empty(t, forest[0].Replies, "a comment must never become its own descendant")
}

func TestBuildCommentTree_PreservesInputOrder(t *testing.T) {
	user := uuid.New()
	// Newest-first input: two roots, each with two replies, interleaved.
	flat := []domain.Comment{
		treeComment("00000000-0000-0000-0000-00000000000a", "", user),
		treeComment("00000000-0000-0000-0000-00000000000b", "", user),
		treeComment("00000000-0000-0000-0000-00000000000c", "00000000-0000-0000-0000-00000000000a", user),
		treeComment("00000000-0000-0000-0000-00000000000d", "00000000-0000-0000-0000-00000000000b", user),
		treeComment("00000000-0000-0000-0000-00000000000e", "00000000-0000-0000-0000-00000000000a", user),
	}

	forest := BuildCommentTree(flat)

	require.Len(t, forest, 2)
	assert.Equal(t, uuid.MustParse("00000000-0000-0000-0000-00000000000a"), forest[0].ID)
	assert.Equal(t, uuid.MustParse("00000000-0000-0000-0000-00000000000b"), forest[1].ID)

	require.Len(t, forest[0].Replies, 2)
	assert.Equal(t, uuid.MustParse("00000000-0000-0000-0000-00000000000c"), forest[0].Replies[0].ID)
	assert.Equal(t, uuid.MustParse("00000000-0000-0000-0000-00000000000e"), forest[0].Replies[1].ID)
}

func TestBuildCommentTree_Empty(t *testing.T) {
	assert.Empty(t, BuildCommentTree(nil))
}

// ============================================================================
// Listing
// ============================================================================

func TestList_DeletedCommentsHiddenFromOthers(t *testing.T) {
	svc, _, db := setupCommentTest(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	kept, err := svc.Create(alice.ID, dto.CreateCommentRequest{Content: "kept"})
	require.NoError(t, err)
	gone, err := svc.Create(alice.ID, dto.CreateCommentRequest{Content: "gone"})
	require.NoError(t, err)
	_, err = svc.SoftDelete(gone.ID, alice.ID)
	require.NoError(t, err)

	// Anonymous view
	forest, err := svc.List(nil, false)
	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.Equal(t, kept.ID, forest[0].ID)

	// Another user asking for deleted comments still only sees their own
	forest, err = svc.List(&bob.ID, true)
	require.NoError(t, err)
	assert.Len(t, forest, 1)

	// The author sees the deleted comment flagged
	forest, err = svc.List(&alice.ID, true)
	require.NoError(t, err)
	require.Len(t, forest, 2)
}

// ============================================================================
// End-to-end scenario
// ============================================================================

func TestScenario_ReplyNotifiesAndNests(t *testing.T) {
	svc, notifications, db := setupCommentTest(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	c1, err := svc.Create(alice.ID, dto.CreateCommentRequest{Content: "hello"})
	require.NoError(t, err)

	c2, err := svc.Create(bob.ID, dto.CreateCommentRequest{Content: "hi back", ParentID: &c1.ID})
	require.NoError(t, err)

	// Exactly one notification, addressed to alice, referencing the reply
	list, unread, err := notifications.ListForUser(alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, c2.ID, list[0].CommentID)
	assert.Contains(t, list[0].Message, "bob")
	assert.False(t, list[0].IsRead)
	assert.Equal(t, int64(1), unread)

	// Tree: single root c1 with one reply c2
	forest, err := svc.List(nil, false)
	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.Equal(t, c1.ID, forest[0].ID)
	require.Len(t, forest[0].Replies, 1)
	assert.Equal(t, c2.ID, forest[0].Replies[0].ID)
}
