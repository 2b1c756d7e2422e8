package repository

import (
	"context"
	"testing"

	"usof/internal/models"
	"usof/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_Stats(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	u := testutil.CreateUser(t, db, "u")
	v := testutil.CreateUser(t, db, "v")
	post := testutil.CreatePost(t, db, u, "p", testutil.CreateCategory(t, db, "c"))

	root := testutil.CreateComment(t, db, v, post, nil, "root")
	child := testutil.CreateComment(t, db, v, post, root, "child")
	grandchild := testutil.CreateComment(t, db, u, post, child, "grandchild")
	lonely := testutil.CreateComment(t, db, u, post, nil, "lonely")

	testutil.React(t, db, u, models.CommentTarget(root.ID), models.LikeTypeLike)
	testutil.React(t, db, v, models.CommentTarget(root.ID), models.LikeTypeDislike)
	testutil.React(t, db, u, models.CommentTarget(child.ID), models.LikeTypeLike)

	stats, err := repo.Stats(ctx, []string{root.ID, child.ID, grandchild.ID, lonely.ID})
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats[root.ID].LikeCount)
	assert.Equal(t, int64(1), stats[root.ID].DislikeCount)
	assert.Equal(t, int64(1), stats[root.ID].ReplyCount, "grandchildren are not counted")
	assert.Equal(t, []string{child.ID}, stats[root.ID].ReplyIDs)

	assert.Equal(t, []string{grandchild.ID}, stats[child.ID].ReplyIDs)

	assert.Equal(t, &CommentStats{ReplyIDs: []string{}}, stats[lonely.ID])

	empty, err := repo.Stats(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCommentRepository_FindAll(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	u := testutil.CreateUser(t, db, "u")
	cat := testutil.CreateCategory(t, db, "c")
	p1 := testutil.CreatePost(t, db, u, "p1", cat)
	p2 := testutil.CreatePost(t, db, u, "p2", cat)

	r1 := testutil.CreateComment(t, db, u, p1, nil, "r1")
	testutil.CreateComment(t, db, u, p1, r1, "reply")
	testutil.CreateComment(t, db, u, p2, nil, "other post")

	roots, err := repo.FindAll(ctx, CommentFilter{Field: CommentFieldPostID, Value: p1.ID, RootsOnly: true})
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, r1.ID, roots[0].ID)
	assert.Equal(t, "Full u", roots[0].Author.FullName)

	replies, err := repo.FindAll(ctx, CommentFilter{Field: CommentFieldParentCommentID, Value: r1.ID})
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "reply", replies[0].Content)

	all, err := repo.FindAll(ctx, CommentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = repo.FindAll(ctx, CommentFilter{Field: "content"})
	assert.Error(t, err)
}

func TestCommentRepository_ParentOf(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	u := testutil.CreateUser(t, db, "u")
	post := testutil.CreatePost(t, db, u, "p", testutil.CreateCategory(t, db, "c"))
	root := testutil.CreateComment(t, db, u, post, nil, "root")
	child := testutil.CreateComment(t, db, u, post, root, "child")

	parent, err := repo.ParentOf(ctx, root.ID)
	require.NoError(t, err)
	assert.Nil(t, parent)

	parent, err = repo.ParentOf(ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, parent)
	assert.Equal(t, root.ID, *parent)

	_, err = repo.ParentOf(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, models.ErrCommentNotFound)
}

func TestCommentRepository_UpdateAndDelete(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	u := testutil.CreateUser(t, db, "u")
	post := testutil.CreatePost(t, db, u, "p", testutil.CreateCategory(t, db, "c"))
	root := testutil.CreateComment(t, db, u, post, nil, "root")
	child := testutil.CreateComment(t, db, u, post, root, "child")
	testutil.CreateComment(t, db, u, post, child, "grandchild")
	testutil.React(t, db, u, models.CommentTarget(child.ID), models.LikeTypeLike)

	require.NoError(t, repo.UpdateContent(ctx, root.ID, "edited"))
	got, err := repo.GetByID(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Content)

	assert.ErrorIs(t, repo.UpdateContent(ctx, "00000000-0000-0000-0000-000000000000", "x"), models.ErrCommentNotFound)

	require.NoError(t, repo.Delete(ctx, root.ID))
	var n int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&n).Error)
	assert.Zero(t, n, "replies are removed with their ancestor")
	require.NoError(t, db.Model(&models.Like{}).Count(&n).Error)
	assert.Zero(t, n)

	assert.ErrorIs(t, repo.Delete(ctx, root.ID), models.ErrCommentNotFound)
}

func TestCommentRepository_CreateNamesMissingReference(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	u := testutil.CreateUser(t, db, "u")
	post := testutil.CreatePost(t, db, u, "p")
	gone := "00000000-0000-0000-0000-000000000000"

	tests := []struct {
		name    string
		comment *models.Comment
		want    error
	}{
		{"author", &models.Comment{Content: "x", AuthorID: gone, PostID: post.ID}, models.ErrAuthorNotFound},
		{"post", &models.Comment{Content: "x", AuthorID: u.ID, PostID: gone}, models.ErrPostNotFound},
		{"parent", &models.Comment{Content: "x", AuthorID: u.ID, PostID: post.ID, ParentCommentID: &gone}, models.ErrParentNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, repo.Create(ctx, tt.comment), tt.want)
		})
	}
}
