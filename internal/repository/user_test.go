package repository

import (
	"context"
	"errors"
	"testing"

	"usof/internal/models"
	"usof/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &models.User{Username: "neo", Email: "neo@example.com", PasswordHash: "h", FullName: "Thomas Anderson"}
	require.NoError(t, repo.Create(ctx, u))
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, models.RoleUser, u.Role)

	dup := &models.User{Username: "neo", Email: "other@example.com", PasswordHash: "h", FullName: "x"}
	err := repo.Create(ctx, dup)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeConflict, appErr.Code)

	byName, err := repo.GetByUsername(ctx, "neo")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	byEmail, err := repo.GetByEmail(ctx, "neo@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	u.FullName = "Neo"
	require.NoError(t, repo.Update(ctx, u))
	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Neo", got.FullName)

	users, total, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, users, 1)
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "author")
	other := testutil.CreateUser(t, db, "other")
	cat := testutil.CreateCategory(t, db, "c")
	post := testutil.CreatePost(t, db, author, "p", cat)
	otherPost := testutil.CreatePost(t, db, other, "op", cat)
	testutil.CreateComment(t, db, author, otherPost, nil, "by author")
	testutil.CreateComment(t, db, other, post, nil, "on author's post")
	testutil.React(t, db, author, models.PostTarget(otherPost.ID), models.LikeTypeLike)

	require.NoError(t, repo.Delete(ctx, author.ID))

	var n int64
	require.NoError(t, db.Model(&models.Post{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
	require.NoError(t, db.Model(&models.Comment{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&models.Like{}).Count(&n).Error)
	assert.Zero(t, n)

	assert.ErrorIs(t, repo.Delete(ctx, author.ID), models.ErrUserNotFound)
}
