// Package testutil provides shared test databases and fixtures.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"usof/internal/database"
	"usof/internal/middleware"
	"usof/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens a migrated, file-backed sqlite database private to t.
// Foreign keys are on so cascades behave like postgres.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(
		database.SQLiteDialector(path),
		database.GormConfig(database.NewGormLogger(middleware.Logger, logger.Silent)),
	)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a user whose username, email and full name derive from name.
func CreateUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	u := &models.User{
		Username:     name,
		Email:        fmt.Sprintf("%s@example.com", name),
		PasswordHash: "hash",
		FullName:     "Full " + name,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateAdmin inserts a user with the ADMIN role.
func CreateAdmin(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	u := CreateUser(t, db, name)
	require.NoError(t, db.Model(u).Update("role", models.RoleAdmin).Error)
	u.Role = models.RoleAdmin
	return u
}

func CreateCategory(t *testing.T, db *gorm.DB, title string) *models.Category {
	t.Helper()
	c := &models.Category{Title: title}
	require.NoError(t, db.Create(c).Error)
	return c
}

// CreatePost inserts an ACTIVE post linked to the given categories.
func CreatePost(t *testing.T, db *gorm.DB, author *models.User, title string, cats ...*models.Category) *models.Post {
	t.Helper()
	p := &models.Post{Title: title, Content: "content of " + title, AuthorID: author.ID}
	for _, c := range cats {
		p.Categories = append(p.Categories, *c)
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// CreateComment inserts a comment, as a reply when parent is non-nil.
func CreateComment(t *testing.T, db *gorm.DB, author *models.User, post *models.Post, parent *models.Comment, content string) *models.Comment {
	t.Helper()
	c := &models.Comment{Content: content, AuthorID: author.ID, PostID: post.ID}
	if parent != nil {
		c.ParentCommentID = &parent.ID
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

// React inserts a reaction row directly.
func React(t *testing.T, db *gorm.DB, author *models.User, target models.ReactionTarget, lt models.LikeType) *models.Like {
	t.Helper()
	l := &models.Like{AuthorID: author.ID, Type: lt}
	l.SetTarget(target)
	require.NoError(t, db.Create(l).Error)
	return l
}
