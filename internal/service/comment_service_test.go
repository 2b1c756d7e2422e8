package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"usof/internal/models"
	"usof/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chainRepo serves ParentOf from a child->parent map; "" marks a root.
func chainRepo(parents map[string]string) *commentRepoStub {
	repo := noopCommentRepo()
	repo.parentOfFn = func(_ context.Context, id string) (*string, error) {
		p, ok := parents[id]
		if !ok {
			return nil, models.ErrCommentNotFound
		}
		if p == "" {
			return nil, nil
		}
		return &p, nil
	}
	repo.findOneFn = func(_ context.Context, _ repository.CommentField, id string) (*models.Comment, error) {
		if _, ok := parents[id]; !ok {
			return nil, models.ErrCommentNotFound
		}
		return &models.Comment{ID: id, PostID: "p1", AuthorID: "u1"}, nil
	}
	return repo
}

func TestCommentService_Depth(t *testing.T) {
	t.Parallel()

	parents := map[string]string{
		"root":  "",
		"d1":    "root",
		"d2":    "d1",
		"d3":    "d2",
		"d4":    "d3",
		"d5":    "d4",
		"selfy": "selfy",
		"a":     "b",
		"b":     "a",
	}
	svc := NewCommentService(chainRepo(parents), noopPostRepo(), newUserRepoStub(), nil)
	ctx := context.Background()

	tests := []struct {
		id    string
		depth int
	}{
		{"root", 0},
		{"d1", 1},
		{"d2", 2},
		{"d3", 3},
		{"d4", 4},
		{"d5", 4}, // walk stops at the bound
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			t.Parallel()
			d, err := svc.Depth(ctx, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.depth, d)
		})
	}

	t.Run("cycles are reported", func(t *testing.T) {
		t.Parallel()
		_, err := svc.Depth(ctx, "selfy")
		assert.ErrorIs(t, err, models.ErrCommentCycle)
		_, err = svc.Depth(ctx, "a")
		assert.ErrorIs(t, err, models.ErrCommentCycle)
	})

	t.Run("unknown comment", func(t *testing.T) {
		t.Parallel()
		_, err := svc.Depth(ctx, "ghost")
		assert.ErrorIs(t, err, models.ErrCommentNotFound)
	})
}

func TestCommentService_Create_Validation(t *testing.T) {
	t.Parallel()

	users := newUserRepoStub(&models.User{ID: "u1", FullName: "One"})
	ctx := context.Background()

	t.Run("empty content", func(t *testing.T) {
		t.Parallel()
		svc := NewCommentService(noopCommentRepo(), noopPostRepo(), users, nil)
		_, err := svc.Create(ctx, CreateCommentInput{AuthorID: "u1", PostID: "p1", Content: "  "}, WithAuthorID)
		assertValidationError(t, err)
	})

	t.Run("content too long", func(t *testing.T) {
		t.Parallel()
		svc := NewCommentService(noopCommentRepo(), noopPostRepo(), users, nil)
		_, err := svc.Create(ctx, CreateCommentInput{AuthorID: "u1", PostID: "p1", Content: strings.Repeat("x", 10001)}, WithAuthorID)
		assertValidationError(t, err)
	})

	t.Run("unknown author", func(t *testing.T) {
		t.Parallel()
		svc := NewCommentService(noopCommentRepo(), noopPostRepo(), users, nil)
		_, err := svc.Create(ctx, CreateCommentInput{AuthorID: "nobody", PostID: "p1", Content: "hi"}, WithAuthorID)
		assert.ErrorIs(t, err, models.ErrAuthorNotFound)
	})

	t.Run("unknown post", func(t *testing.T) {
		t.Parallel()
		posts := noopPostRepo()
		posts.existsFn = func(_ context.Context, _ string) (bool, error) { return false, nil }
		svc := NewCommentService(noopCommentRepo(), posts, users, nil)
		_, err := svc.Create(ctx, CreateCommentInput{AuthorID: "u1", PostID: "p1", Content: "hi"}, WithAuthorID)
		assert.ErrorIs(t, err, models.ErrPostNotFound)
	})

	t.Run("unknown parent", func(t *testing.T) {
		t.Parallel()
		svc := NewCommentService(chainRepo(map[string]string{}), noopPostRepo(), users, nil)
		parent := "ghost"
		_, err := svc.Create(ctx, CreateCommentInput{AuthorID: "u1", PostID: "p1", Content: "hi", ParentCommentID: &parent}, WithAuthorID)
		assert.ErrorIs(t, err, models.ErrParentNotFound)
	})

	t.Run("parent on another post", func(t *testing.T) {
		t.Parallel()
		svc := NewCommentService(chainRepo(map[string]string{"root": ""}), noopPostRepo(), users, nil)
		parent := "root"
		_, err := svc.Create(ctx, CreateCommentInput{AuthorID: "u1", PostID: "p2", Content: "hi", ParentCommentID: &parent}, WithAuthorID)
		assert.ErrorIs(t, err, models.ErrParentNotFound)
	})
}

func TestCommentService_Create_DepthLimit(t *testing.T) {
	t.Parallel()

	parents := map[string]string{"root": "", "d1": "root", "d2": "d1", "d3": "d2"}
	users := newUserRepoStub(&models.User{ID: "u1", FullName: "One"})
	ctx := context.Background()

	for _, parent := range []string{"root", "d1", "d2"} {
		t.Run("reply to "+parent, func(t *testing.T) {
			t.Parallel()
			repo := chainRepo(parents)
			var created *models.Comment
			repo.createFn = func(_ context.Context, c *models.Comment) error {
				c.ID = "new"
				created = c
				return nil
			}
			lookup := repo.findOneFn
			repo.findOneFn = func(ctx context.Context, f repository.CommentField, id string) (*models.Comment, error) {
				if id == "new" {
					return created, nil
				}
				return lookup(ctx, f, id)
			}
			svc := NewCommentService(repo, noopPostRepo(), users, nil)

			p := parent
			resp, err := svc.Create(ctx, CreateCommentInput{AuthorID: "u1", PostID: "p1", Content: "hi", ParentCommentID: &p}, WithAuthorID)
			require.NoError(t, err)
			require.NotNil(t, created)
			assert.Equal(t, parent, *created.ParentCommentID)
			assert.Equal(t, "u1", resp.AuthorID)
			assert.Empty(t, resp.Author)
		})
	}

	t.Run("reply to depth 3", func(t *testing.T) {
		t.Parallel()
		repo := chainRepo(parents)
		repo.createFn = func(_ context.Context, _ *models.Comment) error {
			t.Fatal("must not insert past the depth limit")
			return nil
		}
		svc := NewCommentService(repo, noopPostRepo(), users, nil)

		p := "d3"
		_, err := svc.Create(ctx, CreateCommentInput{AuthorID: "u1", PostID: "p1", Content: "hi", ParentCommentID: &p}, WithAuthorID)
		assert.ErrorIs(t, err, models.ErrMaxDepthExceeded)
		assertValidationError(t, err)
	})
}

func TestCommentService_Projection(t *testing.T) {
	t.Parallel()

	repo := noopCommentRepo()
	repo.findAllFn = func(_ context.Context, f repository.CommentFilter) ([]*models.Comment, error) {
		return []*models.Comment{
			{ID: "c1", AuthorID: "u1", Author: models.User{FullName: "Ada"}, PostID: "p1"},
			{ID: "c2", AuthorID: "u2", Author: models.User{FullName: "Bob"}, PostID: "p1"},
		}, nil
	}
	repo.statsFn = func(_ context.Context, ids []string) (map[string]*repository.CommentStats, error) {
		assert.Equal(t, []string{"c1", "c2"}, ids)
		return map[string]*repository.CommentStats{
			"c1": {LikeCount: 2, DislikeCount: 1, ReplyCount: 1, ReplyIDs: []string{"c3"}},
		}, nil
	}
	svc := NewCommentService(repo, noopPostRepo(), newUserRepoStub(), nil)

	byName, err := svc.FindAllBy(context.Background(), nil, WithAuthorFullName)
	require.NoError(t, err)
	require.Len(t, byName, 2)
	assert.Equal(t, "Ada", byName[0].Author)
	assert.Empty(t, byName[0].AuthorID)
	assert.Equal(t, int64(2), byName[0].LikeCount)
	assert.Equal(t, []string{"c3"}, byName[0].ReplyIDs)

	// no stats row still yields zero counts and an empty reply list
	assert.Zero(t, byName[1].LikeCount)
	assert.Zero(t, byName[1].ReplyCount)
	assert.NotNil(t, byName[1].ReplyIDs)
	assert.Empty(t, byName[1].ReplyIDs)

	byID, err := svc.FindAllBy(context.Background(), nil, WithAuthorID)
	require.NoError(t, err)
	assert.Equal(t, "u2", byID[1].AuthorID)
	assert.Empty(t, byID[1].Author)
}

func TestCommentService_OwnerOrAdmin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	newSvc := func(deleted *string) *CommentService {
		repo := noopCommentRepo()
		repo.findOneFn = func(_ context.Context, _ repository.CommentField, id string) (*models.Comment, error) {
			return &models.Comment{ID: id, AuthorID: "owner"}, nil
		}
		repo.deleteFn = func(_ context.Context, id string) error {
			*deleted = id
			return nil
		}
		return NewCommentService(repo, noopPostRepo(), newUserRepoStub(), adminIf("admin"))
	}

	t.Run("stranger is forbidden", func(t *testing.T) {
		t.Parallel()
		var deleted string
		err := newSvc(&deleted).Delete(ctx, repository.CommentFieldID, "c1", "stranger")
		assertForbiddenError(t, err)
		assert.Empty(t, deleted)

		_, err = newSvc(&deleted).Update(ctx, repository.CommentFieldID, "c1", UpdateCommentInput{ActorID: "stranger", Content: "x"})
		assertForbiddenError(t, err)
	})

	t.Run("owner and admin may delete", func(t *testing.T) {
		t.Parallel()
		for _, actor := range []string{"owner", "admin"} {
			var deleted string
			require.NoError(t, newSvc(&deleted).Delete(ctx, repository.CommentFieldID, "c1", actor))
			assert.Equal(t, "c1", deleted)
		}
	})

	t.Run("update requires content", func(t *testing.T) {
		t.Parallel()
		var deleted string
		_, err := newSvc(&deleted).Update(ctx, repository.CommentFieldID, "c1", UpdateCommentInput{ActorID: "owner"})
		assertValidationError(t, err)
	})
}

func TestCommentService_GetReplies_UnknownComment(t *testing.T) {
	t.Parallel()

	svc := NewCommentService(chainRepo(map[string]string{}), noopPostRepo(), newUserRepoStub(), nil)
	_, err := svc.GetRepliesByCommentID(context.Background(), "ghost")
	assert.True(t, errors.Is(err, models.ErrCommentNotFound))
}
