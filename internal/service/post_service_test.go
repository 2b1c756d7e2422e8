package service

import (
	"context"
	"strings"
	"testing"

	"usof/internal/models"
	"usof/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_Create_Validation(t *testing.T) {
	t.Parallel()

	users := newUserRepoStub(&models.User{ID: "u1"})
	svc := NewPostService(noopPostRepo(), users, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreatePostInput
	}{
		{
			name:  "empty title",
			input: CreatePostInput{AuthorID: "u1", Content: "c", CategoryIDs: []string{"c1"}},
		},
		{
			name:  "title too long",
			input: CreatePostInput{AuthorID: "u1", Title: strings.Repeat("x", 301), Content: "c", CategoryIDs: []string{"c1"}},
		},
		{
			name:  "empty content",
			input: CreatePostInput{AuthorID: "u1", Title: "T", CategoryIDs: []string{"c1"}},
		},
		{
			name:  "content too long",
			input: CreatePostInput{AuthorID: "u1", Title: "T", Content: strings.Repeat("x", 50001), CategoryIDs: []string{"c1"}},
		},
		{
			name:  "no categories",
			input: CreatePostInput{AuthorID: "u1", Title: "T", Content: "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.Create(ctx, tt.input)
			assertValidationError(t, err)
		})
	}

	t.Run("unknown author", func(t *testing.T) {
		t.Parallel()
		_, err := svc.Create(ctx, CreatePostInput{AuthorID: "ghost", Title: "T", Content: "c", CategoryIDs: []string{"c1"}})
		assert.ErrorIs(t, err, models.ErrAuthorNotFound)
	})
}

func TestPostService_Create_PassesCategoriesThrough(t *testing.T) {
	t.Parallel()

	repo := noopPostRepo()
	var gotIDs []string
	repo.createFn = func(_ context.Context, p *models.Post, ids []string) error {
		assert.Equal(t, models.PostStatusActive, p.Status)
		p.ID = "p1"
		gotIDs = ids
		return nil
	}
	repo.findOneFn = func(_ context.Context, _ repository.PostField, id string) (*models.Post, error) {
		return &models.Post{ID: id, Title: "T", Categories: []models.Category{{Title: "go"}}}, nil
	}
	svc := NewPostService(repo, newUserRepoStub(&models.User{ID: "u1"}), nil)

	resp, err := svc.Create(context.Background(), CreatePostInput{AuthorID: "u1", Title: "T", Content: "c", CategoryIDs: []string{"c1", "c1"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c1"}, gotIDs)
	assert.Equal(t, "p1", resp.ID)
	assert.Equal(t, []string{"go"}, resp.CategoryTitles)
	assert.Equal(t, "Unknown", resp.Author, "missing author falls back")
}

func TestPostService_GetPaginatedPosts_Normalizes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params PostListParams
		want   repository.PostQuery
		page   int
		limit  int
	}{
		{
			name:   "defaults",
			params: PostListParams{},
			want:   repository.PostQuery{Offset: 0, Limit: 10},
			page:   1, limit: 10,
		},
		{
			name:   "page below one and oversized limit",
			params: PostListParams{Page: -3, Limit: 500},
			want:   repository.PostQuery{Offset: 0, Limit: 100},
			page:   1, limit: 100,
		},
		{
			name:   "third page ascending by likes",
			params: PostListParams{Page: 3, Limit: 5, SortOption: "Likes", SortOrder: "asc", Search: " go ", Category: "news"},
			want:   repository.PostQuery{Offset: 10, Limit: 5, SortBy: "likes", Asc: true, Search: "go", Category: "news"},
			page:   3, limit: 5,
		},
		{
			name:   "unknown order is descending",
			params: PostListParams{SortOrder: "sideways"},
			want:   repository.PostQuery{Limit: 10},
			page:   1, limit: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo := noopPostRepo()
			var got repository.PostQuery
			repo.listPaginatedFn = func(_ context.Context, q repository.PostQuery) ([]*models.Post, int64, error) {
				got = q
				return []*models.Post{{ID: "a"}}, 21, nil
			}
			svc := NewPostService(repo, newUserRepoStub(), nil)

			res, err := svc.GetPaginatedPosts(context.Background(), tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.page, res.Page)
			assert.Equal(t, tt.limit, res.Limit)
			assert.Equal(t, int64(21), res.Total)
			assert.Equal(t, int((21+tt.limit-1)/tt.limit), res.TotalPages)
		})
	}
}

func TestPostService_Update(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	newSvc := func(got *repository.PostUpdate) *PostService {
		repo := noopPostRepo()
		repo.findOneFn = func(_ context.Context, _ repository.PostField, id string) (*models.Post, error) {
			return &models.Post{ID: id, AuthorID: "owner"}, nil
		}
		repo.updateFn = func(_ context.Context, _ string, upd repository.PostUpdate) error {
			*got = upd
			return nil
		}
		return NewPostService(repo, newUserRepoStub(), adminIf("admin"))
	}

	t.Run("empty category set is rejected", func(t *testing.T) {
		t.Parallel()
		var got repository.PostUpdate
		_, err := newSvc(&got).Update(ctx, repository.PostFieldID, "p1", UpdatePostInput{ActorID: "owner", CategoryIDs: []string{}})
		assertValidationError(t, err)
	})

	t.Run("invalid status", func(t *testing.T) {
		t.Parallel()
		var got repository.PostUpdate
		status := models.PostStatus("ARCHIVED")
		_, err := newSvc(&got).Update(ctx, repository.PostFieldID, "p1", UpdatePostInput{ActorID: "owner", Status: &status})
		assertValidationError(t, err)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		t.Parallel()
		var got repository.PostUpdate
		title := "new"
		_, err := newSvc(&got).Update(ctx, repository.PostFieldID, "p1", UpdatePostInput{ActorID: "stranger", Title: &title})
		assertForbiddenError(t, err)
		assert.Nil(t, got.Title)
	})

	t.Run("admin replaces categories", func(t *testing.T) {
		t.Parallel()
		var got repository.PostUpdate
		_, err := newSvc(&got).Update(ctx, repository.PostFieldID, "p1", UpdatePostInput{ActorID: "admin", CategoryIDs: []string{"c2"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"c2"}, got.CategoryIDs)
		assert.Nil(t, got.Title)
	})
}

func TestPostService_GetAllPostsByUser(t *testing.T) {
	t.Parallel()

	repo := noopPostRepo()
	repo.listByAuthorFn = func(_ context.Context, authorID string, status models.PostStatus) ([]*models.Post, error) {
		assert.Equal(t, models.PostStatusActive, status)
		return []*models.Post{{ID: "p1", AuthorID: authorID, Author: models.User{FullName: "Ada"}}}, nil
	}
	svc := NewPostService(repo, newUserRepoStub(&models.User{ID: "u1"}), nil)

	posts, err := svc.GetAllPostsByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Ada", posts[0].Author)

	_, err = svc.GetAllPostsByUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, models.ErrAuthorNotFound)
}
