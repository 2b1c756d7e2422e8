package server

import (
	"fmt"
	"net/http"
	"testing"

	"usof/internal/models"
	"usof/internal/service"
	"usof/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPosts(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "writer")
	golang := testutil.CreateCategory(t, env.db, "golang")
	rust := testutil.CreateCategory(t, env.db, "rust")
	for i := 0; i < 12; i++ {
		cat := golang
		if i%3 == 0 {
			cat = rust
		}
		testutil.CreatePost(t, env.db, author, fmt.Sprintf("Post %02d", i), cat)
	}

	t.Run("first page", func(t *testing.T) {
		status, data := env.do(t, http.MethodGet, "/api/posts?limit=5", "", nil)
		require.Equal(t, http.StatusOK, status)
		var page service.PaginatedPosts
		decode(t, data, &page)
		assert.Equal(t, int64(12), page.Total)
		assert.Equal(t, 3, page.TotalPages)
		assert.Len(t, page.Posts, 5)
	})

	t.Run("search and category", func(t *testing.T) {
		status, data := env.do(t, http.MethodGet, "/api/posts?search=post%200&category=rust&sort=date&order=asc", "", nil)
		require.Equal(t, http.StatusOK, status)
		var page service.PaginatedPosts
		decode(t, data, &page)
		assert.Equal(t, int64(4), page.Total)
		titles := make([]string, 0, len(page.Posts))
		for _, p := range page.Posts {
			titles = append(titles, p.Title)
			assert.Equal(t, []string{"rust"}, p.CategoryTitles)
		}
		assert.ElementsMatch(t, []string{"Post 00", "Post 03", "Post 06", "Post 09"}, titles)
	})

	t.Run("user posts", func(t *testing.T) {
		status, data := env.do(t, http.MethodGet, "/api/posts/user/"+author.ID, "", nil)
		require.Equal(t, http.StatusOK, status)
		var posts []service.PostResponse
		decode(t, data, &posts)
		assert.Len(t, posts, 12)
	})

	t.Run("bad id", func(t *testing.T) {
		status, _ := env.do(t, http.MethodGet, "/api/posts/123", "", nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestPostLifecycle(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "writer")
	stranger := testutil.CreateUser(t, env.db, "stranger")
	cat := testutil.CreateCategory(t, env.db, "general")
	token := env.tokenFor(t, author)

	status, data := env.do(t, http.MethodPost, "/api/posts", token, fiber.Map{
		"title":       "Hello",
		"content":     "First post",
		"categoryIds": []string{cat.ID},
	})
	require.Equal(t, http.StatusCreated, status, string(data))
	var created service.PostResponse
	decode(t, data, &created)
	assert.Equal(t, author.ID, created.AuthorID)
	assert.Equal(t, []string{"general"}, created.CategoryTitles)

	status, data = env.do(t, http.MethodPost, "/api/posts", token, fiber.Map{
		"title":       "Broken",
		"content":     "x",
		"categoryIds": []string{"00000000-0000-0000-0000-000000000000"},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "SOME_CATEGORIES_NOT_FOUND", errorBody(t, data).Reason)

	status, data = env.do(t, http.MethodPost, "/api/posts", token, fiber.Map{
		"title":       "Malformed",
		"content":     "x",
		"categoryIds": []string{"a", "b"},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "SOME_CATEGORIES_NOT_FOUND", errorBody(t, data).Reason)

	status, _ = env.do(t, http.MethodPut, "/api/posts/"+created.ID, env.tokenFor(t, stranger), fiber.Map{"title": "Mine now"})
	assert.Equal(t, http.StatusForbidden, status)

	status, data = env.do(t, http.MethodPut, "/api/posts/"+created.ID, token, fiber.Map{"categoryIds": []string{}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, errorBody(t, data).Code)

	status, data = env.do(t, http.MethodPut, "/api/posts/"+created.ID, token, fiber.Map{"title": "Hello again"})
	require.Equal(t, http.StatusOK, status)
	var updated service.PostResponse
	decode(t, data, &updated)
	assert.Equal(t, "Hello again", updated.Title)
	assert.Equal(t, []string{"general"}, updated.CategoryTitles)

	status, _ = env.do(t, http.MethodDelete, "/api/posts/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, data = env.do(t, http.MethodGet, "/api/posts/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "POST_NOT_FOUND", errorBody(t, data).Reason)
}
