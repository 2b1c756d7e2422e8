package server

import (
	"usof/internal/models"
	"usof/internal/repository"
	"usof/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts?page&limit&search&sort&order&category
// @Summary List active posts
// @Tags posts
// @Produce json
// @Param page query int false "Page, from 1"
// @Param limit query int false "Page size, max 100"
// @Param search query string false "Substring of the title or author name"
// @Param sort query string false "likes, dislikes, comments or date"
// @Param order query string false "ASC or DESC"
// @Param category query string false "Category title"
// @Success 200 {object} service.PaginatedPosts
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	result, err := s.postService.GetPaginatedPosts(c.UserContext(), service.PostListParams{
		Page:       c.QueryInt("page", 1),
		Limit:      c.QueryInt("limit", 0),
		Search:     c.Query("search"),
		SortOption: c.Query("sort"),
		SortOrder:  c.Query("order"),
		Category:   c.Query("category"),
	})
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(result)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.FindOneBy(c.UserContext(), repository.PostFieldID, id)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(post)
}

// GetUserPosts handles GET /api/posts/user/:userId
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}
	posts, err := s.postService.GetAllPostsByUser(c.UserContext(), userID)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(posts)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Tags posts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{title=string,content=string,categoryIds=[]string} true "New post"
// @Success 201 {object} service.PostResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Title       string   `json:"title"`
		Content     string   `json:"content"`
		CategoryIDs []string `json:"categoryIds"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequestBody(c)
	}

	post, err := s.postService.Create(c.UserContext(), service.CreatePostInput{
		Title:       req.Title,
		Content:     req.Content,
		AuthorID:    currentUserID(c),
		CategoryIDs: req.CategoryIDs,
	})
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id (author or admin)
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Title       *string            `json:"title"`
		Content     *string            `json:"content"`
		Status      *models.PostStatus `json:"status"`
		CategoryIDs []string           `json:"categoryIds"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequestBody(c)
	}

	post, err := s.postService.Update(c.UserContext(), repository.PostFieldID, id, service.UpdatePostInput{
		ActorID:     currentUserID(c),
		Title:       req.Title,
		Content:     req.Content,
		Status:      req.Status,
		CategoryIDs: req.CategoryIDs,
	})
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id (author or admin)
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.Delete(c.UserContext(), repository.PostFieldID, id, currentUserID(c)); err != nil {
		return respondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
