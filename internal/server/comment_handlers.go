package server

import (
	"usof/internal/repository"
	"usof/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetComments handles GET /api/comments, optionally narrowed by ?authorId=
// @Summary List comments
// @Tags comments
// @Produce json
// @Param authorId query string false "Only comments by this user"
// @Success 200 {array} service.CommentResponse
// @Router /comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	var filter *repository.CommentFilter
	if author := c.Query("authorId"); author != "" {
		filter = &repository.CommentFilter{Field: repository.CommentFieldAuthorID, Value: author}
	}
	comments, err := s.commentService.FindAllBy(c.UserContext(), filter, service.WithAuthorFullName)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(comments)
}

// GetPostComments handles GET /api/comments/post/:postId (root comments only)
func (s *Server) GetPostComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	comments, err := s.commentService.GetCommentsByPostID(c.UserContext(), postID)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(comments)
}

// GetCommentReplies handles GET /api/comments/:id/replies (direct children only)
func (s *Server) GetCommentReplies(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	replies, err := s.commentService.GetRepliesByCommentID(c.UserContext(), id)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(replies)
}

// GetComment handles GET /api/comments/:id
func (s *Server) GetComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	comment, err := s.commentService.FindOneBy(c.UserContext(), repository.CommentFieldID, id, service.WithAuthorFullName)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(comment)
}

// CreateComment handles POST /api/comments
// @Summary Comment on a post or reply to a comment
// @Tags comments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{postId=string,content=string,parentCommentId=string} true "New comment"
// @Success 201 {object} service.CommentResponse
// @Failure 400 {object} models.ErrorResponse "MAX_DEPTH_EXCEEDED among others"
// @Failure 404 {object} models.ErrorResponse
// @Router /comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req struct {
		PostID          string  `json:"postId"`
		Content         string  `json:"content"`
		ParentCommentID *string `json:"parentCommentId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequestBody(c)
	}

	comment, err := s.commentService.Create(c.UserContext(), service.CreateCommentInput{
		Content:         req.Content,
		AuthorID:        currentUserID(c),
		PostID:          req.PostID,
		ParentCommentID: req.ParentCommentID,
	}, service.WithAuthorID)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// UpdateComment handles PUT /api/comments/:id (author or admin)
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequestBody(c)
	}

	comment, err := s.commentService.Update(c.UserContext(), repository.CommentFieldID, id, service.UpdateCommentInput{
		ActorID: currentUserID(c),
		Content: req.Content,
	})
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment handles DELETE /api/comments/:id (author or admin)
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.commentService.Delete(c.UserContext(), repository.CommentFieldID, id, currentUserID(c)); err != nil {
		return respondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
