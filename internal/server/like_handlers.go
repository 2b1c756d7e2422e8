package server

import (
	"usof/internal/models"
	"usof/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// parseTarget reads the :kind/:id pair. On failure it writes a 400 response
// and returns errResponseWritten.
func parseTarget(c *fiber.Ctx) (models.ReactionTarget, error) {
	id, err := parseID(c, "id")
	if err != nil {
		return models.ReactionTarget{}, err
	}
	target, err := models.NewReactionTarget(c.Params("kind"), id)
	if err != nil {
		_ = respondWithAppError(c, err)
		return models.ReactionTarget{}, errResponseWritten
	}
	return target, nil
}

// parseLikeBody reads the optional {"type"} body, defaulting to LIKE. On
// failure it writes a 400 response and returns errResponseWritten.
func parseLikeBody(c *fiber.Ctx) (models.LikeType, error) {
	var req struct {
		Type string `json:"type"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			_ = badRequestBody(c)
			return "", errResponseWritten
		}
	}
	if req.Type == "" {
		return models.LikeTypeLike, nil
	}
	likeType, err := models.ParseLikeType(req.Type)
	if err != nil {
		_ = respondWithAppError(c, err)
		return "", errResponseWritten
	}
	return likeType, nil
}

var toggleStatus = map[repository.ToggleAction]int{
	repository.ToggleCreated: fiber.StatusCreated,
	repository.ToggleUpdated: fiber.StatusOK,
	repository.ToggleDeleted: fiber.StatusNoContent,
}

// ToggleReaction handles POST /api/likes/:kind/:id
// @Summary Like or dislike a post or comment
// @Description Same type twice removes the reaction; the opposite type flips it.
// @Tags likes
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param kind path string true "post or comment"
// @Param id path string true "Target id"
// @Param request body object{type=string} false "LIKE (default) or DISLIKE"
// @Success 201 {object} service.ToggleResult
// @Success 200 {object} service.ToggleResult
// @Success 204
// @Router /likes/{kind}/{id} [post]
func (s *Server) ToggleReaction(c *fiber.Ctx) error {
	target, err := parseTarget(c)
	if err != nil {
		return nil
	}

	likeType, err := parseLikeBody(c)
	if err != nil {
		return nil
	}

	result, err := s.reactionService.Toggle(c.UserContext(), currentUserID(c), target, likeType)
	if err != nil {
		return respondWithAppError(c, err)
	}

	status := toggleStatus[result.Action]
	if status == fiber.StatusNoContent {
		return c.SendStatus(status)
	}
	return c.Status(status).JSON(result)
}

// CreateReaction handles PUT /api/likes/:kind/:id
// @Summary React to a post or comment without toggling
// @Description Fails with 409 when the caller already reacted to the target.
// @Tags likes
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param kind path string true "post or comment"
// @Param id path string true "Target id"
// @Param request body object{type=string} false "LIKE (default) or DISLIKE"
// @Success 201 {object} service.LikeResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /likes/{kind}/{id} [put]
func (s *Server) CreateReaction(c *fiber.Ctx) error {
	target, err := parseTarget(c)
	if err != nil {
		return nil
	}
	likeType, err := parseLikeBody(c)
	if err != nil {
		return nil
	}

	like, err := s.reactionService.Create(c.UserContext(), currentUserID(c), target, likeType)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(like)
}

// CheckReaction handles GET /api/likes/:kind/:id/check
func (s *Server) CheckReaction(c *fiber.Ctx) error {
	target, err := parseTarget(c)
	if err != nil {
		return nil
	}
	like, err := s.reactionService.FindUserLikeForTarget(c.UserContext(), currentUserID(c), target)
	if err != nil {
		return respondWithAppError(c, err)
	}

	var reaction *models.LikeType
	if like != nil {
		reaction = &like.Type
	}
	return c.JSON(fiber.Map{"userReaction": reaction})
}

// CountReactions handles GET /api/likes/:kind/:id/count
func (s *Server) CountReactions(c *fiber.Ctx) error {
	target, err := parseTarget(c)
	if err != nil {
		return nil
	}
	counts, err := s.reactionService.CountsForTarget(c.UserContext(), target)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(counts)
}

// DeleteReaction handles DELETE /api/likes/:id (author or admin)
func (s *Server) DeleteReaction(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.reactionService.Delete(c.UserContext(), id, currentUserID(c)); err != nil {
		return respondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
