package server

import (
	"net/url"

	"usof/internal/models"
	"usof/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListUsers handles GET /api/users (admin)
func (s *Server) ListUsers(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	users, total, err := s.userService.List(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{
		"users":  users,
		"total":  total,
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetByID(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		FullName       *string `json:"fullName"`
		Email          *string `json:"email"`
		Password       *string `json:"password"`
		ProfilePicture *string `json:"profilePicture"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequestBody(c)
	}

	me := currentUserID(c)
	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		ActorID:        me,
		UserID:         me,
		FullName:       req.FullName,
		Email:          req.Email,
		Password:       req.Password,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(user)
}

// GetUser handles GET /api/users/:id
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.userService.GetByID(c.UserContext(), id)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(user)
}

// GetUserByUsername handles GET /api/users/username/:username
func (s *Server) GetUserByUsername(c *fiber.Ctx) error {
	user, err := s.userService.GetByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(user)
}

// DeleteUser handles DELETE /api/users/:id (self or admin)
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.userService.Delete(c.UserContext(), id, currentUserID(c)); err != nil {
		return respondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetUserByEmail handles GET /api/users/email/:email
// @Summary Look a user up by email address
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param email path string true "Email address"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /users/email/{email} [get]
func (s *Server) GetUserByEmail(c *fiber.Ctx) error {
	email, err := url.PathUnescape(c.Params("email"))
	if err != nil {
		return respondWithAppError(c, models.NewValidationError("Invalid email"))
	}
	user, err := s.userService.GetByEmail(c.UserContext(), email)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(user)
}
