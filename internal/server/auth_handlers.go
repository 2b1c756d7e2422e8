package server

import (
	"time"

	"usof/internal/middleware"
	"usof/internal/models"
	"usof/internal/service"

	"github.com/gofiber/fiber/v2"
)

type authResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

func (s *Server) issueFor(c *fiber.Ctx, status int, user *models.User) error {
	ttl := time.Duration(s.config.JWTTTLHours) * time.Hour
	token, claims, err := middleware.IssueToken(s.config.JWTSecret, user.ID, string(user.Role), ttl)
	if err != nil {
		return respondWithAppError(c, models.NewInternalError(err))
	}
	return c.Status(status).JSON(authResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      user,
	})
}

// Register handles POST /api/auth/register
// @Summary User registration
// @Description Register a new user account and return a JWT
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,email=string,password=string,fullName=string} true "Registration request"
// @Success 201 {object} object{token=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"fullName"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequestBody(c)
	}

	user, err := s.userService.Register(c.UserContext(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		return respondWithAppError(c, err)
	}
	if err := s.accountService.SendVerification(c.UserContext(), user); err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "verification email not sent", "error", err)
	}
	return s.issueFor(c, fiber.StatusCreated, user)
}

// Login handles POST /api/auth/login
// @Summary User login
// @Description Authenticate by username or email and return a JWT
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{login=string,password=string} true "Login credentials"
// @Success 200 {object} object{token=string,user=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequestBody(c)
	}

	user, err := s.userService.Login(c.UserContext(), service.LoginInput{Login: req.Login, Password: req.Password})
	if err != nil {
		return respondWithAppError(c, err)
	}
	return s.issueFor(c, fiber.StatusOK, user)
}

// Logout handles POST /api/auth/logout
// @Summary Revoke the presented token
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	token, _ := c.Locals("token").(string)
	claims := currentClaims(c)
	if claims == nil {
		return respondWithAppError(c, models.NewUnauthorizedError("Authorization required"))
	}
	if err := s.userService.Logout(c.UserContext(), token, claims.Remaining()); err != nil {
		return respondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Verify handles GET /api/auth/verify
// @Summary Check a token and return its claims
// @Tags auth
// @Security BearerAuth
// @Success 200 {object} object{userId=string,role=string,expiresAt=string}
// @Router /auth/verify [get]
func (s *Server) Verify(c *fiber.Ctx) error {
	claims := currentClaims(c)
	if claims == nil {
		return respondWithAppError(c, models.NewUnauthorizedError("Authorization required"))
	}
	return c.JSON(fiber.Map{
		"userId":    claims.UserID(),
		"role":      claims.Role,
		"expiresAt": claims.ExpiresAt.Time,
	})
}

// VerifyEmail handles GET /api/auth/verify-email?token=
// @Summary Confirm an email address from a mailed link
// @Tags auth
// @Produce json
// @Param token query string true "Verification token"
// @Success 200 {object} object{message=string,user=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/verify-email [get]
func (s *Server) VerifyEmail(c *fiber.Ctx) error {
	user, already, err := s.accountService.VerifyEmail(c.UserContext(), c.Query("token"))
	if err != nil {
		return respondWithAppError(c, err)
	}
	msg := "Email successfully verified"
	if already {
		msg = "Email is already verified"
	}
	return c.JSON(fiber.Map{"message": msg, "user": user})
}

// ResendVerification handles POST /api/auth/verify-email/resend
// @Summary Mail a fresh verification link to the caller
// @Tags auth
// @Security BearerAuth
// @Success 202
// @Router /auth/verify-email/resend [post]
func (s *Server) ResendVerification(c *fiber.Ctx) error {
	if err := s.accountService.ResendVerification(c.UserContext(), currentUserID(c)); err != nil {
		return respondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusAccepted)
}

// RequestPasswordReset handles POST /api/auth/password-reset-request
// @Summary Mail a password reset link
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string} true "Account email"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /auth/password-reset-request [post]
func (s *Server) RequestPasswordReset(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequestBody(c)
	}
	if err := s.accountService.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password reset email has been sent"})
}

// ResetPassword handles POST /api/auth/password-reset
// @Summary Set a new password with a mailed reset token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{token=string,password=string} true "Reset token and new password"
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/password-reset [post]
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequestBody(c)
	}
	user, err := s.accountService.ResetPassword(c.UserContext(), req.Token, req.Password)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(user)
}
