package server

import (
	"github.com/gofiber/fiber/v2"

	"mingle/internal/models"
	"mingle/internal/service"
)

// Register handles POST /api/v1/auth/register. The body is multipart form
// data with an "avatar" file field; all fields are required.
func (s *Server) Register(c *fiber.Ctx) error {
	avatar, err := readUpload(c, "avatar", s.cfg.MaxUploadBytes())
	if err != nil {
		return mapServiceError(c, err)
	}

	user, token, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Name:         c.FormValue("name"),
		Email:        c.FormValue("email"),
		Password:     c.FormValue("password"),
		MobileNumber: c.FormValue("mobile_number"),
		Avatar:       avatar,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":  user,
		"token": token,
	})
}

// VerifyEmail handles GET /api/v1/auth/verify/:token.
func (s *Server) VerifyEmail(c *fiber.Ctx) error {
	if err := s.authService.VerifyEmail(c.UserContext(), c.Params("token")); err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Email verified, you can now log in"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/auth/login with email or username.
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, token, err := s.authService.Login(c.UserContext(), service.LoginInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"user":  user,
		"token": token,
	})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword handles POST /api/v1/auth/password/forgot.
func (s *Server) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.authService.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Reset email sent"})
}

type resetPasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ResetPassword handles PUT /api/v1/auth/password/reset/:token.
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, token, err := s.authService.ResetPassword(c.UserContext(),
		c.Params("token"), req.Password, req.ConfirmPassword)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"user":  user,
		"token": token,
	})
}

type updatePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// UpdatePassword handles PUT /api/v1/auth/password/update for the logged-in
// user.
func (s *Server) UpdatePassword(c *fiber.Ctx) error {
	var req updatePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	err := s.authService.UpdatePassword(c.UserContext(), currentUserID(c),
		req.OldPassword, req.NewPassword)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password updated"})
}
