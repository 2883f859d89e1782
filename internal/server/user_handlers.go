package server

import (
	"github.com/gofiber/fiber/v2"

	"mingle/internal/service"
)

const defaultUserPageSize = 8

// ListUsers handles GET /api/v1/users with search and pagination.
func (s *Server) ListUsers(c *fiber.Ctx) error {
	page := parsePagination(c, defaultUserPageSize)
	users, err := s.userService.List(c.UserContext(), c.Query("search"), page.Limit, page.Offset)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"users": users})
}

// Me handles GET /api/v1/users/me: the caller's profile with recent posts.
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.userService.Profile(c.UserContext(), currentUserID(c), 10)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// UpdateProfile handles PUT /api/v1/users/me. Multipart; every field is
// optional, an "avatar" file replaces the current one.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	avatar, err := readUpload(c, "avatar", s.cfg.MaxUploadBytes())
	if err != nil {
		return mapServiceError(c, err)
	}

	user, err := s.authService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:       currentUserID(c),
		Name:         c.FormValue("name"),
		MobileNumber: c.FormValue("mobile_number"),
		Avatar:       avatar,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// GetUser handles GET /api/v1/users/:id.
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.Profile(c.UserContext(), id, 10)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// FollowUser handles POST /api/v1/users/:id/follow: follow when not yet
// following, unfollow otherwise.
func (s *Server) FollowUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	action, err := s.graphService.FollowOrUnfollow(c.UserContext(), currentUserID(c), targetID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"action": action})
}

// UserPosts handles GET /api/v1/users/:id/posts.
func (s *Server) UserPosts(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	page := parsePagination(c, service.DefaultPostPageSize)
	posts, err := s.postService.ListByAuthor(c.UserContext(), id, c.Query("search"),
		page.Limit, page.Offset, currentUserID(c))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts})
}

// ToggleRole handles PUT /api/v1/users/:id/role (admin only): flips a user
// between the user and admin roles.
func (s *Server) ToggleRole(c *fiber.Ctx) error {
	if err := s.requireAdmin(c, currentUserID(c)); err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.ToggleRole(c.UserContext(), id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// DeleteUser handles DELETE /api/v1/users/:id (admin only): removes the user
// and everything hanging off them.
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	if err := s.requireAdmin(c, currentUserID(c)); err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.graphService.DeleteUserCascade(c.UserContext(), id); err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User deleted"})
}
