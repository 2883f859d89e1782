package server

import (
	"github.com/gofiber/fiber/v2"

	"mingle/internal/models"
	"mingle/internal/service"
)

// CreatePost handles POST /api/v1/posts. Multipart with a required "image"
// file field.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	image, err := readUpload(c, "image", s.cfg.MaxUploadBytes())
	if err != nil {
		return mapServiceError(c, err)
	}

	post, err := s.postService.Create(c.UserContext(), service.CreatePostInput{
		AuthorID:    currentUserID(c),
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Image:       image,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"post": post})
}

// ListPosts handles GET /api/v1/posts: public feed, newest first, with
// title/description search.
func (s *Server) ListPosts(c *fiber.Ctx) error {
	page := parsePagination(c, service.DefaultPostPageSize)
	posts, err := s.postService.List(c.UserContext(), c.Query("search"),
		page.Limit, page.Offset, currentUserID(c))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts})
}

// MyPosts handles GET /api/v1/posts/me.
func (s *Server) MyPosts(c *fiber.Ctx) error {
	page := parsePagination(c, service.DefaultPostPageSize)
	userID := currentUserID(c)
	posts, err := s.postService.ListByAuthor(c.UserContext(), userID, c.Query("search"),
		page.Limit, page.Offset, userID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts})
}

// Feed handles GET /api/v1/posts/feed: posts from authors the caller follows.
func (s *Server) Feed(c *fiber.Ctx) error {
	page := parsePagination(c, service.DefaultPostPageSize)
	posts, err := s.postService.Feed(c.UserContext(), currentUserID(c), c.Query("search"),
		page.Limit, page.Offset)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts})
}

// ViewPost handles GET /api/v1/posts/:id.
func (s *Server) ViewPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.Get(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"post": post})
}

// UpdatePost handles PUT /api/v1/posts/:id. Multipart; "image" is optional
// and replaces the current asset.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	image, err := readUpload(c, "image", s.cfg.MaxUploadBytes())
	if err != nil {
		return mapServiceError(c, err)
	}

	post, err := s.postService.Update(c.UserContext(), service.UpdatePostInput{
		PostID:      id,
		ActorID:     currentUserID(c),
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Image:       image,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"post": post})
}

// DeletePost handles DELETE /api/v1/posts/:id. The author deletes their own
// post; an admin deletes any post.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	userID := currentUserID(c)
	admin, err := s.isAdminByUserID(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	if err := s.graphService.DeletePostCascade(c.UserContext(), id, userID, admin); err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// ToggleLike handles POST /api/v1/posts/:id/like.
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	action, err := s.interactionService.ToggleLike(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"action": action})
}
