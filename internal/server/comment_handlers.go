package server

import (
	"github.com/gofiber/fiber/v2"

	"mingle/internal/models"
	"mingle/internal/service"
)

type upsertCommentRequest struct {
	Content string `json:"content"`
}

// UpsertComment handles PUT /api/v1/posts/:id/comment. Each author has one
// comment per post; commenting again replaces it.
func (s *Server) UpsertComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req upsertCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, action, err := s.interactionService.UpsertComment(c.UserContext(),
		postID, currentUserID(c), req.Content)
	if err != nil {
		return mapServiceError(c, err)
	}

	status := fiber.StatusOK
	if action == service.CommentCreated {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"comment": comment,
		"action":  action,
	})
}

type deleteCommentRequest struct {
	CommentID uint `json:"comment_id"`
}

// DeleteComment handles DELETE /api/v1/posts/:id/comment. The post author
// names the comment to delete via comment_id; everyone else deletes their own
// comment.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req deleteCommentRequest
	// Body is optional for non-authors.
	_ = c.BodyParser(&req)

	err = s.interactionService.DeleteComment(c.UserContext(), postID, currentUserID(c), req.CommentID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted"})
}

// ListComments handles GET /api/v1/posts/:id/comments.
func (s *Server) ListComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	comments, err := s.interactionService.ListComments(c.UserContext(), postID, currentUserID(c))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"comments": comments})
}
