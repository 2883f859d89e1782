// Package server contains the HTTP handlers and route wiring.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"unicode"

	"github.com/gofiber/fiber/v2"

	"mingle/internal/models"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const maxPaginationLimit = 100

// parsePagination extracts limit and offset query parameters with the given
// default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{Limit: limit, Offset: offset}
}

// parseID extracts a route parameter by name as a positive uint. On failure
// it writes a 400 JSON response and returns errResponseWritten; callers
// should check: if err != nil { return nil }.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "commentId" -> "comment ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		prefix := param[:len(param)-2]
		words := splitCamel(prefix)
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// currentUserID reads the authenticated user from locals; 0 when the route
// ran without the auth middleware.
func currentUserID(c *fiber.Ctx) uint {
	if id, ok := c.Locals("userID").(uint); ok {
		return id
	}
	return 0
}

// isAdminByUserID checks the user's role in the database.
func (s *Server) isAdminByUserID(ctx context.Context, userID uint) (bool, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Select("role").First(&user, userID).Error; err != nil {
		return false, err
	}
	return user.IsAdmin(), nil
}

// requireAdmin writes the error response when the caller is not an admin and
// returns errResponseWritten.
func (s *Server) requireAdmin(c *fiber.Ctx, userID uint) error {
	admin, err := s.isAdminByUserID(c.UserContext(), userID)
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		return errResponseWritten
	}
	if !admin {
		_ = models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Admin access required"))
		return errResponseWritten
	}
	return nil
}

// mapServiceError translates service errors into HTTP responses by AppError
// code.
func mapServiceError(c *fiber.Ctx, err error) error {
	appErr := models.AsAppError(err)
	if appErr == nil {
		slog.ErrorContext(c.UserContext(), "unclassified handler error", "error", err)
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	var status int
	switch appErr.Code {
	case models.CodeValidation:
		status = fiber.StatusBadRequest
	case models.CodeUnauthorized:
		status = fiber.StatusUnauthorized
	case models.CodeForbidden:
		status = fiber.StatusForbidden
	case models.CodeNotFound:
		status = fiber.StatusNotFound
	case models.CodeUpstreamFailure:
		status = fiber.StatusBadGateway
	default:
		status = fiber.StatusInternalServerError
	}

	if status >= fiber.StatusInternalServerError {
		slog.ErrorContext(c.UserContext(), "handler error", "code", appErr.Code, "error", appErr)
	}
	return models.RespondWithError(c, status, appErr)
}

// readUpload pulls an optional multipart file field into memory.
func readUpload(c *fiber.Ctx, field string, maxBytes int) ([]byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}
	if maxBytes > 0 && header.Size > int64(maxBytes) {
		return nil, models.NewValidationError("Image file is too large")
	}

	file, err := header.Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer file.Close()

	buf, err := io.ReadAll(file)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return buf, nil
}
