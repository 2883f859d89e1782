package middleware

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"mingle/internal/config"
	"mingle/internal/models"
)

const (
	tokenIssuer   = "mingle-api"
	tokenAudience = "mingle-clients"
)

var cfg *config.Config

// InitMiddleware wires the loaded config into the auth middleware and token
// helpers. Must run before routes are registered.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// GenerateToken issues a signed HS256 JWT for the given user.
func GenerateToken(userID uint, username string) (string, error) {
	if cfg == nil || cfg.JWTSecret == "" {
		return "", fmt.Errorf("jwt secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"exp":      now.Add(cfg.TokenLifetime).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8]),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// AuthRequired validates the bearer token and stores the authenticated user id
// in c.Locals("userID").
func AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg == nil || cfg.JWTSecret == "" {
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(fmt.Errorf("jwt secret not configured")))
		}

		header := c.Get("Authorization")
		if header == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Missing authorization header"))
		}

		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid authorization header format"))
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(cfg.JWTSecret), nil
		},
			jwt.WithIssuer(tokenIssuer),
			jwt.WithAudience(tokenAudience),
			jwt.WithExpirationRequired(),
		)
		if err != nil || !token.Valid {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token claims"))
		}
		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token subject"))
		}
		userID, err := strconv.ParseUint(sub, 10, 64)
		if err != nil || userID == 0 {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token subject"))
		}

		c.Locals("userID", uint(userID))
		WithUserID(c, uint(userID))
		return c.Next()
	}
}
