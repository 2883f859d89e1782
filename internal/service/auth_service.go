package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"mingle/internal/config"
	"mingle/internal/mailer"
	"mingle/internal/media"
	"mingle/internal/middleware"
	"mingle/internal/models"
	"mingle/internal/repository"
	"mingle/internal/validation"
)

const resetTokenLifetime = 15 * time.Minute

// AuthService owns registration, email verification, login and the password
// flows.
type AuthService struct {
	users repository.UserRepository
	media media.Store
	mail  mailer.Mailer
	cfg   *config.Config
}

// NewAuthService returns an AuthService.
func NewAuthService(users repository.UserRepository, store media.Store, mail mailer.Mailer, cfg *config.Config) *AuthService {
	return &AuthService{users: users, media: store, mail: mail, cfg: cfg}
}

// RegisterInput carries the registration form. Avatar is the raw uploaded
// image; every field is required.
type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	MobileNumber string
	Avatar       []byte
}

// Register creates an account: stores the avatar, generates a unique username
// from the name, mails a verification link and returns the user with a signed
// token. The account cannot log in until the email is verified.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	if in.Name == "" || in.Email == "" || in.Password == "" || in.MobileNumber == "" || len(in.Avatar) == 0 {
		return nil, "", models.NewValidationError("Please enter all fields")
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, "", models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, "", models.NewValidationError(err.Error())
	}
	if err := validation.ValidateMobileNumber(in.MobileNumber); err != nil {
		return nil, "", models.NewValidationError(err.Error())
	}

	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", models.NewValidationError("User already registered, please login")
	}

	asset, err := s.media.Upload(ctx, in.Avatar, "avatars")
	if err != nil {
		return nil, "", upstreamOr(err, "Could not store avatar")
	}

	username, err := s.uniqueUsername(ctx, in.Name)
	if err != nil {
		return nil, "", err
	}

	verifyToken, err := randomToken(24)
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}

	verifyURL := s.cfg.BaseURL + "/api/v1/auth/verify/" + verifyToken
	body := fmt.Sprintf("Welcome to Mingle!\n\nPlease verify your email by opening:\n\n%s\n", verifyURL)
	if err := s.mail.Send(ctx, in.Email, "Verify your email", body); err != nil {
		return nil, "", models.NewUpstreamError("Could not send verification email", err)
	}

	user := &models.User{
		Name:              in.Name,
		Username:          username,
		Email:             strings.ToLower(in.Email),
		Password:          string(hash),
		MobileNumber:      in.MobileNumber,
		Role:              models.RoleUser,
		AvatarID:          asset.PublicID,
		AvatarURL:         asset.URL,
		VerificationToken: verifyToken,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := middleware.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}
	return user, token, nil
}

// VerifyEmail consumes a verification token. Tokens are one-shot: a verified
// account's token is cleared, so replaying the link fails.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return models.NewValidationError("Verification token is required")
	}

	user, err := s.users.GetByVerificationToken(ctx, token)
	if err != nil {
		return err
	}
	if user == nil {
		return models.NewValidationError("Invalid token or email already verified")
	}

	user.EmailVerified = true
	user.VerificationToken = ""
	return s.users.Update(ctx, user)
}

// LoginInput accepts either email or username plus the password.
type LoginInput struct {
	Email    string
	Username string
	Password string
}

// Login authenticates by email or username. Unverified accounts are rejected
// with a Forbidden error even when the password is correct.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*models.User, string, error) {
	if in.Password == "" || (in.Email == "" && in.Username == "") {
		return nil, "", models.NewValidationError("Please enter all fields")
	}

	var user *models.User
	var err error
	if in.Email != "" {
		user, err = s.users.GetByEmail(ctx, in.Email)
	} else {
		user, err = s.users.GetByUsername(ctx, in.Username)
	}
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", models.NewUnauthorizedError("Invalid credentials")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)) != nil {
		return nil, "", models.NewUnauthorizedError("Invalid credentials")
	}
	if !user.EmailVerified {
		return nil, "", models.NewForbiddenError("Please verify your email to login")
	}

	token, err := middleware.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}
	return user, token, nil
}

// ForgotPassword stores a hashed reset token with a 15-minute expiry and mails
// the raw token. When the mail cannot be sent the token is cleared again so a
// stale token never lingers.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return models.NewValidationError("Email is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return models.NewNotFoundError("User", email)
	}

	raw, err := randomToken(20)
	if err != nil {
		return models.NewInternalError(err)
	}
	expiry := time.Now().Add(resetTokenLifetime)
	user.ResetPasswordToken = hashToken(raw)
	user.ResetPasswordExpiresAt = &expiry
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	resetURL := s.cfg.BaseURL + "/password/reset/" + raw
	body := fmt.Sprintf("Reset your password by opening:\n\n%s\n\nThe link expires in 15 minutes. If you did not request this, ignore this mail.\n", resetURL)
	if err := s.mail.Send(ctx, user.Email, "Reset your password", body); err != nil {
		user.ResetPasswordToken = ""
		user.ResetPasswordExpiresAt = nil
		if clearErr := s.users.Update(ctx, user); clearErr != nil {
			slog.WarnContext(ctx, "could not clear reset token after mail failure", "error", clearErr)
		}
		return models.NewUpstreamError("Could not send reset email", err)
	}
	return nil
}

// ResetPassword consumes an unexpired reset token and sets the new password.
func (s *AuthService) ResetPassword(ctx context.Context, token, password, confirm string) (*models.User, string, error) {
	if token == "" || password == "" || confirm == "" {
		return nil, "", models.NewValidationError("Please enter all fields")
	}
	if password != confirm {
		return nil, "", models.NewValidationError("Passwords do not match")
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, "", models.NewValidationError(err.Error())
	}

	user, err := s.users.GetByResetTokenHash(ctx, hashToken(token), time.Now())
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", models.NewValidationError("Reset password token is invalid or has expired")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}
	user.Password = string(hash)
	user.ResetPasswordToken = ""
	user.ResetPasswordExpiresAt = nil
	if err := s.users.Update(ctx, user); err != nil {
		return nil, "", err
	}

	signed, err := middleware.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}
	return user, signed, nil
}

// UpdatePassword changes the password for a logged-in user after checking the
// old one.
func (s *AuthService) UpdatePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return models.NewValidationError("Please enter all fields")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return models.NewValidationError("Old password is incorrect")
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return models.NewValidationError(err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	user.Password = string(hash)
	return s.users.Update(ctx, user)
}

// UpdateProfileInput carries optional profile changes.
type UpdateProfileInput struct {
	UserID       uint
	Name         string
	MobileNumber string
	Avatar       []byte
}

// UpdateProfile patches name, mobile number and avatar. A replaced avatar's
// old asset is destroyed after the new one is stored.
func (s *AuthService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Name != "" {
		user.Name = in.Name
	}
	if in.MobileNumber != "" {
		if err := validation.ValidateMobileNumber(in.MobileNumber); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.MobileNumber = in.MobileNumber
	}

	if len(in.Avatar) > 0 {
		asset, err := s.media.Upload(ctx, in.Avatar, "avatars")
		if err != nil {
			return nil, upstreamOr(err, "Could not store avatar")
		}
		old := user.AvatarID
		user.AvatarID = asset.PublicID
		user.AvatarURL = asset.URL
		if old != "" && old != asset.PublicID {
			if err := s.media.Destroy(ctx, old); err != nil {
				slog.WarnContext(ctx, "old avatar destroy failed", "public_id", old, "error", err)
			}
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// uniqueUsername slugifies the display name and probes with numeric suffixes
// until the username is free.
func (s *AuthService) uniqueUsername(ctx context.Context, name string) (string, error) {
	base := strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if len(base) < 3 {
		base = "user-" + base
		base = strings.TrimSuffix(base, "-")
	}
	if len(base) > 24 {
		base = strings.Trim(base[:24], "-")
	}

	candidate := base
	for i := 1; ; i++ {
		existing, err := s.users.GetByUsername(ctx, candidate)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d", base, i)
	}
}

// randomToken returns n random bytes hex-encoded.
func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// hashToken is the storage form of a reset token; only the hash is persisted.
func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// upstreamOr passes AppErrors through (validation from the media store stays
// a 400) and wraps anything else as an upstream failure.
func upstreamOr(err error, message string) error {
	if appErr := models.AsAppError(err); appErr != nil {
		return appErr
	}
	return models.NewUpstreamError(message, err)
}
