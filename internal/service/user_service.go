package service

import (
	"context"

	"mingle/internal/models"
	"mingle/internal/repository"
)

// UserService owns user reads and the admin role toggle.
type UserService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
}

// NewUserService returns a UserService.
func NewUserService(users repository.UserRepository, follows repository.FollowRepository) *UserService {
	return &UserService{users: users, follows: follows}
}

// List returns users matching the search term, newest first.
func (s *UserService) List(ctx context.Context, search string, limit, offset int) ([]models.User, error) {
	return s.users.List(ctx, search, limit, offset)
}

// Get returns a user with their follower and following id sets attached.
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachGraph(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Profile returns a user with their recent posts and follow graph attached.
func (s *UserService) Profile(ctx context.Context, id uint, postLimit int) (*models.User, error) {
	user, err := s.users.GetByIDWithPosts(ctx, id, postLimit)
	if err != nil {
		return nil, err
	}
	if err := s.attachGraph(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ToggleRole flips a user between the user and admin roles.
func (s *UserService) ToggleRole(ctx context.Context, targetID uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if user.Role == models.RoleAdmin {
		user.Role = models.RoleUser
	} else {
		user.Role = models.RoleAdmin
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) attachGraph(ctx context.Context, user *models.User) error {
	followers, err := s.follows.FollowerIDs(ctx, user.ID)
	if err != nil {
		return err
	}
	following, err := s.follows.FollowingIDs(ctx, user.ID)
	if err != nil {
		return err
	}
	user.FollowerIDs = followers
	user.FollowingIDs = following
	return nil
}
