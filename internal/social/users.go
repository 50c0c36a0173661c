package social

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/steemit/circlemind/internal/apperr"
	"github.com/steemit/circlemind/internal/db"
	"github.com/steemit/circlemind/internal/models"
)

// CreateUserInput describes a new account.
type CreateUserInput struct {
	Username     string `json:"username"`
	FullName     string `json:"fullName"`
	ProfilePhoto string `json:"profilePhoto"`
	Bio          string `json:"bio"`
	Role         string `json:"role"`
	IsVerified   bool   `json:"isVerified"`
}

// Profile is a user's account joined with their profile.
type Profile struct {
	UserID       string `json:"userId"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	IsVerified   bool   `json:"isVerified"`
	FullName     string `json:"fullName"`
	ProfilePhoto string `json:"profilePhoto"`
	Bio          string `json:"bio"`
	IsFriend     bool   `json:"isFriend"`
}

// CreateUser creates a user and their profile in one transaction.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (_ *models.User, err error) {
	ctx, end := startSpan(ctx, "CreateUser")
	defer end(&err)

	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	if err := required("username", in.Username); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	switch in.Role {
	case models.RoleUser, models.RoleAdmin, models.RoleSuperAdmin:
	default:
		return nil, apperr.Validation("invalid role %q", in.Role)
	}

	user := &models.User{
		Username:   in.Username,
		Role:       in.Role,
		Status:     models.UserStatusActive,
		IsVerified: in.IsVerified,
	}
	err = s.store.WithTx(ctx, func(tx *db.Store) error {
		if err := tx.Users.Create(ctx, user); err != nil {
			if isDuplicate(err) {
				return apperr.Conflict("The username %s is already taken", in.Username)
			}
			return err
		}
		return tx.Users.CreateProfile(ctx, &models.Profile{
			UserID:       user.ID,
			FullName:     in.FullName,
			ProfilePhoto: in.ProfilePhoto,
			Bio:          in.Bio,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("User created", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// GetProfile returns the profile of userID as seen by the actor. Users blocked with the actor
// are not visible.
func (s *Service) GetProfile(ctx context.Context, actor Actor, userID string) (_ *Profile, err error) {
	ctx, end := startSpan(ctx, "GetProfile")
	defer end(&err)

	if err := required("userId", userID); err != nil {
		return nil, err
	}
	if err := s.resolver.AssertNotMutuallyBlocked(ctx, actor.ID, userID); err != nil {
		return nil, err
	}

	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || (user.Status == models.UserStatusDeleted && user.ID != actor.ID) {
		return nil, apperr.NotFoundf("The user profile is not found")
	}
	profile, err := s.store.Users.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, apperr.NotFoundf("The user profile is not found")
	}

	isFriend, err := s.resolver.IsFriend(ctx, actor.ID, userID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		UserID:       user.ID,
		Username:     user.Username,
		Role:         user.Role,
		IsVerified:   user.IsVerified,
		FullName:     profile.FullName,
		ProfilePhoto: profile.ProfilePhoto,
		Bio:          profile.Bio,
		IsFriend:     isFriend,
	}, nil
}

// SuspendUser blocks a user account. Admin accounts cannot be suspended.
func (s *Service) SuspendUser(ctx context.Context, actor Actor, userID string) (err error) {
	ctx, end := startSpan(ctx, "SuspendUser")
	defer end(&err)

	if !actor.IsAdmin() {
		return apperr.Forbidden("Only admins can suspend users")
	}
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperr.NotFoundf("The user is not found")
	}
	if user.Status == models.UserStatusBlocked {
		return apperr.Validation("The user is already suspended")
	}
	if user.IsAdmin() {
		return apperr.Forbidden("You can't suspend an admin")
	}
	return s.store.Users.SetStatus(ctx, userID, models.UserStatusBlocked)
}

// UnsuspendUser reactivates a suspended account.
func (s *Service) UnsuspendUser(ctx context.Context, actor Actor, userID string) (err error) {
	ctx, end := startSpan(ctx, "UnsuspendUser")
	defer end(&err)

	if !actor.IsAdmin() {
		return apperr.Forbidden("Only admins can unsuspend users")
	}
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperr.NotFoundf("The user is not found")
	}
	if user.Status == models.UserStatusActive {
		return apperr.Validation("The user is not suspended")
	}
	return s.store.Users.SetStatus(ctx, userID, models.UserStatusActive)
}
