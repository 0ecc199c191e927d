package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/knowledgepathways/backend/internal/pkg/logger"
	"github.com/knowledgepathways/backend/internal/platform/apierr"
	"github.com/knowledgepathways/backend/internal/repos"
	"github.com/knowledgepathways/backend/internal/types"
)

type UserService interface {
	GetMe(ctx context.Context, userID uuid.UUID) (*types.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, fullName string) (*types.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
	DeactivateUser(ctx context.Context, caller *types.User, targetID uuid.UUID) error
}

type userService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
}

func NewUserService(db *gorm.DB, baseLog *logger.Logger, userRepo repos.UserRepo, userTokenRepo repos.UserTokenRepo) UserService {
	serviceLog := baseLog.With("service", "UserService")
	return &userService{db: db, log: serviceLog, userRepo: userRepo, userTokenRepo: userTokenRepo}
}

func (us *userService) GetMe(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	users, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("load user: %w", err))
	}
	if len(users) == 0 {
		return nil, apierr.NotFound("user_not_found", fmt.Errorf("user %s not found", userID))
	}
	return users[0], nil
}

func (us *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, fullName string) (*types.User, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, apierr.Invalid("missing_name", fmt.Errorf("full name is required"))
	}
	if err := us.userRepo.UpdateFields(ctx, nil, userID, map[string]interface{}{"full_name": fullName}); err != nil {
		return nil, apierr.Internal(fmt.Errorf("update profile: %w", err))
	}
	return us.GetMe(ctx, userID)
}

func (us *userService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apierr.Invalid("weak_password", fmt.Errorf("password must be at least %d characters", minPasswordLength))
	}

	user, err := us.GetMe(ctx, userID)
	if err != nil {
		return err
	}
	if hErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); hErr != nil {
		return apierr.Unauthorized("invalid_credentials", fmt.Errorf("current password does not match"))
	}

	hashed, hErr := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if hErr != nil {
		return apierr.Internal(fmt.Errorf("hash password: %w", hErr))
	}

	return us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if upErr := us.userRepo.UpdateFields(ctx, tx, userID, map[string]interface{}{"password": string(hashed)}); upErr != nil {
			return apierr.Internal(fmt.Errorf("store password: %w", upErr))
		}
		// A password change invalidates every open session.
		if dErr := us.userTokenRepo.DeleteByUserIDs(ctx, tx, []uuid.UUID{userID}); dErr != nil {
			return apierr.Internal(fmt.Errorf("drop sessions: %w", dErr))
		}
		return nil
	})
}

// DeactivateUser is the soft-deactivation path; user rows are never
// physically deleted so their pathways and progress history survive.
func (us *userService) DeactivateUser(ctx context.Context, caller *types.User, targetID uuid.UUID) error {
	if caller == nil || !caller.IsAdmin() {
		return apierr.Forbidden("admin_only", fmt.Errorf("only admins may deactivate accounts"))
	}

	users, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{targetID})
	if err != nil {
		return apierr.Internal(fmt.Errorf("load user: %w", err))
	}
	if len(users) == 0 {
		return apierr.NotFound("user_not_found", fmt.Errorf("user %s not found", targetID))
	}

	return us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if upErr := us.userRepo.UpdateFields(ctx, tx, targetID, map[string]interface{}{"is_active": false}); upErr != nil {
			return apierr.Internal(fmt.Errorf("deactivate user: %w", upErr))
		}
		if dErr := us.userTokenRepo.DeleteByUserIDs(ctx, tx, []uuid.UUID{targetID}); dErr != nil {
			return apierr.Internal(fmt.Errorf("drop sessions: %w", dErr))
		}
		return nil
	})
}
