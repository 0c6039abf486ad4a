package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lunchtableguy/mmeg-sub000/internal/authz"
	"github.com/lunchtableguy/mmeg-sub000/internal/model"
	"github.com/lunchtableguy/mmeg-sub000/internal/repository"
	"github.com/lunchtableguy/mmeg-sub000/pkg/validator"
)

type UserService interface {
	CreateUser(ctx context.Context, actor authz.Subject, req *CreateUserRequest) (*model.User, error)
	UpdateUser(ctx context.Context, actor authz.Subject, userID uuid.UUID, req *UpdateUserRequest) (*model.User, error)
	ChangeRole(ctx context.Context, actor authz.Subject, userID uuid.UUID, role string) (*model.User, error)
	DeleteUser(ctx context.Context, actor authz.Subject, userID uuid.UUID) error
	GetAllUsers(ctx context.Context) ([]model.UserResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error)
	// SeedOwner creates the first OWNER account when the users table is empty
	SeedOwner(ctx context.Context, email, password string) (bool, error)
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role" validate:"required,role"`
}

type UpdateUserRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8"` // Optional
	FullName string  `json:"full_name" validate:"required"`
	IsActive *bool   `json:"is_active"`
}

type userService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, log *zap.Logger) UserService {
	return &userService{userRepo: userRepo, log: log.Named("users")}
}

// outranks reports whether target sits above the actor; nobody edits upwards
func outranks(target authz.Role, actor authz.Subject) bool {
	return !authz.HasRole(actor.Role, target)
}

func (s *userService) CreateUser(ctx context.Context, actor authz.Subject, req *CreateUserRequest) (*model.User, error) {
	if err := validator.Error(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	role, _ := authz.ParseRole(req.Role)
	if outranks(role, actor) {
		return nil, ErrForbidden
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.emailFree(ctx, email); err != nil {
		return nil, err
	}

	user := &model.User{
		Email:    email,
		FullName: req.FullName,
		Role:     role,
		IsActive: true,
	}
	user.CreatedBy = actor.UserID.String()
	user.UpdatedBy = actor.UserID.String()

	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", role.String()),
		zap.String("by", actor.UserID.String()))
	return user, nil
}

// emailFree returns ErrEmailExists when email is taken
func (s *userService) emailFree(ctx context.Context, email string) error {
	_, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return ErrEmailExists
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("check email: %w", err)
	}
}

func (s *userService) target(ctx context.Context, actor authz.Subject, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if outranks(user.Role, actor) {
		return nil, ErrForbidden
	}
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, actor authz.Subject, userID uuid.UUID, req *UpdateUserRequest) (*model.User, error) {
	if err := validator.Error(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	user, err := s.target(ctx, actor, userID)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != user.Email {
		if err := s.emailFree(ctx, email); err != nil {
			return nil, err
		}
	}

	user.Email = email
	user.FullName = req.FullName
	if req.IsActive != nil {
		if !*req.IsActive && user.ID == actor.UserID {
			return nil, fmt.Errorf("%w: cannot deactivate your own account", ErrInvalidInput)
		}
		user.IsActive = *req.IsActive
	}
	user.UpdatedBy = actor.UserID.String()

	if req.Password != nil && *req.Password != "" {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) ChangeRole(ctx context.Context, actor authz.Subject, userID uuid.UUID, role string) (*model.User, error) {
	newRole, ok := authz.ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	if outranks(newRole, actor) {
		return nil, ErrForbidden
	}
	if userID == actor.UserID {
		return nil, fmt.Errorf("%w: cannot change your own role", ErrInvalidInput)
	}

	user, err := s.target(ctx, actor, userID)
	if err != nil {
		return nil, err
	}

	old := user.Role
	user.Role = newRole
	user.UpdatedBy = actor.UserID.String()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	// Role is embedded in issued tokens; revoke them
	if err := s.userRepo.UpdateTokenVersion(ctx, user.ID, uuid.New().String()); err != nil {
		return nil, err
	}

	s.log.Info("role changed",
		zap.String("user_id", user.ID.String()),
		zap.String("from", old.String()),
		zap.String("to", newRole.String()),
		zap.String("by", actor.UserID.String()))
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, actor authz.Subject, userID uuid.UUID) error {
	if userID == actor.UserID {
		return fmt.Errorf("%w: cannot delete your own account", ErrInvalidInput)
	}
	if _, err := s.target(ctx, actor, userID); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, userID, actor.UserID.String()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *userService) GetAllUsers(ctx context.Context) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	response := user.ToResponse()
	return &response, nil
}

func (s *userService) SeedOwner(ctx context.Context, email, password string) (bool, error) {
	n, err := s.userRepo.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	owner := &model.User{
		Email:    strings.ToLower(strings.TrimSpace(email)),
		FullName: "Site Owner",
		Role:     authz.RoleOwner,
		IsActive: true,
	}
	owner.CreatedBy = "system"
	owner.UpdatedBy = "system"
	if err := owner.SetPassword(password); err != nil {
		return false, err
	}
	if err := s.userRepo.Create(ctx, owner); err != nil {
		return false, err
	}
	s.log.Info("seeded owner account", zap.String("email", owner.Email))
	return true, nil
}
