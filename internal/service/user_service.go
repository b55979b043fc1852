package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campus-desk/helpdesk-api/internal/models"
	appErrors "github.com/campus-desk/helpdesk-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context) ([]models.User, error)
	Search(ctx context.Context, term string, limit int) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	CountAdmins(ctx context.Context) (int, error)
}

// CreateUserRequest represents the admin payload for creating users.
type CreateUserRequest struct {
	Email      string          `json:"email" validate:"required,email,max=100"`
	Password   string          `json:"password" validate:"required,min=6,max=100"`
	FirstName  string          `json:"first_name" validate:"required,max=100"`
	LastName   string          `json:"last_name" validate:"required,max=100"`
	Patronymic string          `json:"patronymic" validate:"max=100"`
	GroupName  string          `json:"group_name" validate:"max=50"`
	Role       models.UserRole `json:"role" validate:"required,oneof=student admin"`
}

// UpdateUserRequest represents the admin payload for updating users.
type UpdateUserRequest struct {
	FirstName  string          `json:"first_name" validate:"required,max=100"`
	LastName   string          `json:"last_name" validate:"required,max=100"`
	Patronymic string          `json:"patronymic" validate:"max=100"`
	GroupName  string          `json:"group_name" validate:"max=50"`
	Role       models.UserRole `json:"role" validate:"required,oneof=student admin"`
}

// ChangeRoleRequest changes a single user's role.
type ChangeRoleRequest struct {
	Role models.UserRole `json:"role" validate:"required,oneof=student admin"`
}

// UserService handles admin user management.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns all users ordered by last then first name.
func (s *UserService) List(ctx context.Context) ([]models.UserView, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	views := make([]models.UserView, 0, len(users))
	for i := range users {
		views = append(views, users[i].View())
	}
	return views, nil
}

// Search matches users by name fragments, capped at 20 results.
func (s *UserService) Search(ctx context.Context, term string) ([]models.UserSearchResult, error) {
	if strings.TrimSpace(term) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "search term must not be empty")
	}

	users, err := s.repo.Search(ctx, strings.TrimSpace(term), 20)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search users")
	}

	results := make([]models.UserSearchResult, 0, len(users))
	for i := range users {
		results = append(results, models.UserSearchResult{
			ID:         users[i].ID,
			FirstName:  users[i].FirstName,
			LastName:   users[i].LastName,
			Patronymic: users[i].Patronymic.String,
			GroupName:  users[i].GroupName.String,
		})
	}
	return results, nil
}

// Get returns a single user view.
func (s *UserService) Get(ctx context.Context, id string) (*models.UserView, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	view := user.View()
	return &view, nil
}

// Create adds a new user. Unlike self-registration, admins may assign any
// role.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*models.UserView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create user payload")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "user with this email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(passwordHash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Patronymic:   nullString(req.Patronymic),
		Role:         req.Role,
		GroupName:    nullString(req.GroupName),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	view := user.View()
	return &view, nil
}

// Update modifies name fields, group and role.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest) (*models.UserView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if user.Role == models.RoleAdmin && req.Role != models.RoleAdmin {
		if err := s.ensureNotLastAdmin(ctx); err != nil {
			return nil, err
		}
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Patronymic = nullString(req.Patronymic)
	user.GroupName = nullString(req.GroupName)
	user.Role = req.Role

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	view := user.View()
	return &view, nil
}

// ChangeRole updates a single user's role, refusing to demote the last admin.
func (s *UserService) ChangeRole(ctx context.Context, id string, req ChangeRoleRequest) (*models.UserView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid role payload")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if user.Role == models.RoleAdmin && req.Role != models.RoleAdmin {
		if err := s.ensureNotLastAdmin(ctx); err != nil {
			return nil, err
		}
	}

	user.Role = req.Role
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update role")
	}

	view := user.View()
	return &view, nil
}

// Delete removes a user. Deleting the last remaining admin is rejected.
func (s *UserService) Delete(ctx context.Context, id string) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if user.Role == models.RoleAdmin {
		if err := s.ensureNotLastAdmin(ctx); err != nil {
			return err
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}

	return nil
}

func (s *UserService) ensureNotLastAdmin(ctx context.Context) error {
	count, err := s.repo.CountAdmins(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count admins")
	}
	if count <= 1 {
		return appErrors.Clone(appErrors.ErrValidation, "cannot remove the last administrator")
	}
	return nil
}
