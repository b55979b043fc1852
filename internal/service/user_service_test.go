package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-desk/helpdesk-api/internal/models"
	appErrors "github.com/campus-desk/helpdesk-api/pkg/errors"
)

type mockUserRepo struct {
	users   map[string]*models.User
	deleted []string
}

func (m *mockUserRepo) List(ctx context.Context) ([]models.User, error) {
	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, nil
}

func (m *mockUserRepo) Search(ctx context.Context, term string, limit int) ([]models.User, error) {
	return nil, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.users == nil {
		m.users = make(map[string]*models.User)
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	delete(m.users, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockUserRepo) CountAdmins(ctx context.Context) (int, error) {
	count := 0
	for _, u := range m.users {
		if u.Role == models.RoleAdmin {
			count++
		}
	}
	return count, nil
}

func newUserService(repo *mockUserRepo) *UserService {
	return NewUserService(repo, validator.New(), zap.NewNop())
}

func TestUserSearchBlankTerm(t *testing.T) {
	svc := newUserService(&mockUserRepo{})
	_, err := svc.Search(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserCreateAllowsAdminRole(t *testing.T) {
	repo := &mockUserRepo{users: make(map[string]*models.User)}
	svc := newUserService(repo)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email:     "new@example.com",
		Password:  "secret1",
		FirstName: "Анна",
		LastName:  "Иванова",
		Role:      models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
}

func TestUserDeleteLastAdminRejected(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"a1": {ID: "a1", Email: "admin@example.com", Role: models.RoleAdmin},
		"s1": {ID: "s1", Email: "student@example.com", Role: models.RoleStudent},
	}}
	svc := newUserService(repo)

	err := svc.Delete(context.Background(), "a1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)

	require.NoError(t, svc.Delete(context.Background(), "s1"))
	assert.Equal(t, []string{"s1"}, repo.deleted)
}

func TestUserDeleteAdminWithAnotherAdminAllowed(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"a1": {ID: "a1", Email: "a1@example.com", Role: models.RoleAdmin},
		"a2": {ID: "a2", Email: "a2@example.com", Role: models.RoleAdmin},
	}}
	svc := newUserService(repo)

	require.NoError(t, svc.Delete(context.Background(), "a1"))
	assert.Equal(t, []string{"a1"}, repo.deleted)
}

func TestUserChangeRoleLastAdminDemotionRejected(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"a1": {ID: "a1", Email: "admin@example.com", Role: models.RoleAdmin},
	}}
	svc := newUserService(repo)

	_, err := svc.ChangeRole(context.Background(), "a1", ChangeRoleRequest{Role: models.RoleStudent})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.RoleAdmin, repo.users["a1"].Role)
}

func TestUserChangeRoleNotFound(t *testing.T) {
	svc := newUserService(&mockUserRepo{users: map[string]*models.User{}})
	_, err := svc.ChangeRole(context.Background(), "missing", ChangeRoleRequest{Role: models.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
