package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-desk/helpdesk-api/internal/middleware"
	"github.com/campus-desk/helpdesk-api/internal/models"
	"github.com/campus-desk/helpdesk-api/internal/service"
)

type fakeUserStore struct {
	users map[string]*models.User
}

func (f *fakeUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	if f.users == nil {
		f.users = make(map[string]*models.User)
	}
	copy := *user
	f.users[user.ID] = &copy
	return nil
}

func newAuthHandler() *AuthHandler {
	svc := service.NewAuthService(&fakeUserStore{users: make(map[string]*models.User)}, validator.New(), zap.NewNop(), service.AuthConfig{
		Secret:     "test_secret",
		Expiration: time.Hour,
	})
	return NewAuthHandler(svc)
}

func postJSON(t *testing.T, payload interface{}) *http.Request {
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAuthHandlerRegisterCreatesStudent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = postJSON(t, map[string]string{
		"email":      "ivan@example.com",
		"password":   "secret1",
		"first_name": "Иван",
		"last_name":  "Петров",
		"role":       "admin",
	})

	handler.Register(c)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Data struct {
			Token string          `json:"token"`
			User  models.UserView `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.NotEmpty(t, envelope.Data.Token)
	assert.Equal(t, models.RoleStudent, envelope.Data.User.Role)
}

func TestAuthHandlerRegisterInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{broken")))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Register(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandlerLoginUnknownUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = postJSON(t, map[string]string{
		"email":    "missing@example.com",
		"password": "whatever",
	})

	handler.Login(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerMeWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)

	handler.Me(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerMeEchoesClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Email: "u1@example.com", Role: models.RoleAdmin})

	handler.Me(c)

	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data models.UserView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "u1", envelope.Data.ID)
	assert.Equal(t, models.RoleAdmin, envelope.Data.Role)
}
