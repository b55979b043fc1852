package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/campus-desk/helpdesk-api/internal/models"
)

func performWithClaims(t *testing.T, claims *models.JWTClaims, roles ...models.UserRole) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}

	RequireRoles(roles...)(c)
	if !c.IsAborted() {
		c.Status(http.StatusOK)
	}
	return rec
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	rec := performWithClaims(t, nil, models.RoleAdmin)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRolesBlocksStudent(t *testing.T) {
	rec := performWithClaims(t, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}, models.RoleAdmin)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRolesAllowsAdmin(t *testing.T) {
	rec := performWithClaims(t, &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}, models.RoleAdmin)
	assert.Equal(t, http.StatusOK, rec.Code)
}
