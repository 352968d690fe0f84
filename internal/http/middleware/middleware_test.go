package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/sehri/internal/model"
)

type usersByID map[int]*model.User

func (u usersByID) GetUserByID(id int) (*model.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return nil, errors.New("not found")
}

const secret = "test-secret"

func newRouter(users UserLookup) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", JWTMiddleware(secret, users), func(c *gin.Context) {
		u, _ := GetCurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"email": u.Email})
	})
	r.GET("/admin", JWTMiddleware(secret, users), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r *gin.Engine, path, auth string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTMiddleware(t *testing.T) {
	users := usersByID{
		1: {ID: 1, Email: "admin@example.com", IsAdmin: true},
		2: {ID: 2, Email: "viewer@example.com"},
	}
	r := newRouter(users)

	adminToken, err := GenerateJWT(1, secret)
	require.NoError(t, err)
	viewerToken, err := GenerateJWT(2, secret)
	require.NoError(t, err)
	ghostToken, err := GenerateJWT(99, secret)
	require.NoError(t, err)
	foreignToken, err := GenerateJWT(1, "other-secret")
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "Token "+adminToken).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "Bearer "+foreignToken).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "Bearer "+ghostToken).Code)

	w := do(r, "/me", "Bearer "+viewerToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "viewer@example.com")

	assert.Equal(t, http.StatusForbidden, do(r, "/admin", "Bearer "+viewerToken).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/admin", "Bearer "+adminToken).Code)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("ramadan-2026")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "ramadan-2026"))
	assert.False(t, CheckPassword(hash, "ramadan-2025"))
}
