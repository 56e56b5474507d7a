package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketplace-api/internal/auth"
	"marketplace-api/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthTestRouter(tokens *auth.TokenIssuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/whoami", authMiddleware(tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": currentUserID(c),
			"type":    currentUser(c).Type,
		})
	})
	return router
}

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	router := newAuthTestRouter(tokens)

	token, err := tokens.Issue(&models.User{ID: 42, Email: "a@b.c", Type: models.UserTypeShop})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":42`)
	assert.Contains(t, rec.Body.String(), `"type":"shop"`)
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	router := newAuthTestRouter(tokens)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	router := newAuthTestRouter(tokens)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsExpired(t *testing.T) {
	expired := auth.NewTokenIssuer("test-secret", -time.Minute)
	router := newAuthTestRouter(expired)

	token, err := expired.Issue(&models.User{ID: 1, Email: "a@b.c"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
