package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"khanabuddy/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.DB().SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.AdminLogin{}).Error)
	t.Cleanup(func() { db.Close() })
	return NewService(db, "test_secret")
}

func TestLogin(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.Login("admin", "adminqw", "10.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	history, err := svc.LoginHistory(10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "10.0.0.1", history[0].IPAddress)
	assert.Equal(t, "test-agent", history[0].UserAgent)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Login("admin", "wrong", "10.0.0.1", "test-agent")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	_, err = svc.Login("root", "adminqw", "10.0.0.1", "test-agent")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	// Failed attempts are not recorded.
	history, err := svc.LoginHistory(10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestService(t)

	router := gin.New()
	router.GET("/protected", svc.Middleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// No token.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Garbage token.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A real login token passes.
	token, err := svc.Login("admin", "adminqw", "10.0.0.1", "test-agent")
	require.NoError(t, err)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddlewareRejectsForeignSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestService(t)
	other := newTestService(t)
	other.secret = []byte("other_secret")

	token, err := other.Login("admin", "adminqw", "10.0.0.1", "test-agent")
	require.NoError(t, err)

	router := gin.New()
	router.GET("/protected", svc.Middleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
