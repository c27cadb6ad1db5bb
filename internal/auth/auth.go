// Package auth guards the admin surface: a single fixed credential pair, JWT
// session tokens, and a login audit trail.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"khanabuddy/internal/models"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

const (
	adminUsername = "admin"
	adminPassword = "adminqw"

	tokenTTL = 24 * time.Hour
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Service issues and validates admin tokens.
type Service struct {
	db     *gorm.DB
	secret []byte
}

func NewService(db *gorm.DB, secret string) *Service {
	return &Service{db: db, secret: []byte(secret)}
}

// Login checks the admin credentials, records the login, and returns a
// signed token.
func (s *Service) Login(username, password, ip, userAgent string) (string, error) {
	if username != adminUsername || password != adminPassword {
		return "", ErrInvalidCredentials
	}

	entry := models.AdminLogin{
		LoginTime: time.Now(),
		IPAddress: ip,
		UserAgent: userAgent,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return "", fmt.Errorf("record login: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": adminUsername,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(tokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// LoginHistory returns recent admin logins, newest first.
func (s *Service) LoginHistory(limit int) ([]models.AdminLogin, error) {
	var out []models.AdminLogin
	err := s.db.Order("login_time desc").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("login history: %w", err)
	}
	return out, nil
}

// Middleware handles JWT authentication for admin routes.
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}
		tokenString = strings.TrimPrefix(tokenString, "Bearer ")

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Next()
	}
}
