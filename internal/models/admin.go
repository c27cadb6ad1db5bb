package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

// AdminLogin records one admin dashboard login.
type AdminLogin struct {
	gorm.Model
	LoginTime time.Time `json:"login_time"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
}
