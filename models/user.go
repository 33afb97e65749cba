package models

import (
	"time"

	"github.com/rabbitio/storefront/models/enum"
)

type User struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Password  string        `json:"-"`
	Role      enum.UserRole `json:"role"`
	CreatedAt time.Time     `json:"created_at"`
}
