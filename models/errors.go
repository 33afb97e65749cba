package models

import "errors"

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrLineItemNotFound = errors.New("line item not found in cart")
	ErrProductNotFound  = errors.New("product not found")
	ErrUserNotFound     = errors.New("user not found")

	ErrInvalidInput       = errors.New("invalid input")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
)
