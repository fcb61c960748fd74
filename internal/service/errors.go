package service

import (
	"errors"
	"fmt"
)

var ErrInvalidInput = errors.New("invalid input")

// catalog
var ErrProductNotFound = errors.New("product not found")

// cart
var ErrCartTotalTooLarge = fmt.Errorf("%w: cart total too large", ErrInvalidInput)

// accounts
var (
	ErrDuplicateEmail       = errors.New("email is already registered")
	ErrDuplicateUsername    = errors.New("username is already taken")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrNoActiveSession      = errors.New("no active session")
	ErrUnknownEmail         = errors.New("no account with that email")
	ErrNoOutstandingRequest = errors.New("no outstanding recovery request")
	ErrCodeExpired          = errors.New("recovery code expired")
	ErrCodeMismatch         = errors.New("recovery code does not match")
	ErrUserNotFound         = errors.New("user not found")
	ErrForbidden            = errors.New("administrator session required")
)

// orders
var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrOrderNumberExhausted = errors.New("could not allocate a unique order number")
)
