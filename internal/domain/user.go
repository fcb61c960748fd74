package domain

import (
	"strings"
	"time"
)

// User зарегистрированный покупатель
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"nombre"`
	Username     string    `json:"usuario"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	BirthDate    string    `json:"fechaNacimiento"`
	Comments     string    `json:"comentarios,omitempty"`
	RegisteredAt time.Time `json:"fechaRegistro"`
}

// HasEmail compares case-insensitively.
func (u User) HasEmail(email string) bool {
	return strings.EqualFold(u.Email, email)
}

// HasUsername compares case-insensitively.
func (u User) HasUsername(username string) bool {
	return strings.EqualFold(u.Username, username)
}

// PasswordRecoveryRequest единственный действующий запрос на сброс пароля
type PasswordRecoveryRequest struct {
	Email     string    `json:"email"`
	CodeHash  string    `json:"code_hash"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether now is at or past ExpiresAt.
func (r PasswordRecoveryRequest) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// UserStats сводка для панели администратора
type UserStats struct {
	Total           int `json:"total"`
	RegisteredToday int `json:"registeredToday"`
}
