package repository

import (
	"context"
	"errors"
)

// ErrNotFound возвращается, когда ключ отсутствует
var ErrNotFound = errors.New("not found")

// Store интерфейс key-value хранилища
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete is a no-op for absent keys.
	Delete(ctx context.Context, key string) error
}

// Locker сериализует запись по ключу. Для in-memory это карта мьютексов.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Storage keys. Session-scoped keys live under SessionPrefix.
const (
	KeyUsers          = "users"
	KeyCatalog        = "catalog"
	KeyCurrentUser    = "current_user"
	KeyAdminSession   = "admin_session"
	KeyCart           = "cart"
	KeyLastOrder      = "last_order"
	KeyRecoveryCode   = "recovery_code"
	KeyRememberedUser = "remembered_user"
)

// OrderKey is the storage key of a single order.
func OrderKey(orderNumber string) string {
	return "order_" + orderNumber
}

// SessionPrefix namespaces every per-session key.
func SessionPrefix(sessionID string) string {
	return "session:" + sessionID + ":"
}
