package service

import (
	"boardshop/internal/repository"
	"boardshop/internal/session"
)

func sessionStore(store repository.Store, sess *session.Session) repository.Store {
	return repository.Scoped(store, repository.SessionPrefix(sess.ID))
}

// sessionLock is the single-writer key for everything stored under sess.
func sessionLock(sess *session.Session) string {
	return "session:" + sess.ID
}

const (
	usersLock  = "users"
	ordersLock = "orders"
)
