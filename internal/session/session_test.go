package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManager_IssueAndParse(t *testing.T) {
	m := NewManager("secret-a", time.Hour)

	token, sess, err := m.Issue()
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	parsed, err := m.Parse(token)
	require.NoError(t, err)
	require.Equal(t, sess.ID, parsed.ID)
}

func TestManager_RejectsForeignSecret(t *testing.T) {
	a := NewManager("secret-a", time.Hour)
	b := NewManager("secret-b", time.Hour)

	token, _, err := a.Issue()
	require.NoError(t, err)

	_, err = b.Parse(token)
	require.True(t, errors.Is(err, ErrInvalidToken))
}

func TestManager_RejectsExpired(t *testing.T) {
	m := NewManager("secret", time.Minute)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return start }

	token, _, err := m.Issue()
	require.NoError(t, err)

	m.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = m.Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_RejectsGarbage(t *testing.T) {
	m := NewManager("secret", time.Hour)
	_, err := m.Parse("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
