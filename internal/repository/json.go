package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"boardshop/internal/mylogger"
)

// GetJSON decodes the value under key into dst.
// It reports false when the key is absent or holds corrupt JSON; corruption is logged and
// otherwise treated as absent. Only store read failures are returned as errors.
func GetJSON(ctx context.Context, s Store, logger *zap.Logger, key string, dst any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("error reading %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		mylogger.Warn(
			ctx,
			logger,
			"Corrupt value in store, treating as empty",
			zap.String("key", key),
			zap.Error(err),
		)
		return false, nil
	}
	return true, nil
}

// SetJSON encodes v and writes it under key. Write failures propagate.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("error encoding %s: %w", key, err)
	}
	if err := s.Set(ctx, key, data); err != nil {
		return fmt.Errorf("error writing %s: %w", key, err)
	}
	return nil
}
