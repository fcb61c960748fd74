package service

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"boardshop/internal/domain"
)

// CatalogSource отдаёт статический фид каталога
type CatalogSource interface {
	Fetch(ctx context.Context) (*domain.Catalog, error)
}

//go:embed default_catalog.json
var defaultCatalog []byte

// EmbeddedCatalogSource serves the catalog compiled into the binary.
type EmbeddedCatalogSource struct{}

func (EmbeddedCatalogSource) Fetch(_ context.Context) (*domain.Catalog, error) {
	var c domain.Catalog
	if err := json.Unmarshal(defaultCatalog, &c); err != nil {
		return nil, fmt.Errorf("error decoding embedded catalog: %w", err)
	}
	return &c, nil
}

// HTTPCatalogSource fetches the feed with a GET behind a circuit breaker.
type HTTPCatalogSource struct {
	url    string
	client *http.Client
	cb     *gobreaker.CircuitBreaker
}

func NewHTTPCatalogSource(url string, timeout time.Duration) *HTTPCatalogSource {
	return &HTTPCatalogSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "catalog-feed",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

func (s *HTTPCatalogSource) Fetch(ctx context.Context) (*domain.Catalog, error) {
	return executeWithBreaker(s.cb, func() (*domain.Catalog, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
		if err != nil {
			return nil, fmt.Errorf("error building catalog request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("error fetching catalog: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("catalog feed returned %d", resp.StatusCode)
		}

		var c domain.Catalog
		if err := json.NewDecoder(resp.Body).Decode(&c); err != nil {
			return nil, fmt.Errorf("error decoding catalog: %w", err)
		}
		return &c, nil
	})
}

func executeWithBreaker[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	res, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})

	if err != nil {
		return *new(T), err
	}

	return res.(T), nil
}
