package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"boardshop/internal/domain"
	"boardshop/internal/mylogger"
	"boardshop/internal/repository"
)

// ProductFilter параметры фильтрации списка товаров
type ProductFilter struct {
	NameSubstring string
	CategoryID    *int64
	CategorySlug  string
	MinPrice      *int64
	MaxPrice      *int64
}

// CatalogService загружает фид один раз за жизнь процесса и кэширует его в хранилище
type CatalogService struct {
	store  repository.Store
	source CatalogSource
	logger *zap.Logger

	mu      sync.Mutex
	catalog *domain.Catalog
}

func NewCatalogService(store repository.Store, source CatalogSource, logger *zap.Logger) *CatalogService {
	return &CatalogService{store: store, source: source, logger: logger}
}

func (s *CatalogService) load(ctx context.Context) (*domain.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.catalog != nil {
		return s.catalog, nil
	}

	var cached domain.Catalog
	found, err := repository.GetJSON(ctx, s.store, s.logger, repository.KeyCatalog, &cached)
	if err != nil {
		return nil, err
	}
	if found {
		s.catalog = &cached
		return s.catalog, nil
	}

	fetched, err := s.source.Fetch(ctx)
	if err != nil {
		mylogger.Error(ctx, s.logger, "Failed to fetch catalog", zap.Error(err))
		return nil, fmt.Errorf("error loading catalog: %w", err)
	}
	normalizeCatalog(fetched)

	if err := repository.SetJSON(ctx, s.store, repository.KeyCatalog, fetched); err != nil {
		return nil, err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Catalog loaded",
		zap.Int("categories", len(fetched.Categories)),
		zap.Int("products", len(fetched.Products)),
	)

	s.catalog = fetched
	return s.catalog, nil
}

func normalizeCatalog(c *domain.Catalog) {
	if c.Categories == nil {
		c.Categories = []domain.Category{}
	}
	if c.Products == nil {
		c.Products = []domain.Product{}
	}
	for i := range c.Categories {
		if c.Categories[i].Slug == "" {
			c.Categories[i].Slug = slug.Make(c.Categories[i].Name)
		}
	}
}

func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Category, len(c.Categories))
	copy(out, c.Categories)
	return out, nil
}

func (s *CatalogService) ProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range c.Products {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrProductNotFound
}

func (s *CatalogService) Products(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	categoryID := f.CategoryID
	if f.CategorySlug != "" {
		id, ok := categoryBySlug(c.Categories, f.CategorySlug)
		if !ok {
			return []domain.Product{}, nil
		}
		categoryID = &id
	}

	out := make([]domain.Product, 0)
	for _, p := range c.Products {
		if !containsIgnoreCase(p.Name, f.NameSubstring) {
			continue
		}
		if categoryID != nil && p.CategoryID != *categoryID {
			continue
		}
		if f.MinPrice != nil && p.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && p.Price > *f.MaxPrice {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func categoryBySlug(categories []domain.Category, s string) (int64, bool) {
	for _, c := range categories {
		if strings.EqualFold(c.Slug, s) {
			return c.ID, true
		}
	}
	return 0, false
}

// helper: case-insensitive contains
func containsIgnoreCase(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
