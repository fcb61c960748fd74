package service

import (
	"context"

	"go.uber.org/zap"

	"boardshop/internal/domain"
	"boardshop/internal/mylogger"
	"boardshop/internal/repository"
	"boardshop/internal/session"
)

// CartService хранит корзину сессии и сохраняет её после каждой мутации
type CartService struct {
	store  repository.Store
	locker repository.Locker
	policy domain.ShippingPolicy
	logger *zap.Logger
}

func NewCartService(store repository.Store, locker repository.Locker, policy domain.ShippingPolicy, logger *zap.Logger) *CartService {
	return &CartService{store: store, locker: locker, policy: policy, logger: logger}
}

func (s *CartService) Policy() domain.ShippingPolicy {
	return s.policy
}

// Load rehydrates the session cart. A missing or corrupt value is an empty cart.
func (s *CartService) Load(ctx context.Context, sess *session.Session) (*domain.Cart, error) {
	var items []domain.CartLineItem
	if _, err := repository.GetJSON(ctx, sessionStore(s.store, sess), s.logger, repository.KeyCart, &items); err != nil {
		return nil, err
	}
	return domain.NewCart(items), nil
}

func (s *CartService) Summary(ctx context.Context, sess *session.Session) (domain.CartSummary, error) {
	cart, err := s.Load(ctx, sess)
	if err != nil {
		return domain.CartSummary{}, err
	}
	return cart.Summarize(s.policy), nil
}

func (s *CartService) save(ctx context.Context, sess *session.Session, cart *domain.Cart) error {
	return repository.SetJSON(ctx, sessionStore(s.store, sess), repository.KeyCart, cart.Items)
}

func (s *CartService) mutate(ctx context.Context, sess *session.Session, fn func(*domain.Cart) error) (domain.CartSummary, error) {
	var summary domain.CartSummary
	err := s.locker.WithLock(ctx, sessionLock(sess), func(ctx context.Context) error {
		cart, err := s.Load(ctx, sess)
		if err != nil {
			return err
		}
		if err := fn(cart); err != nil {
			return err
		}
		if err := s.save(ctx, sess, cart); err != nil {
			mylogger.Error(ctx, s.logger, "Failed to persist cart", zap.String("session_id", sess.ID), zap.Error(err))
			return err
		}
		summary = cart.Summarize(s.policy)
		return nil
	})
	return summary, err
}

// AddItem merges quantity into the line for p, appending it if new.
func (s *CartService) AddItem(ctx context.Context, sess *session.Session, p domain.Product, quantity int64) (domain.CartSummary, error) {
	if quantity <= 0 || p.ID <= 0 {
		return domain.CartSummary{}, ErrInvalidInput
	}
	return s.mutate(ctx, sess, func(c *domain.Cart) error {
		if !c.CanAdd(p, quantity) {
			mylogger.Warn(ctx, s.logger, "Cart total would overflow", zap.String("session_id", sess.ID), zap.Int64("product_id", p.ID))
			return ErrCartTotalTooLarge
		}
		c.AddItem(p, quantity)
		return nil
	})
}

// SetQuantity replaces the stored quantity; zero or below removes the line.
func (s *CartService) SetQuantity(ctx context.Context, sess *session.Session, productID, quantity int64) (domain.CartSummary, error) {
	return s.mutate(ctx, sess, func(c *domain.Cart) error {
		if !c.CanSet(productID, quantity) {
			mylogger.Warn(ctx, s.logger, "Cart total would overflow", zap.String("session_id", sess.ID), zap.Int64("product_id", productID))
			return ErrCartTotalTooLarge
		}
		c.SetQuantity(productID, quantity)
		return nil
	})
}

func (s *CartService) RemoveItem(ctx context.Context, sess *session.Session, productID int64) (domain.CartSummary, error) {
	return s.mutate(ctx, sess, func(c *domain.Cart) error {
		c.RemoveItem(productID)
		return nil
	})
}

func (s *CartService) Clear(ctx context.Context, sess *session.Session) error {
	_, err := s.mutate(ctx, sess, func(c *domain.Cart) error {
		c.Clear()
		return nil
	})
	return err
}
