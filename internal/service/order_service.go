package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"boardshop/internal/domain"
	"boardshop/internal/mylogger"
	"boardshop/internal/repository"
	"boardshop/internal/session"
)

const orderNumberAttempts = 5

// OrderService реализует логику заказов: выдача номера, сохранение, оформление корзины
type OrderService struct {
	store  repository.Store
	locker repository.Locker
	carts  *CartService
	prefix string
	logger *zap.Logger

	now       func() time.Time
	newSuffix func() (string, error)
}

type OrderOption func(*OrderService)

func WithOrderClock(now func() time.Time) OrderOption {
	return func(s *OrderService) { s.now = now }
}

// WithSuffixGenerator replaces the random six-digit order number suffix.
func WithSuffixGenerator(gen func() (string, error)) OrderOption {
	return func(s *OrderService) { s.newSuffix = gen }
}

func NewOrderService(
	store repository.Store,
	locker repository.Locker,
	carts *CartService,
	prefix string,
	logger *zap.Logger,
	opts ...OrderOption,
) *OrderService {
	if prefix == "" {
		prefix = "BG"
	}
	s := &OrderService{
		store:     store,
		locker:    locker,
		carts:     carts,
		prefix:    prefix,
		logger:    logger,
		now:       time.Now,
		newSuffix: randomSixDigits,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// nextNumber must run under the orders lock.
func (s *OrderService) nextNumber(ctx context.Context, year int) (string, error) {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		suffix, err := s.newSuffix()
		if err != nil {
			return "", err
		}
		number := fmt.Sprintf("%s-%d-%s", s.prefix, year, suffix)

		_, err = s.store.Get(ctx, repository.OrderKey(number))
		if errors.Is(err, repository.ErrNotFound) {
			return number, nil
		}
		if err != nil {
			return "", fmt.Errorf("error checking order number: %w", err)
		}

		mylogger.Debug(ctx, s.logger, "Order number collision", zap.String("order_number", number))
	}
	return "", ErrOrderNumberExhausted
}

// CreateOrder persists a confirmed order and points the session's last_order at it.
func (s *OrderService) CreateOrder(
	ctx context.Context,
	sess *session.Session,
	items []domain.CartLineItem,
	subtotal, tax, shipping, total int64,
) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	// UTC without a monotonic reading, so the stored copy decodes to an identical value
	now := s.now().UTC()
	order := domain.Order{
		ID:       uuid.NewString(),
		Date:     now,
		Items:    append([]domain.CartLineItem(nil), items...),
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    total,
		Status:   domain.OrderStatusConfirmed,
	}

	err := s.locker.WithLock(ctx, ordersLock, func(ctx context.Context) error {
		number, err := s.nextNumber(ctx, now.Year())
		if err != nil {
			return err
		}
		order.OrderNumber = number
		return repository.SetJSON(ctx, s.store, repository.OrderKey(number), order)
	})
	if err != nil {
		mylogger.Error(ctx, s.logger, "Error creating order", zap.String("session_id", sess.ID), zap.Error(err))
		return nil, err
	}

	err = s.locker.WithLock(ctx, sessionLock(sess), func(ctx context.Context) error {
		return sessionStore(s.store, sess).Set(ctx, repository.KeyLastOrder, []byte(order.OrderNumber))
	})
	if err != nil {
		mylogger.Error(ctx, s.logger, "Error saving last order", zap.String("order_number", order.OrderNumber), zap.Error(err))
		return nil, err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Order created",
		zap.String("order_number", order.OrderNumber),
		zap.Int64("total", order.Total),
	)
	return &order, nil
}

func (s *OrderService) GetOrderByNumber(ctx context.Context, number string) (*domain.Order, error) {
	if number == "" {
		return nil, ErrInvalidInput
	}
	var o domain.Order
	found, err := repository.GetJSON(ctx, s.store, s.logger, repository.OrderKey(number), &o)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrOrderNotFound
	}
	return &o, nil
}

func (s *OrderService) GetLastOrder(ctx context.Context, sess *session.Session) (*domain.Order, error) {
	raw, err := sessionStore(s.store, sess).Get(ctx, repository.KeyLastOrder)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return s.GetOrderByNumber(ctx, string(raw))
}

// Checkout turns the session cart into an order and empties the cart.
func (s *OrderService) Checkout(ctx context.Context, sess *session.Session) (*domain.Order, error) {
	var created *domain.Order
	err := s.locker.WithLock(ctx, sessionLock(sess), func(ctx context.Context) error {
		cart, err := s.carts.Load(ctx, sess)
		if err != nil {
			return err
		}
		if cart.ItemCount() == 0 {
			return ErrEmptyCart
		}

		policy := s.carts.Policy()
		created, err = s.CreateOrder(
			ctx,
			sess,
			cart.Snapshot(),
			cart.Subtotal(),
			0,
			cart.ShippingCost(policy),
			cart.FinalTotal(policy),
		)
		if err != nil {
			return err
		}

		return s.carts.Clear(ctx, sess)
	})
	if err != nil {
		if errors.Is(err, ErrEmptyCart) {
			mylogger.Warn(ctx, s.logger, "Checkout with empty cart", zap.String("session_id", sess.ID))
		}
		return nil, err
	}
	return created, nil
}
