package domain

import "time"

// Product представляет настольную игру в каталоге
type Product struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Image       string `json:"image"`
	CategoryID  int64  `json:"categoryId"`
}

// Category категория каталога
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Catalog документ статического фида
type Catalog struct {
	Categories []Category `json:"categories"`
	Products   []Product  `json:"products"`
}

// OrderStatus тип статуса заказа
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
)

// Order неизменяемый снимок корзины на момент подтверждения
type Order struct {
	ID          string         `json:"id"`
	OrderNumber string         `json:"orderNumber"`
	Date        time.Time      `json:"date"`
	Items       []CartLineItem `json:"items"`
	Subtotal    int64          `json:"subtotal"`
	Tax         int64          `json:"tax"`
	Shipping    int64          `json:"shipping"`
	Total       int64          `json:"total"`
	Status      OrderStatus    `json:"status"`
}
