package domain

import "time"

type EventItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type OrderCreatedEvent struct {
	OrderID      int         `json:"order_id"`
	RestaurantID int         `json:"restaurant_id"`
	TableNumber  string      `json:"table_number"`
	Items        []EventItem `json:"items"`
	Total        float64     `json:"total"`
	CreatedAt    time.Time   `json:"created_at"`
}

type OrderStatusChangedEvent struct {
	OrderID      int         `json:"order_id"`
	RestaurantID int         `json:"restaurant_id"`
	From         OrderStatus `json:"from"`
	To           OrderStatus `json:"to"`
	ChangedBy    string      `json:"changed_by"`
	ChangedAt    time.Time   `json:"changed_at"`
}
