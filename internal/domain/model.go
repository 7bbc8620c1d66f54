package domain

import "time"

type Restaurant struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	ContactEmail string    `json:"contact_email"`
	CreatedAt    time.Time `json:"created_at"`
}

type Category struct {
	ID           int    `json:"id"`
	RestaurantID int    `json:"restaurant_id"`
	Name         string `json:"name"`
	Position     int    `json:"position"`
}

type MenuItem struct {
	ID           int     `json:"id"`
	RestaurantID int     `json:"restaurant_id"`
	CategoryID   int     `json:"category_id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Image        *string `json:"image,omitempty"`
	Available    bool    `json:"available"`
}

type Table struct {
	ID           int    `json:"id"`
	RestaurantID int    `json:"restaurant_id"`
	Number       string `json:"number"`
	Seats        int    `json:"seats"`
}

type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"` // admin | staff
	PasswordHash string    `json:"-"`
	RestaurantID *int      `json:"restaurant_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Order struct {
	ID           int         `json:"id"`
	RestaurantID int         `json:"restaurant_id"`
	TableNumber  string      `json:"table_number"`
	Status       OrderStatus `json:"status"`
	Total        float64     `json:"total"`
	Items        []OrderItem `json:"items"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type OrderItem struct {
	ID       int     `json:"id"`
	OrderID  int     `json:"order_id"`
	ItemID   int     `json:"item_id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}
