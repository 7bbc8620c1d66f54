package domain

type SubmitOrderItem struct {
	ItemID   int `json:"item_id"`
	Quantity int `json:"quantity"`
}

type SubmitOrderRequest struct {
	RestaurantID int               `json:"restaurant_id"`
	TableNumber  string            `json:"table_number"`
	Items        []SubmitOrderItem `json:"items"`
}

type UpdateStatusRequest struct {
	Status OrderStatus `json:"status"`
}

// OrderFilter narrows an order listing. Nil fields match everything.
type OrderFilter struct {
	RestaurantID *int
	Status       *OrderStatus
	Page         int
	PerPage      int
}

type OrderPage struct {
	Orders  []Order `json:"orders"`
	Page    int     `json:"page"`
	PerPage int     `json:"per_page"`
	Total   int     `json:"total"`
}

type Stats struct {
	TotalOrders int                 `json:"total_orders"`
	Revenue     float64             `json:"revenue"`
	ByStatus    map[OrderStatus]int `json:"by_status"`
}

type TableAvailability struct {
	TableNumber string `json:"table_number"`
	Available   bool   `json:"available"`
}

// ErrorResponse is the failure body for every API endpoint; clients
// surface Message verbatim.
type ErrorResponse struct {
	Message string `json:"message"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
