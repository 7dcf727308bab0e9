package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/medishop/internal/cart"
	"github.com/flicky/medishop/internal/model"
)

// --- Auth ---

type RegisterRequest struct {
	Email           string     `json:"email" binding:"required,email"`
	Password        string     `json:"password" binding:"required,min=6"`
	ConfirmPassword string     `json:"confirm_password" binding:"required,eqfield=Password"`
	Role            model.Role `json:"role" binding:"required,oneof=buyer seller"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	CreatedAt time.Time  `json:"created_at,omitempty"`
}

type UpdateRoleRequest struct {
	Role model.Role `json:"role" binding:"required"`
}

// --- Currency ---

type CurrencyResponse struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
}

type CurrencyListResponse struct {
	Currencies []CurrencyResponse `json:"currencies"`
	Selected   string             `json:"selected"`
}

// --- Product ---

type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required,min=3"`
	Description string          `json:"description" binding:"required,min=10"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Category    string          `json:"category" binding:"required,min=2"`
	ImageURL    string          `json:"image_url" binding:"omitempty,url"`
	ImageHint   string          `json:"image_hint"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=3"`
	Description *string          `json:"description" binding:"omitempty,min=10"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category" binding:"omitempty,min=2"`
	ImageURL    *string          `json:"image_url" binding:"omitempty,url"`
	ImageHint   *string          `json:"image_hint"`
}

type ListProductsRequest struct {
	Page     int    `form:"page,default=1" binding:"min=1"`
	Limit    int    `form:"limit,default=20" binding:"min=1,max=100"`
	Search   string `form:"search"`
	Category string `form:"category"`
	Sort     string `form:"sort,default=created_at" binding:"oneof=name price created_at"`
	Order    string `form:"order,default=desc" binding:"oneof=asc desc"`
}

type ProductResponse struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	ImageURL     string          `json:"image_url"`
	ImageHint    string          `json:"image_hint"`
	Price        decimal.Decimal `json:"price"`
	DisplayPrice string          `json:"display_price,omitempty"`
	SellerID     uuid.UUID       `json:"seller_id"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// --- Cart ---

type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
}

// UpdateCartItemRequest accepts quantities up to 99; anything below 1
// removes the item.
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required,max=99"`
}

type CartItemResponse struct {
	ProductID    uuid.UUID       `json:"product_id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	ImageURL     string          `json:"image_url"`
	ImageHint    string          `json:"image_hint"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	LineTotal    decimal.Decimal `json:"line_total"`
	DisplayTotal string          `json:"display_total"`
}

type CartResponse struct {
	Items        []CartItemResponse  `json:"items"`
	Total        decimal.Decimal     `json:"total"`
	DisplayTotal string              `json:"display_total"`
	Currency     string              `json:"currency"`
	ItemCount    int                 `json:"item_count"`
	Initialized  bool                `json:"initialized"`
	Notices      []cart.Notification `json:"notices"`
}

// --- Checkout ---

type CheckoutRequest struct {
	FullName   string `json:"full_name" binding:"required,min=2"`
	Address    string `json:"address" binding:"required,min=5"`
	City       string `json:"city" binding:"required,min=2"`
	State      string `json:"state" binding:"required,min=2"`
	Zip        string `json:"zip" binding:"required,zip"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone" binding:"required,phone"`
	CardNumber string `json:"card_number" binding:"required,len=16,numeric"`
	ExpiryDate string `json:"expiry_date" binding:"required,expiry"`
	CVV        string `json:"cvv" binding:"required,min=3,max=4,numeric"`
}

// --- Order ---

type ShippingAddressResponse struct {
	FullName string `json:"full_name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type OrderResponse struct {
	ID              uuid.UUID               `json:"id"`
	UserID          uuid.UUID               `json:"user_id"`
	UserEmail       string                  `json:"user_email"`
	Status          model.OrderStatus       `json:"status"`
	TotalPrice      decimal.Decimal         `json:"total_price"`
	Currency        string                  `json:"currency"`
	ShippingAddress ShippingAddressResponse `json:"shipping_address"`
	Items           []OrderItemResponse     `json:"items"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

type OrderItemResponse struct {
	ID         uuid.UUID       `json:"id"`
	ProductID  uuid.UUID       `json:"product_id"`
	Name       string          `json:"name"`
	ImageURL   string          `json:"image_url"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required"`
}
