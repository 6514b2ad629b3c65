package httpx

import (
	"time"

	"github.com/Mojahedhu/Mojahed-Store/internal/app"
	"github.com/Mojahedhu/Mojahed-Store/internal/domain"
)

// ── Orders ──────────────────────────────────────────────────────────────

type CreateOrderRequest struct {
	OrderItems      []OrderItemRequest `json:"orderItems"`
	ShippingAddress ShippingAddressDTO `json:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod"`
}

type OrderItemRequest struct {
	Product string `json:"product"`
	Qty     int    `json:"qty"`
}

type ShippingAddressDTO struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type OrderItemResponse struct {
	Product string `json:"product"`
	Name    string `json:"name"`
	Image   string `json:"image"`
	Price   string `json:"price"`
	Qty     int    `json:"qty"`
}

type PaymentResultDTO struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	UpdateTime string `json:"updateTime"`
	PayerEmail string `json:"payerEmail"`
}

type OrderResponse struct {
	ID              string              `json:"id"`
	User            string              `json:"user"`
	OrderItems      []OrderItemResponse `json:"orderItems"`
	ShippingAddress ShippingAddressDTO  `json:"shippingAddress"`
	PaymentMethod   string              `json:"paymentMethod"`
	ItemsPrice      string              `json:"itemsPrice"`
	ShippingPrice   string              `json:"shippingPrice"`
	TaxPrice        string              `json:"taxPrice"`
	TotalPrice      string              `json:"totalPrice"`
	IsPaid          bool                `json:"isPaid"`
	PaidAt          *time.Time          `json:"paidAt,omitempty"`
	PaymentResult   *PaymentResultDTO   `json:"paymentResult,omitempty"`
	IsDelivered     bool                `json:"isDelivered"`
	DeliveredAt     *time.Time          `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

func mapOrder(order *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, OrderItemResponse{
			Product: it.ProductID,
			Name:    it.Name,
			Image:   it.Image,
			Price:   it.Price.StringFixed(2),
			Qty:     it.Qty,
		})
	}

	resp := OrderResponse{
		ID:         order.ID,
		User:       order.UserID,
		OrderItems: items,
		ShippingAddress: ShippingAddressDTO{
			Address:    order.ShippingAddress.Address,
			City:       order.ShippingAddress.City,
			PostalCode: order.ShippingAddress.PostalCode,
			Country:    order.ShippingAddress.Country,
		},
		PaymentMethod: string(order.PaymentMethod),
		ItemsPrice:    order.Totals.ItemsPrice.StringFixed(2),
		ShippingPrice: order.Totals.ShippingPrice.StringFixed(2),
		TaxPrice:      order.Totals.TaxPrice.StringFixed(2),
		TotalPrice:    order.Totals.TotalPrice.StringFixed(2),
		IsPaid:        order.IsPaid,
		PaidAt:        order.PaidAt,
		IsDelivered:   order.IsDelivered,
		DeliveredAt:   order.DeliveredAt,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
	if order.PaymentResult != nil {
		resp.PaymentResult = &PaymentResultDTO{
			ID:         order.PaymentResult.TransactionID,
			Status:     order.PaymentResult.Status,
			UpdateTime: order.PaymentResult.UpdateTime,
			PayerEmail: order.PaymentResult.PayerEmail,
		}
	}
	return resp
}

func mapOrders(orders []domain.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, mapOrder(&orders[i]))
	}
	return out
}

type PaymentMethodRequest struct {
	PaymentMethod string `json:"paymentMethod"`
}

type CreateStripePaymentRequest struct {
	Amount string `json:"amount"`
}

type CreateStripePaymentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

type VerifyStripePaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

type CreatePayPalOrderResponse struct {
	OrderID string `json:"orderId"`
}

type CapturePayPalOrderRequest struct {
	PayPalOrderID string `json:"paypalOrderId"`
}

type TotalOrdersResponse struct {
	TotalOrders int64 `json:"totalOrders"`
}

type TotalSalesResponse struct {
	TotalSales string `json:"totalSales"`
}

type DailySalesDTO struct {
	Date       string `json:"date"`
	TotalSales string `json:"totalSales"`
}

func mapDailySales(rows []app.DailySales) []DailySalesDTO {
	out := make([]DailySalesDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, DailySalesDTO{Date: row.Date, TotalSales: row.Total.StringFixed(2)})
	}
	return out
}

// ── Users ───────────────────────────────────────────────────────────────

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  *bool  `json:"isAdmin"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func mapUser(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func mapUsers(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, mapUser(&users[i]))
	}
	return out
}

// ── Products & categories ───────────────────────────────────────────────

type ProductRequest struct {
	Name         string `json:"name"`
	Image        string `json:"image"`
	ImageID      string `json:"imageId"`
	Brand        string `json:"brand"`
	Quantity     int    `json:"quantity"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	Price        string `json:"price"`
	CountInStock int    `json:"countInStock"`
}

type ProductResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Image        string    `json:"image"`
	Brand        string    `json:"brand"`
	Quantity     int       `json:"quantity"`
	Category     string    `json:"category"`
	Description  string    `json:"description"`
	Rating       float64   `json:"rating"`
	NumReviews   int       `json:"numReviews"`
	Price        string    `json:"price"`
	CountInStock int       `json:"countInStock"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func mapProduct(product *domain.Product) ProductResponse {
	return ProductResponse{
		ID:           product.ID,
		Name:         product.Name,
		Image:        product.Image,
		Brand:        product.Brand,
		Quantity:     product.Quantity,
		Category:     product.CategoryID,
		Description:  product.Description,
		Rating:       product.Rating,
		NumReviews:   product.NumReviews,
		Price:        product.Price.StringFixed(2),
		CountInStock: product.CountInStock,
		CreatedAt:    product.CreatedAt,
		UpdatedAt:    product.UpdatedAt,
	}
}

func mapProducts(products []domain.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, mapProduct(&products[i]))
	}
	return out
}

type CategoryRequest struct {
	Name string `json:"name"`
}

type CategoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func mapCategory(category *domain.Category) CategoryResponse {
	return CategoryResponse{ID: category.ID, Name: category.Name}
}

func mapCategories(categories []domain.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, mapCategory(&categories[i]))
	}
	return out
}
