// Package httpx is the HTTP edge: routing, DTO mapping and the translation
// of core errors into statuses. No business rules live here.
package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Mojahedhu/Mojahed-Store/internal/httpx/middlewares"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Orders   *OrderHandler
	Webhooks *WebhookHandler
	Users    *UserHandler
	Catalog  *CatalogHandler
	Auth     *middlewares.Authenticator
}

func NewRouter(h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/", h.Users.Register)
		r.Post("/auth", h.Users.Login)
		r.Post("/logout", h.Users.Logout)

		r.Group(func(r chi.Router) {
			r.Use(h.Auth.Authenticate)
			r.Get("/profile", h.Users.Profile)
			r.Put("/profile", h.Users.UpdateProfile)

			r.Group(func(r chi.Router) {
				r.Use(middlewares.RequireAdmin)
				r.Get("/", h.Users.List)
				r.Get("/{id}", h.Users.Get)
				r.Put("/{id}", h.Users.Update)
				r.Delete("/{id}", h.Users.Delete)
			})
		})
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.Catalog.ListProducts)
		r.Get("/{id}", h.Catalog.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(h.Auth.Authenticate, middlewares.RequireAdmin)
			r.Post("/", h.Catalog.CreateProduct)
			r.Put("/{id}", h.Catalog.UpdateProduct)
			r.Delete("/{id}", h.Catalog.DeleteProduct)
		})
	})

	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", h.Catalog.ListCategories)
		r.Get("/{id}", h.Catalog.GetCategory)

		r.Group(func(r chi.Router) {
			r.Use(h.Auth.Authenticate, middlewares.RequireAdmin)
			r.Post("/", h.Catalog.CreateCategory)
			r.Put("/{id}", h.Catalog.UpdateCategory)
			r.Delete("/{id}", h.Catalog.DeleteCategory)
		})
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(h.Auth.Authenticate)

		r.Post("/", h.Orders.Create)
		r.Get("/mine", h.Orders.ListMine)

		r.Group(func(r chi.Router) {
			r.Use(middlewares.RequireAdmin)
			r.Get("/", h.Orders.List)
			r.Get("/total-orders", h.Orders.Count)
			r.Get("/total-sales", h.Orders.TotalSales)
			r.Get("/total-sales-by-date", h.Orders.TotalSalesByDate)
			r.Put("/{id}/deliver", h.Orders.Deliver)
		})

		r.Get("/{id}", h.Orders.Get)
		r.Delete("/{id}", h.Orders.Delete)
		r.Put("/{id}/payment-method", h.Orders.ChangePaymentMethod)
		r.Post("/{id}/create-stripe", h.Orders.CreateStripePayment)
		r.Put("/{id}/verify-stripe", h.Orders.VerifyStripePayment)
		r.Post("/{id}/create-paypal", h.Orders.CreatePayPalOrder)
		r.Put("/{id}/capture-paypal", h.Orders.CapturePayPalOrder)
	})

	// Webhooks authenticate by processor signature, never by session.
	r.Route("/api/webhooks", func(r chi.Router) {
		r.Post("/stripe", h.Webhooks.Stripe)
		r.Post("/paypal", h.Webhooks.PayPal)
	})

	return otelhttp.NewHandler(r, "storefront")
}
