// Package handler exposes the fulfillment core over a thin JSON HTTP API.
package handler

import (
	"net/http"

	"github.com/stridekart/fulfillment/internal/domain/order"
	"github.com/stridekart/fulfillment/internal/domain/product"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
}

// Handler serves the order and product routes, delegating business logic to
// the order service and product repository.
type Handler struct {
	orders       *order.Service
	products     product.Repository
	imageBaseURL string
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(cfg Config, orders *order.Service, products product.Repository) *Handler {
	return &Handler{
		orders:       orders,
		products:     products,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Register mounts all API routes on mux. Literal segments take precedence
// over the {id} wildcard, so the admin routes must not collide with order
// identifiers; identifiers are UUIDs, "admin" is not.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)

	mux.HandleFunc("GET /api/orders", h.listOrders)
	mux.HandleFunc("POST /api/orders", h.createOrder)
	mux.HandleFunc("GET /api/orders/admin/all", h.listAllOrders)
	mux.HandleFunc("GET /api/orders/admin/status/{status}", h.listOrdersByStatus)
	mux.HandleFunc("GET /api/orders/{id}", h.getOrder)
	mux.HandleFunc("PUT /api/orders/{id}/status", h.setStatus)
	mux.HandleFunc("POST /api/orders/{id}/return", h.requestReturn)
	mux.HandleFunc("POST /api/orders/{id}/verify-otp", h.verifyOTP)
}
