package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/stridekart/fulfillment/internal/domain/order"
)

type orderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

type createOrderRequest struct {
	ShippingAddressID string             `json:"shippingAddressId"`
	PaymentMethod     string             `json:"paymentMethod"`
	PaymentID         string             `json:"paymentId"`
	Items             []orderItemRequest `json:"items"`
}

type returnRequest struct {
	Reason string `json:"reason"`
}

type verifyOTPRequest struct {
	OTP string `json:"otp"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	method, err := order.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items := make([]order.ItemRequest, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.ItemRequest{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Size:      it.Size,
			Color:     it.Color,
		}
	}

	o, err := h.orders.CreateOrder(r.Context(), actor, order.CreateRequest{
		AddressID:     req.ShippingAddressID,
		PaymentMethod: method,
		PaymentID:     req.PaymentID,
		Items:         items,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeOrder(&e, o)
	writeJSON(w, http.StatusCreated, &e)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	o, err := h.orders.GetOrder(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeOrder(&e, o)
	writeJSON(w, http.StatusOK, &e)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	orders, err := h.orders.ListUserOrders(r.Context(), actor)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeOrders(&e, orders)
	writeJSON(w, http.StatusOK, &e)
}

func (h *Handler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	orders, err := h.orders.ListAllOrders(r.Context(), actor)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeOrders(&e, orders)
	writeJSON(w, http.StatusOK, &e)
}

func (h *Handler) listOrdersByStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	status, err := order.ParseStatus(r.PathValue("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	orders, err := h.orders.ListOrdersByStatus(r.Context(), actor, status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeOrders(&e, orders)
	writeJSON(w, http.StatusOK, &e)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	status, err := order.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.orders.SetStatus(r.Context(), actor, r.PathValue("id"), status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeOrder(&e, o)
	writeJSON(w, http.StatusOK, &e)
}

func (h *Handler) requestReturn(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req returnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.orders.RequestReturn(r.Context(), actor, r.PathValue("id"), req.Reason)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeOrder(&e, o)
	writeJSON(w, http.StatusOK, &e)
}

func (h *Handler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	verified, err := h.orders.VerifyDeliveryOTP(r.Context(), actor, r.PathValue("id"), req.OTP)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if !verified {
		writeError(w, http.StatusBadRequest, "invalid OTP")
		return
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("message")
	e.Str("OTP verified successfully")
	e.ObjEnd()
	writeJSON(w, http.StatusOK, &e)
}
