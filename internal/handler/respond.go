package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/stridekart/fulfillment/internal/domain/inventory"
	"github.com/stridekart/fulfillment/internal/domain/order"
	"github.com/stridekart/fulfillment/internal/domain/product"
	"github.com/stridekart/fulfillment/internal/domain/user"
)

func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(msg)
	e.ObjEnd()
	writeJSON(w, status, &e)
}

// writeDomainError maps core errors to HTTP status codes. Anything
// unrecognized is logged and reported as a 500 without leaking detail.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, user.ErrAddressNotFound):
		writeError(w, http.StatusNotFound, "shipping address not found")
	case errors.Is(err, product.ErrNotFound):
		writeError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, order.ErrUnauthorized), errors.Is(err, order.ErrAddressNotOwned):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, order.ErrEmptyItems):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrNotDelivered), errors.Is(err, order.ErrReturnWindowExpired):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		var (
			quantityErr   *order.InvalidQuantityError
			notFoundErr   *order.ProductNotFoundError
			stockErr      *inventory.InsufficientStockError
			stateErr      *order.InvalidStateError
			transitionErr *order.InvalidTransitionError
		)
		switch {
		case errors.As(err, &quantityErr):
			writeError(w, http.StatusUnprocessableEntity, quantityErr.Error())
		case errors.As(err, &notFoundErr):
			writeError(w, http.StatusUnprocessableEntity, notFoundErr.Error())
		case errors.As(err, &stockErr):
			writeError(w, http.StatusConflict, stockErr.Error())
		case errors.As(err, &stateErr):
			writeError(w, http.StatusConflict, stateErr.Error())
		case errors.As(err, &transitionErr):
			writeError(w, http.StatusConflict, transitionErr.Error())
		default:
			zctx.From(r.Context()).Error("internal error", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
	}
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("orderNumber")
	e.Str(o.OrderNumber)
	e.FieldStart("userId")
	e.Str(o.UserID)
	e.FieldStart("shippingAddressId")
	e.Str(o.AddressID)
	e.FieldStart("totalAmount")
	e.Float64(o.TotalAmount.InexactFloat64())
	e.FieldStart("status")
	e.Str(o.Status.String())
	e.FieldStart("paymentMethod")
	e.Str(o.PaymentMethod.String())
	e.FieldStart("paymentId")
	e.Str(o.PaymentID)
	e.FieldStart("orderDate")
	e.Str(o.OrderDate.Format(time.RFC3339))
	e.FieldStart("deliveryDate")
	encodeTimePtr(e, o.DeliveryDate)
	e.FieldStart("returnRequested")
	e.Bool(o.ReturnRequested)
	e.FieldStart("returnRequestDate")
	encodeTimePtr(e, o.ReturnRequestDate)
	e.FieldStart("returnReason")
	e.Str(o.ReturnReason)
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range o.Items {
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(it.ProductID)
		e.FieldStart("productName")
		e.Str(it.ProductName)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.FieldStart("size")
		e.Str(it.Size)
		e.FieldStart("color")
		e.Str(it.Color)
		e.FieldStart("unitPrice")
		e.Float64(it.UnitPrice.InexactFloat64())
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

func encodeOrders(e *jx.Encoder, orders []order.Order) {
	e.ArrStart()
	for i := range orders {
		encodeOrder(e, &orders[i])
	}
	e.ArrEnd()
}

func encodeTimePtr(e *jx.Encoder, t *time.Time) {
	if t == nil {
		e.Null()
		return
	}
	e.Str(t.Format(time.RFC3339))
}

func (h *Handler) encodeProduct(e *jx.Encoder, p *product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("price")
	e.Float64(p.Price.InexactFloat64())
	e.FieldStart("stockQuantity")
	e.Int(p.StockQuantity)
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("brand")
	e.Str(p.Brand)
	e.FieldStart("sizes")
	encodeStrings(e, p.Sizes)
	e.FieldStart("colors")
	encodeStrings(e, p.Colors)
	e.FieldStart("imageUrls")
	e.ArrStart()
	for _, u := range p.ImageURLs {
		e.Str(h.imageURL(u))
	}
	e.ArrEnd()
	e.FieldStart("featured")
	e.Bool(p.Featured)
	e.ObjEnd()
}

func encodeStrings(e *jx.Encoder, ss []string) {
	e.ArrStart()
	for _, s := range ss {
		e.Str(s)
	}
	e.ArrEnd()
}

func (h *Handler) imageURL(path string) string {
	if h.imageBaseURL == "" || path == "" {
		return path
	}
	return h.imageBaseURL + "/" + path
}
