package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var e jx.Encoder
	e.ArrStart()
	for i := range products {
		h.encodeProduct(&e, &products[i])
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, &e)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var e jx.Encoder
	h.encodeProduct(&e, p)
	writeJSON(w, http.StatusOK, &e)
}
