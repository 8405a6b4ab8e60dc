package httpapi

import (
	"net/http"
	"time"

	"github.com/acksell/storefront/internal/bus"
	"github.com/acksell/storefront/internal/event"
	"github.com/acksell/storefront/internal/order"
)

type createOrderRequest struct {
	Email    string        `json:"email" validate:"required,email"`
	Lines    []order.Line  `json:"lines" validate:"required,min=1,dive"`
	Billing  order.Contact `json:"billing" validate:"required"`
	Shipping order.Contact `json:"shipping" validate:"required"`
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeValidationError(w, r, err)
		return
	}
	now := time.Now().UTC()
	o := order.Order{
		Email:    req.Email,
		ID:       order.NewID(now),
		Lines:    req.Lines,
		Billing:  req.Billing,
		Shipping: req.Shipping,
		Status:   order.StatusPlaced,
		Created:  now,
	}
	o.Total = o.SumLines()
	if err := s.orders.Create(r.Context(), o); err != nil {
		writeStoreError(w, r, err, "order not found")
		return
	}
	s.publish(r, bus.OrderCreated, o.ID, o)
	writeJSON(w, http.StatusCreated, o)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, r, http.StatusBadRequest, "email query parameter is required")
		return
	}
	orders, err := s.orders.ListByEmail(r.Context(), email)
	if err != nil {
		writeStoreError(w, r, err, "orders not found")
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.orders.Get(r.Context(), r.PathValue("email"), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PLACED CONFIRMED SHIPPED DELIVERED CANCELLED"`
}

func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateOrderStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeValidationError(w, r, err)
		return
	}
	email, id := r.PathValue("email"), r.PathValue("id")
	if err := s.orders.UpdateStatus(r.Context(), email, id, req.Status); err != nil {
		writeStoreError(w, r, err, "order not found")
		return
	}
	o, err := s.orders.Get(r.Context(), email, id)
	if err != nil {
		writeStoreError(w, r, err, "order not found")
		return
	}
	s.publish(r, bus.OrderUpdated, o.ID, o)
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) deleteOrder(w http.ResponseWriter, r *http.Request) {
	email, id := r.PathValue("email"), r.PathValue("id")
	// Fetch first so the published event can carry the final snapshot.
	o, err := s.orders.Get(r.Context(), email, id)
	if err != nil {
		writeStoreError(w, r, err, "order not found")
		return
	}
	if err := s.orders.Delete(r.Context(), email, id); err != nil {
		writeStoreError(w, r, err, "order not found")
		return
	}
	s.publish(r, bus.OrderDeleted, o.ID, o)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listOrderEvents(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "id query parameter is required")
		return
	}
	records, err := s.events.List(r.Context(), event.KindOrder, id, r.URL.Query().Get("type"))
	if err != nil {
		writeStoreError(w, r, err, "events not found")
		return
	}
	if records == nil {
		records = []event.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}
