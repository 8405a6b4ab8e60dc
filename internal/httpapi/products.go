package httpapi

import (
	"errors"
	"net/http"

	"github.com/acksell/storefront/dynamo"
	"github.com/acksell/storefront/internal/bus"
	"github.com/acksell/storefront/internal/catalog"
)

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if !decodeBody(w, r, &p) {
		return
	}
	if err := s.validate.Struct(p); err != nil {
		writeValidationError(w, r, err)
		return
	}
	if err := s.products.Create(r.Context(), p); err != nil {
		if errors.Is(err, dynamo.ErrConditionFailed) {
			writeError(w, r, http.StatusConflict, "product already exists")
			return
		}
		writeStoreError(w, r, err, "product not found")
		return
	}
	s.publish(r, bus.ProductCreated, p.ID, p)
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.products.List(r.Context())
	if err != nil {
		writeStoreError(w, r, err, "products not found")
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := s.products.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if !decodeBody(w, r, &p) {
		return
	}
	p.ID = r.PathValue("id")
	if err := s.validate.Struct(p); err != nil {
		writeValidationError(w, r, err)
		return
	}
	if err := s.products.Replace(r.Context(), p); err != nil {
		writeStoreError(w, r, err, "product not found")
		return
	}
	s.publish(r, bus.ProductUpdated, p.ID, p)
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.products.Delete(r.Context(), id); err != nil {
		writeStoreError(w, r, err, "product not found")
		return
	}
	s.publish(r, bus.ProductDeleted, id, nil)
	w.WriteHeader(http.StatusNoContent)
}
