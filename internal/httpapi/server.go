// Package httpapi is the gateway-facing surface: JSON handlers for the
// routes the stack declares, request validation, and the uniform error
// envelope.
package httpapi

import (
	"fmt"
	"net/http"

	"github.com/acksell/storefront/infra"
	"github.com/acksell/storefront/internal/bus"
	"github.com/acksell/storefront/internal/catalog"
	"github.com/acksell/storefront/internal/event"
	"github.com/acksell/storefront/internal/order"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type Server struct {
	products  *catalog.Store
	orders    *order.Store
	events    *event.Store
	publisher bus.Publisher
	validate  *validator.Validate
	logger    zerolog.Logger
}

func NewServer(products *catalog.Store, orders *order.Store, events *event.Store, publisher bus.Publisher, logger zerolog.Logger) *Server {
	return &Server{
		products:  products,
		orders:    orders,
		events:    events,
		publisher: publisher,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger.With().Str("component", "httpapi").Logger(),
	}
}

// Handler builds the router from the declared routes. Every operation id
// in the stack must have a handler here; a missing one is a wiring error.
func (s *Server) Handler(routes []infra.Route) (http.Handler, error) {
	handlers := map[string]http.HandlerFunc{
		"CreateProduct":     s.createProduct,
		"ListProducts":      s.listProducts,
		"GetProduct":        s.getProduct,
		"UpdateProduct":     s.updateProduct,
		"DeleteProduct":     s.deleteProduct,
		"CreateOrder":       s.createOrder,
		"ListOrders":        s.listOrders,
		"GetOrder":          s.getOrder,
		"UpdateOrderStatus": s.updateOrderStatus,
		"DeleteOrder":       s.deleteOrder,
		"ListOrderEvents":   s.listOrderEvents,
	}

	mux := http.NewServeMux()
	for _, route := range routes {
		h, ok := handlers[route.Operation]
		if !ok {
			return nil, fmt.Errorf("no handler for operation %q", route.Operation)
		}
		mux.HandleFunc(route.Method+" "+route.Path, h)
	}
	// Anything the gateway lets through that matches no declared route.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path))
	})
	return requestContext(s.logger, mux), nil
}

// publish pushes an event to the topic. The write already happened, so a
// publish failure is logged and the request still succeeds; the audit
// trail loses a row rather than the client an order.
func (s *Server) publish(r *http.Request, eventType, entityID string, payload any) {
	ev, err := bus.NewEvent(eventType, entityID, payload)
	if err == nil {
		err = s.publisher.Publish(r.Context(), ev)
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("eventType", eventType).Str("entityId", entityID).Msg("event publish failed")
	}
}
