package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/acksell/storefront/dynamo"
	"github.com/acksell/storefront/dynamo/localstore"
	"github.com/acksell/storefront/infra"
	"github.com/acksell/storefront/internal/bus"
	"github.com/acksell/storefront/internal/catalog"
	"github.com/acksell/storefront/internal/event"
	"github.com/acksell/storefront/internal/order"
	"github.com/acksell/storefront/internal/worker"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturePublisher records published events instead of hitting a topic.
type capturePublisher struct {
	mu     sync.Mutex
	events []bus.Event
}

func (p *capturePublisher) Publish(ctx context.Context, ev bus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *capturePublisher) byType(typ string) []bus.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []bus.Event
	for _, ev := range p.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

type testAPI struct {
	handler   http.Handler
	publisher *capturePublisher
	events    *event.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	stack, err := infra.Load("../../infra/stack.yaml")
	require.NoError(t, err)

	store, err := localstore.New(localstore.Options{}, stack.Definitions()...)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	client := dynamo.New(store)
	productsDef, err := stack.TableNamed("products")
	require.NoError(t, err)
	ordersDef, err := stack.TableNamed("orders")
	require.NoError(t, err)
	eventsDef, err := stack.TableNamed("events")
	require.NoError(t, err)

	publisher := &capturePublisher{}
	events := event.NewStore(client, eventsDef.Definition(), 24*time.Hour)
	server := NewServer(
		catalog.NewStore(client, productsDef.Definition()),
		order.NewStore(client, ordersDef.Definition()),
		events,
		publisher,
		zerolog.Nop(),
	)
	handler, err := server.Handler(stack.Routes)
	require.NoError(t, err)
	return &testAPI{handler: handler, publisher: publisher, events: events}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func lampBody() map[string]any {
	return map[string]any{
		"id": "p1", "name": "lamp", "code": "LMP-1", "price": 19.99,
	}
}

func orderBody() map[string]any {
	contact := map[string]any{
		"name": "Kim", "address": "Street 1", "city": "Stockholm",
		"country": "SE", "postalCode": "11111",
	}
	return map[string]any{
		"email": "kim@example.se",
		"lines": []map[string]any{
			{"productId": "p1", "name": "lamp", "price": 19.99, "quantity": 2},
		},
		"billing":  contact,
		"shipping": contact,
	}
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestCreateProductThenGet(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/products", lampBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/products/p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got catalog.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "lamp", got.Name)
	assert.Equal(t, 19.99, got.Price)

	assert.Len(t, api.publisher.byType(bus.ProductCreated), 1)
}

func TestCreateProductDuplicateConflicts(t *testing.T) {
	api := newTestAPI(t)

	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/products", lampBody()).Code)
	rec := api.do(t, http.MethodPost, "/products", lampBody())
	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "product already exists", env.Message)
	assert.NotEmpty(t, env.InvocationID)
}

func TestGetMissingProduct(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/products/ghost", nil, "X-Request-Id", "req-42")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "product not found", env.Message)
	assert.Equal(t, "req-42", env.RequestID, "gateway request id is echoed")
	assert.NotEmpty(t, env.InvocationID)
}

func TestUpdateMissingProduct(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodPut, "/products/ghost", lampBody())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteProduct(t *testing.T) {
	api := newTestAPI(t)

	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/products", lampBody()).Code)
	assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, "/products/p1", nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodDelete, "/products/p1", nil).Code)
	assert.Len(t, api.publisher.byType(bus.ProductDeleted), 1)
}

func TestListProducts(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/products", lampBody()).Code)
	rec = api.do(t, http.MethodGet, "/products", nil)
	var products []catalog.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	assert.Len(t, products, 1)
}

func TestCreateProductValidation(t *testing.T) {
	api := newTestAPI(t)

	body := lampBody()
	delete(body, "name")
	rec := api.do(t, http.MethodPost, "/products", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Contains(t, env.Message, "Name")
}

func TestUnknownRoute(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/warehouses", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Contains(t, env.Message, "no route")
	assert.NotEmpty(t, env.RequestID)
	assert.NotEmpty(t, env.InvocationID)
}

func TestCreateOrderFlow(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/orders", orderBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var placed order.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))
	assert.NotEmpty(t, placed.ID)
	assert.Equal(t, order.StatusPlaced, placed.Status)
	assert.Equal(t, 39.98, placed.Total)

	rec = api.do(t, http.MethodGet, "/orders/kim@example.se/"+placed.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/orders?email=kim@example.se", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var orders []order.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	assert.Len(t, orders, 1)

	require.Len(t, api.publisher.byType(bus.OrderCreated), 1)
}

func TestCreateOrderValidation(t *testing.T) {
	api := newTestAPI(t)

	body := orderBody()
	body["email"] = "not-an-address"
	rec := api.do(t, http.MethodPost, "/orders", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body = orderBody()
	body["lines"] = []map[string]any{}
	rec = api.do(t, http.MethodPost, "/orders", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestListOrdersRequiresEmail(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/orders", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateOrderStatus(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/orders", orderBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	var placed order.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))

	path := "/orders/kim@example.se/" + placed.ID + "/status"
	rec = api.do(t, http.MethodPut, path, map[string]string{"status": "SHIPPED"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated order.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, order.StatusShipped, updated.Status)
	assert.Len(t, api.publisher.byType(bus.OrderUpdated), 1)

	rec = api.do(t, http.MethodPut, path, map[string]string{"status": "TELEPORTED"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUpdateStatusOfMissingOrder(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodPut, "/orders/kim@example.se/01GHOST/status", map[string]string{"status": "SHIPPED"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteOrder(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/orders", orderBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	var placed order.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))

	path := "/orders/kim@example.se/" + placed.ID
	assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodDelete, path, nil).Code)
	assert.Len(t, api.publisher.byType(bus.OrderDeleted), 1)
}

func TestOrderEventsEndToEnd(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/orders", orderBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	var placed order.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))

	// Feed the published events through the audit worker, as the queue
	// would.
	audit := worker.Audit(api.events, zerolog.Nop())
	for _, ev := range api.publisher.byType(bus.OrderCreated) {
		require.NoError(t, audit(context.Background(), ev))
	}

	rec = api.do(t, http.MethodGet, "/orders/events?id="+placed.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var records []event.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, bus.OrderCreated, records[0].EventType)
	assert.Equal(t, placed.ID, records[0].EntityID)
}

func TestOrderEventsRequiresID(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/orders/events", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
