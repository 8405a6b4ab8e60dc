package notify

import (
	"context"
	"testing"

	"github.com/acksell/storefront/internal/order"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func testOrder() order.Order {
	return order.Order{
		Email:    "kim@example.se",
		ID:       "01A",
		Lines:    []order.Line{{ProductID: "p1", Name: "lamp", Price: 19.99, Quantity: 2}},
		Shipping: order.Contact{Name: "Kim"},
		Total:    39.98,
		Status:   order.StatusPlaced,
	}
}

func TestDisabledNotifierValidatesAndSkips(t *testing.T) {
	n := New("", "orders@x.se", false, zerolog.Nop())
	err := n.OrderChanged(context.Background(), testOrder(), "subject", "headline")
	assert.NoError(t, err)
}

func TestRejectsInvalidRecipient(t *testing.T) {
	n := New("", "orders@x.se", false, zerolog.Nop())
	o := testOrder()
	o.Email = "not-an-address"
	err := n.OrderChanged(context.Background(), o, "subject", "headline")
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	for _, typ := range []string{"ORDER_CREATED", "ORDER_UPDATED", "ORDER_DELETED"} {
		subject, headline, ok := Describe(typ)
		assert.True(t, ok, typ)
		assert.NotEmpty(t, subject)
		assert.NotEmpty(t, headline)
	}
	_, _, ok := Describe("PRODUCT_CREATED")
	assert.False(t, ok, "product events do not email customers")
}
