// Package order stores placed orders in the orders table, keyed by
// customer email with a time-ordered identifier as sort key.
package order

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Statuses an order moves through.
const (
	StatusPlaced    = "PLACED"
	StatusConfirmed = "CONFIRMED"
	StatusShipped   = "SHIPPED"
	StatusDelivered = "DELIVERED"
	StatusCancelled = "CANCELLED"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusPlaced, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Line is one product position on an order.
type Line struct {
	ProductID string  `json:"productId" dynamodbav:"product_id" validate:"required"`
	Name      string  `json:"name" dynamodbav:"name" validate:"required"`
	Price     float64 `json:"price" dynamodbav:"price" validate:"gte=0"`
	Quantity  int     `json:"quantity" dynamodbav:"quantity" validate:"gte=1"`
}

// Contact is a billing or shipping record.
type Contact struct {
	Name       string `json:"name" dynamodbav:"name" validate:"required"`
	Address    string `json:"address" dynamodbav:"address" validate:"required"`
	City       string `json:"city" dynamodbav:"city" validate:"required"`
	Country    string `json:"country" dynamodbav:"country" validate:"required"`
	PostalCode string `json:"postalCode" dynamodbav:"postal_code" validate:"required"`
}

// Order is the stored record. Email is the partition key, ID the sort key.
type Order struct {
	Email    string    `json:"email" dynamodbav:"email"`
	ID       string    `json:"id" dynamodbav:"id"`
	Lines    []Line    `json:"lines" dynamodbav:"lines"`
	Billing  Contact   `json:"billing" dynamodbav:"billing"`
	Shipping Contact   `json:"shipping" dynamodbav:"shipping"`
	Total    float64   `json:"total" dynamodbav:"total"`
	Status   string    `json:"status" dynamodbav:"status"`
	Created  time.Time `json:"created" dynamodbav:"created"`
}

func (o Order) IsValid() error {
	if o.Email == "" {
		return fmt.Errorf("order email is required")
	}
	if o.ID == "" {
		return fmt.Errorf("order id is required")
	}
	if len(o.Lines) == 0 {
		return fmt.Errorf("order has no lines")
	}
	for i, l := range o.Lines {
		if l.ProductID == "" {
			return fmt.Errorf("line %d has no product id", i)
		}
		if l.Quantity < 1 {
			return fmt.Errorf("line %d quantity must be at least 1", i)
		}
	}
	if !ValidStatus(o.Status) {
		return fmt.Errorf("unknown order status %q", o.Status)
	}
	return nil
}

// SumLines computes the order total from its lines.
func (o Order) SumLines() float64 {
	var total float64
	for _, l := range o.Lines {
		total += l.Price * float64(l.Quantity)
	}
	return total
}

// NewID generates a lexically time-ordered identifier, so a partition
// query returns a customer's orders in placement order.
func NewID(now time.Time) string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(now.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}
