// Package catalog stores the product catalog in the products table.
package catalog

import (
	"fmt"
)

// Product is a catalog entry. ID is the partition key; the table has no
// sort key.
type Product struct {
	ID    string  `json:"id" dynamodbav:"id" validate:"required"`
	Name  string  `json:"name" dynamodbav:"name" validate:"required"`
	Code  string  `json:"code" dynamodbav:"code" validate:"required"`
	Price float64 `json:"price" dynamodbav:"price" validate:"gte=0"`
	Model string  `json:"model,omitempty" dynamodbav:"model,omitempty"`
	URL   string  `json:"url,omitempty" dynamodbav:"url,omitempty" validate:"omitempty,url"`
}

func (p Product) IsValid() error {
	if p.ID == "" {
		return fmt.Errorf("product id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("product name is required")
	}
	if p.Code == "" {
		return fmt.Errorf("product code is required")
	}
	if p.Price < 0 {
		return fmt.Errorf("product price must not be negative")
	}
	return nil
}
