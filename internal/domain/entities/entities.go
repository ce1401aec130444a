package entities

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrNetwork          = errors.New("network error")
	ErrProductNotFound  = errors.New("product not found in catalog")
	ErrListCreation     = errors.New("failed to create grocery list")
	ErrItemAppend       = errors.New("failed to add item to list")
	ErrNotAuthenticated = errors.New("no authenticated user")
)

// InventoryLevel is the stock level reported by the catalog for a product.
type InventoryLevel string

const (
	InventoryHigh       InventoryLevel = "HIGH"
	InventoryMedium     InventoryLevel = "MEDIUM"
	InventoryLow        InventoryLevel = "LOW"
	InventoryOutOfStock InventoryLevel = "OUT_OF_STOCK"
)

// InStock reports whether a product at this level can still be purchased.
// Every level except OUT_OF_STOCK counts as purchasable.
func (l InventoryLevel) InStock() bool {
	return l != InventoryOutOfStock
}

// Label returns a human-readable description of the inventory level.
func (l InventoryLevel) Label() string {
	switch l {
	case InventoryHigh:
		return "In Stock"
	case InventoryMedium:
		return "Limited"
	case InventoryLow:
		return "Low Stock"
	case InventoryOutOfStock:
		return "Out of Stock"
	default:
		return "Unknown"
	}
}

// User is the identity for all list operations. A single active user is
// persisted client-side under a fixed session slot until explicitly cleared.
type User struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	PreferredLocation string `json:"preferred_location"`
}

// Product is a catalog entry returned by product search. UPC is the stable
// product identifier. Price fields are pointers because the backend
// serializes unknown prices as null.
type Product struct {
	Name            string         `json:"name"`
	Price           *float64       `json:"price"`
	PromoPrice      *float64       `json:"promo_price,omitempty"`
	Brand           string         `json:"brand"`
	UPC             string         `json:"upc"`
	Size            string         `json:"size,omitempty"`
	Inventory       InventoryLevel `json:"inventory"`
	FulfillmentType string         `json:"fulfillment_type"`
	LocationID      string         `json:"location_id"`
}

// GroceryList is a persisted list owned by exactly one user. TotalCost and
// ItemCount are maintained by the backend and are authoritative when present.
type GroceryList struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	Timestamp string        `json:"timestamp"`
	Items     []GroceryItem `json:"items"`
	TotalCost float64       `json:"total_cost"`
	ItemCount int           `json:"item_count"`
}

// GroceryItem is an item persisted within a grocery list.
type GroceryItem struct {
	Name     string   `json:"name"`
	Price    *float64 `json:"price"`
	Brand    string   `json:"brand"`
	UPC      string   `json:"upc"`
	Quantity int      `json:"quantity"`
	Subtotal float64  `json:"subtotal"`
}

// DisplayItem is the projection of a persisted or freshly resolved item for
// presentation. Category, Store and HealthScore are placeholders until the
// backend enriches items with that data. OriginalPrice is set only when the
// item carries a promotion, and then holds the regular (pre-promo) price.
type DisplayItem struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"original_price,omitempty"`
	UPC           string   `json:"upc"`
	Store         string   `json:"store"`
	InStock       bool     `json:"in_stock"`
	HealthScore   *int     `json:"health_score,omitempty"`
}

// Savings returns how much the promotion saves over the regular price.
// Zero when the item has no promotion.
func (i DisplayItem) Savings() float64 {
	if i.OriginalPrice == nil {
		return 0
	}
	return *i.OriginalPrice - i.Price
}

// Totals aggregates the cost of a display list.
type Totals struct {
	TotalCost    float64 `json:"total_cost"`
	TotalSavings float64 `json:"total_savings"`
}

// FormatPrice renders a nullable price for display.
func FormatPrice(price *float64) string {
	if price == nil {
		return "N/A"
	}
	return fmt.Sprintf("$%.2f", *price)
}
