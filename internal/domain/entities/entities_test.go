package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInventoryInStock(t *testing.T) {
	assert.True(t, InventoryHigh.InStock())
	assert.True(t, InventoryMedium.InStock())
	assert.True(t, InventoryLow.InStock())
	assert.False(t, InventoryOutOfStock.InStock())
}

func TestInventoryLabel(t *testing.T) {
	assert.Equal(t, "In Stock", InventoryHigh.Label())
	assert.Equal(t, "Limited", InventoryMedium.Label())
	assert.Equal(t, "Low Stock", InventoryLow.Label())
	assert.Equal(t, "Out of Stock", InventoryOutOfStock.Label())
	assert.Equal(t, "Unknown", InventoryLevel("BACKORDERED").Label())
}

func TestFormatPrice(t *testing.T) {
	price := 3.499
	assert.Equal(t, "$3.50", FormatPrice(&price))
	assert.Equal(t, "N/A", FormatPrice(nil))
}

func TestDisplayItemSavings(t *testing.T) {
	orig := 3.49
	promoted := DisplayItem{Price: 2.99, OriginalPrice: &orig}
	assert.InDelta(t, 0.50, promoted.Savings(), 0.001)

	plain := DisplayItem{Price: 8.99}
	assert.Zero(t, plain.Savings())
}
