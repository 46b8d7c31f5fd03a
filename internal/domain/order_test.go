package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatusCanTransitionTo(t *testing.T) {
	allowed := []struct {
		from, to OrderStatus
	}{
		{OrderStatusPending, OrderStatusProcessing},
		{OrderStatusProcessing, OrderStatusShipped},
		{OrderStatusShipped, OrderStatusDelivered},
		{OrderStatusPending, OrderStatusCancelled},
		{OrderStatusProcessing, OrderStatusCancelled},
		{OrderStatusShipped, OrderStatusCancelled},
	}
	for _, tt := range allowed {
		assert.True(t, tt.from.CanTransitionTo(tt.to), "%s -> %s should be allowed", tt.from, tt.to)
	}

	forbidden := []struct {
		from, to OrderStatus
	}{
		{OrderStatusPending, OrderStatusShipped},
		{OrderStatusPending, OrderStatusDelivered},
		{OrderStatusProcessing, OrderStatusDelivered},
		{OrderStatusProcessing, OrderStatusPending},
		{OrderStatusShipped, OrderStatusProcessing},
		{OrderStatusDelivered, OrderStatusCancelled},
		{OrderStatusDelivered, OrderStatusShipped},
		{OrderStatusCancelled, OrderStatusPending},
		{OrderStatusCancelled, OrderStatusProcessing},
		{OrderStatusPending, OrderStatusPending},
	}
	for _, tt := range forbidden {
		assert.False(t, tt.from.CanTransitionTo(tt.to), "%s -> %s should be rejected", tt.from, tt.to)
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.False(t, OrderStatusPending.Terminal())
	assert.False(t, OrderStatusProcessing.Terminal())
	assert.False(t, OrderStatusShipped.Terminal())
	assert.True(t, OrderStatusDelivered.Terminal())
	assert.True(t, OrderStatusCancelled.Terminal())
}

func TestParseOrderStatus(t *testing.T) {
	for _, s := range []string{"pending", "processing", "shipped", "delivered", "cancelled"} {
		status, ok := ParseOrderStatus(s)
		assert.True(t, ok, s)
		assert.Equal(t, OrderStatus(s), status)
	}

	for _, s := range []string{"", "Pending", "SHIPPED", "refunded", "canceled"} {
		_, ok := ParseOrderStatus(s)
		assert.False(t, ok, s)
	}
}

func TestOrderItemSubtotal(t *testing.T) {
	item := OrderItem{
		Price:    decimal.RequireFromString("1499.99"),
		Quantity: 3,
	}
	assert.True(t, item.Subtotal().Equal(decimal.RequireFromString("4499.97")))
}
