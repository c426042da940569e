package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{OrderPending, OrderProcessing, true},
		{OrderPending, OrderShipped, true},
		{OrderPending, OrderDelivered, false},
		{OrderProcessing, OrderShipped, true},
		{OrderShipped, OrderDelivered, true},
		{OrderShipped, OrderPending, false},
		{OrderShipped, OrderCancelled, true},
		{OrderDelivered, OrderCancelled, false},
		{OrderCancelled, OrderPending, false},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestParseOrderStatus(t *testing.T) {
	st, err := ParseOrderStatus("Shipped")
	assert.NoError(t, err)
	assert.Equal(t, OrderShipped, st)

	_, err = ParseOrderStatus("shipped")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestOrderActions(t *testing.T) {
	assert.Empty(t, OrderActions(OrderDelivered, false, true))
	assert.Empty(t, OrderActions(OrderCancelled, false, true))
	assert.Empty(t, OrderActions(OrderDelivered, true, false))

	assert.Equal(t, []OrderStatus{OrderCancelled}, OrderActions(OrderPending, false, true))
	assert.Empty(t, OrderActions(OrderPending, false, false))

	assert.Equal(t, []OrderStatus{OrderShipped, OrderCancelled}, OrderActions(OrderPending, true, false))
	assert.Equal(t, []OrderStatus{OrderDelivered, OrderCancelled}, OrderActions(OrderShipped, true, false))
}

func TestBookingTransitions(t *testing.T) {
	assert.True(t, BookingPending.CanTransitionTo(BookingApproved))
	assert.True(t, BookingPending.CanTransitionTo(BookingCancelled))
	assert.False(t, BookingPending.CanTransitionTo(BookingCompleted))
	assert.True(t, BookingApproved.CanTransitionTo(BookingCompleted))
	assert.False(t, BookingCompleted.CanTransitionTo(BookingCancelled))
	assert.True(t, BookingCancelled.Terminal())

	_, err := ParseBookingStatus("Rejected")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCategoryValid(t *testing.T) {
	assert.True(t, Category("Health Supplement").Valid())
	assert.False(t, Category("Gadget").Valid())
}
