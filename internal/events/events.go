// Package events carries order and booking domain events over a RabbitMQ
// topic exchange.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	RKOrderPlaced          = "order.placed"
	RKOrderStatusChanged   = "order.status_changed"
	RKBookingCreated       = "booking.created"
	RKBookingStatusChanged = "booking.status_changed"
)

// ErrMalformed marks a payload that can never be processed.
var ErrMalformed = errors.New("malformed event payload")

// Meta is embedded in every payload.
type Meta struct {
	ID         string    `json:"id"`
	Event      string    `json:"event"`
	OccurredAt time.Time `json:"occurredAt"`
}

func newMeta(event string) Meta {
	return Meta{ID: uuid.NewString(), Event: event, OccurredAt: time.Now().UTC()}
}

type OrderPlaced struct {
	Meta
	OrderID       string  `json:"orderId"`
	UserID        string  `json:"userId"`
	Items         int     `json:"items"`
	TotalAmount   float64 `json:"totalAmount"`
	PaymentMethod string  `json:"paymentMethod"`
}

type OrderStatusChanged struct {
	Meta
	OrderID   string `json:"orderId"`
	UserID    string `json:"userId"`
	From      string `json:"from"`
	To        string `json:"to"`
	ChangedBy string `json:"changedBy"`
}

type BookingCreated struct {
	Meta
	BookingID string    `json:"bookingId"`
	UserID    string    `json:"userId"`
	PoojaID   string    `json:"poojaId"`
	PoojaName string    `json:"poojaName,omitempty"`
	PoojaDate time.Time `json:"poojaDate"`
	Time      string    `json:"time,omitempty"`
}

type BookingStatusChanged struct {
	Meta
	BookingID string `json:"bookingId"`
	UserID    string `json:"userId"`
	From      string `json:"from"`
	To        string `json:"to"`
}

func NewOrderPlaced(orderID, userID string, items int, total float64, method string) OrderPlaced {
	return OrderPlaced{
		Meta:          newMeta(RKOrderPlaced),
		OrderID:       orderID,
		UserID:        userID,
		Items:         items,
		TotalAmount:   total,
		PaymentMethod: method,
	}
}

func NewOrderStatusChanged(orderID, userID, from, to, changedBy string) OrderStatusChanged {
	return OrderStatusChanged{
		Meta:      newMeta(RKOrderStatusChanged),
		OrderID:   orderID,
		UserID:    userID,
		From:      from,
		To:        to,
		ChangedBy: changedBy,
	}
}

func NewBookingCreated(bookingID, userID, poojaID, poojaName string, date time.Time, slot string) BookingCreated {
	return BookingCreated{
		Meta:      newMeta(RKBookingCreated),
		BookingID: bookingID,
		UserID:    userID,
		PoojaID:   poojaID,
		PoojaName: poojaName,
		PoojaDate: date,
		Time:      slot,
	}
}

func NewBookingStatusChanged(bookingID, userID, from, to string) BookingStatusChanged {
	return BookingStatusChanged{
		Meta:      newMeta(RKBookingStatusChanged),
		BookingID: bookingID,
		UserID:    userID,
		From:      from,
		To:        to,
	}
}

// Decode unmarshals body into T, wrapping failures in ErrMalformed.
func Decode[T any](body []byte) (T, error) {
	var t T
	if err := json.Unmarshal(body, &t); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return t, nil
}
