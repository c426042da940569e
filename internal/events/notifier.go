package events

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Notifier delivers a human readable message. Email or SMS backends can
// replace the console one.
type Notifier interface {
	Notify(subject, message string) error
}

type ConsoleNotifier struct {
	log logrus.FieldLogger
}

func NewConsoleNotifier(log logrus.FieldLogger) *ConsoleNotifier {
	return &ConsoleNotifier{log: log}
}

func (c *ConsoleNotifier) Notify(subject, message string) error {
	c.log.WithField("subject", subject).Info(message)
	return nil
}

func shortID(id string) string {
	if len(id) <= 5 {
		return id
	}
	return id[len(id)-5:]
}

// Format renders the notification for a delivery. ok is false for routing
// keys this package does not know.
func Format(key string, body []byte) (subject, message string, ok bool, err error) {
	switch key {
	case RKOrderPlaced:
		ev, err := Decode[OrderPlaced](body)
		if err != nil {
			return "", "", true, err
		}
		return "Order placed", fmt.Sprintf("Order %s placed: %d item(s), total %.2f, %s.",
			shortID(ev.OrderID), ev.Items, ev.TotalAmount, ev.PaymentMethod), true, nil

	case RKOrderStatusChanged:
		ev, err := Decode[OrderStatusChanged](body)
		if err != nil {
			return "", "", true, err
		}
		return "Order " + ev.To, fmt.Sprintf("Order %s moved from %s to %s.",
			shortID(ev.OrderID), ev.From, ev.To), true, nil

	case RKBookingCreated:
		ev, err := Decode[BookingCreated](body)
		if err != nil {
			return "", "", true, err
		}
		name := ev.PoojaName
		if name == "" {
			name = "pooja"
		}
		when := ev.PoojaDate.Local().Format("2006-01-02")
		if ev.Time != "" {
			when += " " + ev.Time
		}
		return "Booking received", fmt.Sprintf("Booking %s for %s on %s.",
			shortID(ev.BookingID), name, when), true, nil

	case RKBookingStatusChanged:
		ev, err := Decode[BookingStatusChanged](body)
		if err != nil {
			return "", "", true, err
		}
		return "Booking " + ev.To, fmt.Sprintf("Booking %s moved from %s to %s.",
			shortID(ev.BookingID), ev.From, ev.To), true, nil
	}
	return "", "", false, nil
}
