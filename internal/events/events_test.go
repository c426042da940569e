package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	subjects []string
	messages []string
	err      error
}

func (r *recorder) Notify(subject, message string) error {
	r.subjects = append(r.subjects, subject)
	r.messages = append(r.messages, message)
	return r.err
}

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestMetaIsFilled(t *testing.T) {
	ev := NewOrderPlaced("65a1b2c3d4e5f60718293a4b", "u1", 2, 499.5, "COD")
	assert.Equal(t, RKOrderPlaced, ev.Event)
	assert.NotEmpty(t, ev.ID)
	assert.WithinDuration(t, time.Now(), ev.OccurredAt, time.Minute)

	other := NewOrderPlaced("x", "u1", 1, 1, "COD")
	assert.NotEqual(t, ev.ID, other.ID)
}

func TestFormat(t *testing.T) {
	date := time.Date(2030, 3, 14, 0, 0, 0, 0, time.Local)
	tests := []struct {
		name    string
		key     string
		payload any
		subject string
		message string
	}{
		{
			name:    "order placed",
			key:     RKOrderPlaced,
			payload: NewOrderPlaced("65a1b2c3d4e5f60718293a4b", "u1", 2, 499.5, "COD"),
			subject: "Order placed",
			message: "Order 93a4b placed: 2 item(s), total 499.50, COD.",
		},
		{
			name:    "order shipped",
			key:     RKOrderStatusChanged,
			payload: NewOrderStatusChanged("65a1b2c3d4e5f60718293a4b", "u1", "Pending", "Shipped", "admin"),
			subject: "Order Shipped",
			message: "Order 93a4b moved from Pending to Shipped.",
		},
		{
			name:    "booking created",
			key:     RKBookingCreated,
			payload: NewBookingCreated("65a1b2c3d4e5f60718211111", "u1", "p1", "Satyanarayan Pooja", date, "10:00 AM"),
			subject: "Booking received",
			message: "Booking 11111 for Satyanarayan Pooja on 2030-03-14 10:00 AM.",
		},
		{
			name:    "booking approved",
			key:     RKBookingStatusChanged,
			payload: NewBookingStatusChanged("abc", "u1", "Pending", "Approved"),
			subject: "Booking Approved",
			message: "Booking abc moved from Pending to Approved.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, message, ok, err := Format(tt.key, mustJSON(t, tt.payload))
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, tt.subject, subject)
			assert.Equal(t, tt.message, message)
		})
	}
}

func TestHandle(t *testing.T) {
	t.Run("known key notifies", func(t *testing.T) {
		rec := &recorder{}
		c := NewConsumer(ConsumerConfig{}, rec, quiet())
		err := c.Handle(RKBookingStatusChanged, mustJSON(t, NewBookingStatusChanged("b1", "u1", "Pending", "Cancelled")))
		require.NoError(t, err)
		assert.Equal(t, []string{"Booking Cancelled"}, rec.subjects)
	})

	t.Run("malformed payload", func(t *testing.T) {
		rec := &recorder{}
		c := NewConsumer(ConsumerConfig{}, rec, quiet())
		err := c.Handle(RKOrderPlaced, []byte("{not json"))
		assert.ErrorIs(t, err, ErrMalformed)
		assert.Empty(t, rec.subjects)
	})

	t.Run("unknown key skipped", func(t *testing.T) {
		rec := &recorder{}
		c := NewConsumer(ConsumerConfig{}, rec, quiet())
		require.NoError(t, c.Handle("payment.paid", []byte("{}")))
		assert.Empty(t, rec.subjects)
	})

	t.Run("notifier failure surfaces", func(t *testing.T) {
		rec := &recorder{err: errors.New("smtp down")}
		c := NewConsumer(ConsumerConfig{}, rec, quiet())
		err := c.Handle(RKOrderPlaced, mustJSON(t, NewOrderPlaced("o1", "u1", 1, 10, "COD")))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrMalformed)
	})
}

func TestLogPublisher(t *testing.T) {
	logger, hook := test.NewNullLogger()
	p := NewLogPublisher(logger)

	require.NoError(t, p.Publish(context.Background(), RKOrderPlaced, NewOrderPlaced("o1", "u1", 1, 10, "COD")))
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, RKOrderPlaced, hook.LastEntry().Data["routing_key"])
	assert.Contains(t, hook.LastEntry().Data["payload"], `"orderId":"o1"`)
	assert.NoError(t, p.Close())
}

func TestConsoleNotifier(t *testing.T) {
	logger, hook := test.NewNullLogger()
	require.NoError(t, NewConsoleNotifier(logger).Notify("Order placed", "hello"))
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "hello", hook.LastEntry().Message)
	assert.Equal(t, "Order placed", hook.LastEntry().Data["subject"])
}
