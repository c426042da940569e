package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ayush-backend/internal/client"
	"ayush-backend/internal/models"
	"ayush-backend/internal/wizard"
)

func newAPI(t *testing.T) (*testEnv, string) {
	t.Helper()
	e := newTestEnv(t)
	ts := httptest.NewServer(e.router)
	t.Cleanup(ts.Close)
	return e, ts.URL + "/api"
}

func TestClientBookingWizard(t *testing.T) {
	e, base := newAPI(t)
	pooja := e.seedPooja("Lakshmi Pooja", 3100)
	ctx := context.Background()

	c := client.New(base)
	require.NoError(t, c.Register(ctx, client.RegisterRequest{
		Name: "Alice", Email: "alice@ayush.test", Password: "secret123", Phone: "9999999999",
	}))
	_, err := c.Login(ctx, "alice@ayush.test", "wrong-pass")
	assert.True(t, client.IsStatus(err, http.StatusBadRequest))

	login, err := c.Login(ctx, "alice@ayush.test", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "Alice", login.User.Name)
	assert.Equal(t, login.Token, c.Token())

	poojas, err := c.Poojas(ctx)
	require.NoError(t, err)
	require.Len(t, poojas, 1)

	at := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
	w := wizard.New()
	require.NoError(t, w.SelectService(poojas[0].ID.Hex(), poojas[0].Name))
	require.NoError(t, w.SelectDateTime(at, "07:30 AM"))
	require.NoError(t, w.EnterLocation("8 Ghat Rd, Varanasi", "bring flowers"))
	require.Equal(t, wizard.Review, w.Step())

	booking, err := w.Confirm(ctx, c, wizard.Contact{Name: "Alice", Email: "alice@ayush.test"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, booking.Status)
	assert.Equal(t, wizard.SelectService, w.Step(), "wizard starts over after a booking")

	mine, err := c.MyBookings(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, pooja.ID, mine[0].Pooja.ID)
	assert.True(t, at.Equal(mine[0].PoojaDate))
	assert.Equal(t, "8 Ghat Rd, Varanasi", mine[0].Address)
	assert.Equal(t, "bring flowers", mine[0].Notes)
	assert.Equal(t, "9999999999", mine[0].Phone, "phone is taken from the profile")

	cancelled, err := c.CancelBooking(ctx, mine[0].ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)
}

func TestClientWizardKeepsStateOnFailure(t *testing.T) {
	e, base := newAPI(t)
	e.seedPooja("Lakshmi Pooja", 3100)
	ctx := context.Background()

	c := client.New(base)
	require.NoError(t, c.Register(ctx, client.RegisterRequest{Name: "Alice", Email: "alice@ayush.test", Password: "secret123"}))
	_, err := c.Login(ctx, "alice@ayush.test", "secret123")
	require.NoError(t, err)

	w := wizard.New()
	require.NoError(t, w.SelectService("64b7f0c2a1b2c3d4e5f60718", "Gone Pooja"))
	require.NoError(t, w.SelectDateTime(time.Now().Add(time.Hour), ""))
	require.NoError(t, w.EnterLocation("", ""))

	_, err = w.Confirm(ctx, c, wizard.Contact{})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Pooja not found", apiErr.Msg)
	assert.Equal(t, wizard.Review, w.Step())
	assert.Equal(t, "Gone Pooja", w.Draft().PoojaName)
}

func TestClientOrdersAndAdmin(t *testing.T) {
	e, base := newAPI(t)
	oil := e.seedProduct("Mahanarayan Oil", 250, 10)
	ctx := context.Background()

	alice := client.New(base)
	require.NoError(t, alice.Register(ctx, client.RegisterRequest{Name: "Alice", Email: "alice@ayush.test", Password: "secret123"}))
	_, err := alice.Login(ctx, "alice@ayush.test", "secret123")
	require.NoError(t, err)

	products, err := alice.Products(ctx, "Oil")
	require.NoError(t, err)
	require.Len(t, products, 1)

	var ids []string
	for i := 0; i < 3; i++ {
		o, err := alice.PlaceOrder(ctx, client.OrderRequest{
			Items:           []client.OrderLine{{Product: oil.ID.Hex(), Quantity: 2}},
			ShippingAddress: "12 Temple Rd",
		})
		require.NoError(t, err)
		assert.Equal(t, 500.0, o.TotalAmount)
		ids = append(ids, o.ID.Hex())
	}
	_, err = alice.PlaceOrder(ctx, client.OrderRequest{
		Items:           []client.OrderLine{{Product: oil.ID.Hex(), Quantity: 5}},
		ShippingAddress: "12 Temple Rd",
	})
	assert.True(t, client.IsStatus(err, http.StatusConflict))

	_, err = alice.UpdateOrderStatus(ctx, ids[0], "Shipped")
	assert.True(t, client.IsStatus(err, http.StatusForbidden))
	_, _, err = alice.AllOrders(ctx, client.ListQuery{})
	assert.True(t, client.IsStatus(err, http.StatusForbidden))

	admin := client.New(base, client.WithToken(testAdminKey))
	results := admin.BulkUpdateOrderStatus(ctx, append(ids, "64b7f0c2a1b2c3d4e5f60718"), "Shipped")
	require.Len(t, results, 4)
	for _, r := range results[:3] {
		require.NoError(t, r.Err, r.ID)
		assert.Equal(t, models.OrderShipped, r.Order.Status)
	}
	assert.True(t, client.IsStatus(results[3].Err, http.StatusNotFound))

	orders, total, err := admin.AllOrders(ctx, client.ListQuery{Status: "Shipped", Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, orders, 2)

	stats, err := admin.OrderStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalOrders)
	assert.Equal(t, 1500.0, stats.TotalRevenue)
	require.Len(t, stats.RecentActivities, 3)
	assert.Contains(t, stats.RecentActivities[0].Message, "placed by Alice")

	p, err := admin.AdjustStock(ctx, oil.ID.Hex(), 4)
	require.NoError(t, err)
	assert.Equal(t, 8, p.Stock)

	count, err := admin.UserCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestClientNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	base := ts.URL + "/api"
	ts.Close()

	_, err := client.New(base).Poojas(context.Background())
	assert.ErrorIs(t, err, client.ErrNetwork)
}
