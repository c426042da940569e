package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ayush-backend/internal/events"
	"ayush-backend/internal/models"
)

func futureDate(days int) time.Time {
	return time.Now().UTC().Add(time.Duration(days) * 24 * time.Hour).Truncate(time.Second)
}

func (e *testEnv) book(token string, pooja primitive.ObjectID, at time.Time) models.PoojaBooking {
	e.t.Helper()
	var out struct {
		Booking models.PoojaBooking `json:"booking"`
	}
	rec := e.call(http.MethodPost, "/api/bookings", token, gin.H{
		"pooja":     pooja.Hex(),
		"poojaDate": at.Format(time.RFC3339),
		"time":      "09:00 AM",
		"address":   "12 Temple Rd, Varanasi",
	}, &out)
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	return out.Booking
}

func TestAliceBooksAPooja(t *testing.T) {
	e := newTestEnv(t)
	pooja := e.seedPooja("Satyanarayan Pooja", 2100)
	token, aliceID := e.signup("Alice", "alice@ayush.test")
	at := futureDate(7)

	booking := e.book(token, pooja.ID, at)
	assert.Equal(t, models.BookingPending, booking.Status)
	assert.Equal(t, aliceID, booking.User)
	assert.Equal(t, "Alice", booking.Name)
	assert.Equal(t, "alice@ayush.test", booking.Email)
	assert.Equal(t, "9999999999", booking.Phone)

	var out struct {
		Bookings []models.BookingView `json:"bookings"`
	}
	rec := e.call(http.MethodGet, "/api/bookings/my", token, nil, &out)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, out.Bookings, 1)
	got := out.Bookings[0]
	assert.Equal(t, models.BookingPending, got.Status)
	require.NotNil(t, got.Pooja)
	assert.Equal(t, pooja.ID, got.Pooja.ID)
	assert.Equal(t, "Satyanarayan Pooja", got.Pooja.Name)
	assert.True(t, at.Equal(got.PoojaDate), "%s != %s", at, got.PoojaDate)
	assert.Equal(t, "12 Temple Rd, Varanasi", got.Address)
	assert.Equal(t, "09:00 AM", got.Time)
	require.NotNil(t, got.User)
	assert.Equal(t, aliceID, got.User.ID)

	var raw struct {
		Bookings []map[string]any `json:"bookings"`
	}
	decode(t, rec, &raw)
	assert.Equal(t, aliceID.Hex(), raw.Bookings[0]["user"], "owner listing keeps the user id")

	assert.Equal(t, []string{events.RKBookingCreated}, e.pub.keys())
}

func TestMyBookingsOnlyShowsOwn(t *testing.T) {
	e := newTestEnv(t)
	pooja := e.seedPooja("Ganesh Pooja", 1100)
	alice, _ := e.signup("Alice", "alice@ayush.test")
	bob, _ := e.signup("Bob", "bob@ayush.test")
	e.book(alice, pooja.ID, futureDate(3))

	var out struct {
		Bookings []models.BookingView `json:"bookings"`
	}
	rec := e.call(http.MethodGet, "/api/bookings/my", bob, nil, &out)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, out.Bookings)
}

func TestCreateBookingValidation(t *testing.T) {
	e := newTestEnv(t)
	pooja := e.seedPooja("Ganesh Pooja", 1100)
	token, _ := e.signup("Alice", "alice@ayush.test")

	tests := []struct {
		name   string
		token  string
		body   gin.H
		status int
		msg    string
	}{
		{"missing pooja", token, gin.H{"poojaDate": futureDate(2).Format(time.RFC3339)}, http.StatusBadRequest, "Missing required fields."},
		{"missing date", token, gin.H{"pooja": pooja.ID.Hex()}, http.StatusBadRequest, "Missing required fields."},
		{"bad date", token, gin.H{"pooja": pooja.ID.Hex(), "poojaDate": "next tuesday"}, http.StatusBadRequest, "Invalid pooja date"},
		{"past date", token, gin.H{"pooja": pooja.ID.Hex(), "poojaDate": "2020-01-01"}, http.StatusBadRequest, "Pooja date must be in the future"},
		{"unknown pooja", token, gin.H{"pooja": primitive.NewObjectID().Hex(), "poojaDate": futureDate(2).Format(time.RFC3339)}, http.StatusNotFound, "Pooja not found"},
		{"admin key", testAdminKey, gin.H{"pooja": pooja.ID.Hex(), "poojaDate": futureDate(2).Format(time.RFC3339)}, http.StatusForbidden, "This action needs a user account"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.call(http.MethodPost, "/api/bookings", tt.token, tt.body, nil)
			e.expectFail(rec, tt.status, tt.msg)
		})
	}

	var out struct {
		Bookings []models.BookingView `json:"bookings"`
	}
	e.call(http.MethodGet, "/api/bookings/my", token, nil, &out)
	assert.Empty(t, out.Bookings)
}

func TestBookingDateOnlyIsAccepted(t *testing.T) {
	e := newTestEnv(t)
	pooja := e.seedPooja("Ganesh Pooja", 1100)
	token, _ := e.signup("Alice", "alice@ayush.test")

	day := futureDate(10).Format(time.DateOnly)
	rec := e.call(http.MethodPost, "/api/bookings", token, gin.H{"pooja": pooja.ID.Hex(), "poojaDate": day}, nil)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestAdminBookingLifecycle(t *testing.T) {
	e := newTestEnv(t)
	pooja := e.seedPooja("Rudrabhishek", 5100)
	token, _ := e.signup("Alice", "alice@ayush.test")
	b := e.book(token, pooja.ID, futureDate(5))
	url := "/api/bookings/update/" + b.ID.Hex()

	e.expectFail(e.call(http.MethodPatch, url, token, gin.H{"status": "Approved"}, nil), http.StatusForbidden, "Access denied")
	e.expectFail(e.call(http.MethodPatch, url, testAdminKey, gin.H{"status": "Done"}, nil), http.StatusBadRequest, "Invalid status")
	e.expectFail(e.call(http.MethodPatch, url, testAdminKey, gin.H{"status": "Completed"}, nil),
		http.StatusConflict, "Cannot move booking from Pending to Completed")

	var out struct {
		Booking models.PoojaBooking `json:"booking"`
	}
	newDate := futureDate(9)
	rec := e.call(http.MethodPatch, url, testAdminKey, gin.H{
		"status": "Approved", "poojaDate": newDate.Format(time.RFC3339), "time": "06:00 PM",
	}, &out)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.BookingApproved, out.Booking.Status)
	assert.True(t, newDate.Equal(out.Booking.PoojaDate))
	assert.Equal(t, "06:00 PM", out.Booking.Time)

	e.expectFail(e.call(http.MethodPatch, url, testAdminKey, gin.H{"poojaDate": "2020-01-01"}, nil),
		http.StatusBadRequest, "Pooja date must be in the future")

	rec = e.call(http.MethodPatch, url, testAdminKey, gin.H{"status": "Completed"}, &out)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.BookingCompleted, out.Booking.Status)

	e.expectFail(e.call(http.MethodPatch, url, testAdminKey, gin.H{"status": "Pending"}, nil),
		http.StatusConflict, "Cannot move booking from Completed to Pending")
	e.expectFail(e.call(http.MethodDelete, "/api/bookings/"+b.ID.Hex(), testAdminKey, nil, nil),
		http.StatusConflict, "Cannot move booking from Completed to Cancelled")

	assert.Equal(t, []string{
		events.RKBookingCreated, events.RKBookingStatusChanged, events.RKBookingStatusChanged,
	}, e.pub.keys())
}

func TestSameStatusPatchIsNoop(t *testing.T) {
	e := newTestEnv(t)
	pooja := e.seedPooja("Ganesh Pooja", 1100)
	token, _ := e.signup("Alice", "alice@ayush.test")
	b := e.book(token, pooja.ID, futureDate(5))

	rec := e.call(http.MethodPatch, "/api/bookings/update/"+b.ID.Hex(), testAdminKey, gin.H{"status": "Pending"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{events.RKBookingCreated}, e.pub.keys())
}

func TestCancelBooking(t *testing.T) {
	e := newTestEnv(t)
	pooja := e.seedPooja("Ganesh Pooja", 1100)
	alice, _ := e.signup("Alice", "alice@ayush.test")
	bob, _ := e.signup("Bob", "bob@ayush.test")

	pending := e.book(alice, pooja.ID, futureDate(2))
	approved := e.book(alice, pooja.ID, futureDate(3))
	e.call(http.MethodPatch, "/api/bookings/update/"+approved.ID.Hex(), testAdminKey, gin.H{"status": "Approved"}, nil)

	e.expectFail(e.call(http.MethodDelete, "/api/bookings/"+pending.ID.Hex(), bob, nil, nil),
		http.StatusForbidden, "Not allowed to cancel this booking")
	e.expectFail(e.call(http.MethodDelete, "/api/bookings/"+approved.ID.Hex(), alice, nil, nil),
		http.StatusConflict, "Only pending bookings can be cancelled")
	e.expectFail(e.call(http.MethodDelete, "/api/bookings/"+primitive.NewObjectID().Hex(), alice, nil, nil),
		http.StatusNotFound, "Booking not found")

	var out struct {
		Msg     string              `json:"msg"`
		Booking models.PoojaBooking `json:"booking"`
	}
	rec := e.call(http.MethodDelete, "/api/bookings/"+pending.ID.Hex(), alice, nil, &out)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Booking cancelled", out.Msg)
	assert.Equal(t, models.BookingCancelled, out.Booking.Status)

	rec = e.call(http.MethodDelete, "/api/bookings/"+approved.ID.Hex(), testAdminKey, nil, &out)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.BookingCancelled, out.Booking.Status)

	var mine struct {
		Bookings []models.BookingView `json:"bookings"`
	}
	e.call(http.MethodGet, "/api/bookings/my", alice, nil, &mine)
	assert.Len(t, mine.Bookings, 2, "cancelled bookings are kept")
}

func TestAllBookings(t *testing.T) {
	e := newTestEnv(t)
	pooja := e.seedPooja("Ganesh Pooja", 1100)
	alice, aliceID := e.signup("Alice", "alice@ayush.test")
	first := e.book(alice, pooja.ID, futureDate(2))
	e.book(alice, pooja.ID, futureDate(3))
	e.book(alice, pooja.ID, futureDate(4))
	e.call(http.MethodPatch, "/api/bookings/update/"+first.ID.Hex(), testAdminKey, gin.H{"status": "Approved"}, nil)

	e.expectFail(e.call(http.MethodGet, "/api/bookings/all", alice, nil, nil), http.StatusForbidden, "Access denied")
	e.expectFail(e.call(http.MethodGet, "/api/bookings/all?status=Lost", testAdminKey, nil, nil), http.StatusBadRequest, "Invalid status")
	e.expectFail(e.call(http.MethodGet, "/api/bookings/all?page=x", testAdminKey, nil, nil), http.StatusBadRequest, "Invalid page")

	var out struct {
		Bookings []models.BookingView `json:"bookings"`
		Total    int64                `json:"total"`
	}
	rec := e.call(http.MethodGet, "/api/bookings/all", testAdminKey, nil, &out)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, out.Total)
	require.Len(t, out.Bookings, 3)
	require.NotNil(t, out.Bookings[0].User)
	assert.Equal(t, aliceID, out.Bookings[0].User.ID)
	assert.Equal(t, "Alice", out.Bookings[0].User.Name)
	require.NotNil(t, out.Bookings[0].Pooja)

	rec = e.call(http.MethodGet, "/api/bookings/all?status=Pending&page=1&page_size=1", testAdminKey, nil, &out)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, out.Total)
	assert.Len(t, out.Bookings, 1)
	assert.Equal(t, models.BookingPending, out.Bookings[0].Status)

	rec = e.call(http.MethodGet, "/api/bookings/all?status=Approved", testAdminKey, nil, &out)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, out.Bookings, 1)
	assert.Equal(t, first.ID, out.Bookings[0].ID)
}
