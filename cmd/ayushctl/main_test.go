package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu       sync.Mutex
	bookings []map[string]any
	statuses map[string]string
	auth     []string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/poojas":
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": []map[string]any{
			{"_id": "64b7f0c2a1b2c3d4e5f60718", "name": "Ganesh Pooja", "price": 1100, "duration": "2 hours"},
		}})
	case r.Method == http.MethodPost && r.URL.Path == "/api/bookings":
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.bookings = append(f.bookings, body)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "booking": map[string]any{
			"_id": "64b7f0c2a1b2c3d4e5f60799", "status": "Pending",
		}})
	case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/status"):
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/orders/"), "/status")
		if _, ok := f.statuses[id]; !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "msg": "Order not found"})
			return
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.statuses[id] = body["status"]
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "order": map[string]any{
			"_id": id, "status": body["status"],
		}})
	default:
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "msg": "no route"})
	}
}

func TestBookWalksTheWizard(t *testing.T) {
	api := &fakeAPI{}
	ts := httptest.NewServer(api)
	defer ts.Close()

	when := time.Now().Add(48 * time.Hour).Format("2006-01-02 15:04")
	input := strings.Join([]string{
		"7",        // out of range
		"1",        // Ganesh Pooja
		"back",     // return to service selection
		"1",
		"tomorrow", // unreadable
		when,
		"8 Ghat Rd",
		"bring modak",
		"y",
	}, "\n") + "\n"

	var out bytes.Buffer
	err := run(context.Background(), []string{"-api", ts.URL + "/api", "-token", "tok", "book"}, strings.NewReader(input), &out)
	require.NoError(t, err, out.String())

	assert.Contains(t, out.String(), "pick a number from the list")
	assert.Contains(t, out.String(), "could not read that date")
	assert.Contains(t, out.String(), "booked 64b7f0c2a1b2c3d4e5f60799, status Pending")

	require.Len(t, api.bookings, 1)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", api.bookings[0]["pooja"])
	assert.Equal(t, "8 Ghat Rd", api.bookings[0]["address"])
	assert.Equal(t, "bring modak", api.bookings[0]["notes"])
	assert.Contains(t, api.auth, "Bearer tok")
}

func TestBookAbandoned(t *testing.T) {
	api := &fakeAPI{}
	ts := httptest.NewServer(api)
	defer ts.Close()

	when := time.Now().Add(48 * time.Hour).Format("2006-01-02 15:04")
	input := "1\n" + when + "\n\n\nn\n"

	var out bytes.Buffer
	err := run(context.Background(), []string{"-api", ts.URL + "/api", "book"}, strings.NewReader(input), &out)
	assert.EqualError(t, err, "booking abandoned")
	assert.Empty(t, api.bookings)
}

func TestStatusReportsPerOrder(t *testing.T) {
	api := &fakeAPI{statuses: map[string]string{"64b7f0c2a1b2c3d4e5f600aa": "Pending", "64b7f0c2a1b2c3d4e5f600bb": "Pending"}}
	ts := httptest.NewServer(api)
	defer ts.Close()

	var out bytes.Buffer
	err := run(context.Background(), []string{"-api", ts.URL + "/api", "-token", "key", "status", "-to", "Shipped", "64b7f0c2a1b2c3d4e5f600aa", "zzz", "64b7f0c2a1b2c3d4e5f600bb"}, nil, &out)
	assert.EqualError(t, err, "1 of 3 updates failed")
	assert.Contains(t, out.String(), "64b7f0c2a1b2c3d4e5f600aa  Shipped")
	assert.Contains(t, out.String(), "64b7f0c2a1b2c3d4e5f600bb  Shipped")
	assert.Contains(t, out.String(), "zzz  failed")
	assert.Equal(t, map[string]string{"64b7f0c2a1b2c3d4e5f600aa": "Shipped", "64b7f0c2a1b2c3d4e5f600bb": "Shipped"}, api.statuses)
}

func TestUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"dance"}, nil, &out)
	assert.EqualError(t, err, `unknown command "dance"`)
}
