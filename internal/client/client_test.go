package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadersAndToken(t *testing.T) {
	var gotAuth, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/api/auth/login":
			w.Write([]byte(`{"success":true,"token":"tok-1","user":{"id":"u1","name":"Alice","email":"alice@x.com","role":"customer"}}`))
		default:
			w.Write([]byte(`{"success":true,"count":7}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL + "/api/")
	res, err := c.Login(context.Background(), "alice@x.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", res.Token)
	assert.Equal(t, "Alice", res.User.Name)
	assert.Equal(t, "application/json", gotType)
	assert.Empty(t, gotAuth)

	n, err := c.UserCount(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
	assert.Equal(t, "Bearer tok-1", gotAuth)
}

func TestErrorNormalization(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"msg field", 400, `{"success":false,"msg":"Invalid password"}`, "Invalid password"},
		{"message field", 404, `{"message":"User not found"}`, "User not found"},
		{"error field", 500, `{"success":false,"error":"Something went wrong!"}`, "Something went wrong!"},
		{"success false with 200", 200, `{"success":false,"msg":"Email already exists"}`, "Email already exists"},
		{"non json body", 502, `<html>bad gateway</html>`, "Bad Gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL).UserCount(context.Background())
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "got %v", err)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.want, apiErr.Msg)
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url).Poojas(context.Background())
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(srv.URL).Poojas(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBulkUpdateOrderStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if strings.Contains(r.URL.Path, "/bad/") {
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"success":false,"msg":"Cannot move order from Delivered to Shipped"}`))
			return
		}
		w.Write([]byte(`{"success":true,"order":{"_id":"65a1b2c3d4e5f60718293a4b","status":"` + body["status"] + `"}}`))
	}))
	defer srv.Close()

	results := New(srv.URL, WithToken("admin")).BulkUpdateOrderStatus(context.Background(),
		[]string{"65a1b2c3d4e5f60718293a4b", "bad", "65a1b2c3d4e5f60718293a4b"}, "Shipped")

	require.Len(t, results, 3)
	assert.EqualValues(t, 3, calls.Load())
	assert.NoError(t, results[0].Err)
	assert.Equal(t, "Shipped", string(results[0].Order.Status))
	assert.True(t, IsStatus(results[1].Err, http.StatusConflict))
	assert.Equal(t, "bad", results[1].ID)
	assert.NoError(t, results[2].Err)
}

func TestListQueryValues(t *testing.T) {
	assert.Empty(t, ListQuery{}.values().Encode())
	assert.Equal(t, "page=2&page_size=20&status=Pending",
		ListQuery{Status: "Pending", Page: 2, PageSize: 20}.values().Encode())
}
