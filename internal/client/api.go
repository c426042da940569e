package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"ayush-backend/internal/models"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

type AuthUser struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

type LoginResult struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.do(ctx, http.MethodPost, "/auth/register", nil, req, nil)
}

// Login authenticates and keeps the token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) Products(ctx context.Context, category string) ([]models.Product, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	var out struct {
		Products []models.Product `json:"products"`
	}
	if err := c.do(ctx, http.MethodGet, "/products", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

func (c *Client) Poojas(ctx context.Context) ([]models.Pooja, error) {
	var out struct {
		Data []models.Pooja `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/poojas", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

type BookingRequest struct {
	Pooja     string    `json:"pooja"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	PoojaDate time.Time `json:"poojaDate"`
	Time      string    `json:"time,omitempty"`
	Notes     string    `json:"notes,omitempty"`
}

func (c *Client) CreateBooking(ctx context.Context, req BookingRequest) (*models.PoojaBooking, error) {
	var out struct {
		Booking models.PoojaBooking `json:"booking"`
	}
	if err := c.do(ctx, http.MethodPost, "/bookings", nil, req, &out); err != nil {
		return nil, err
	}
	return &out.Booking, nil
}

func (c *Client) MyBookings(ctx context.Context) ([]models.BookingView, error) {
	var out struct {
		Bookings []models.BookingView `json:"bookings"`
	}
	if err := c.do(ctx, http.MethodGet, "/bookings/my", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Bookings, nil
}

// ListQuery narrows admin listings. Zero values are left out.
type ListQuery struct {
	Status   string
	Page     int
	PageSize int
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	return v
}

func (c *Client) AllBookings(ctx context.Context, q ListQuery) ([]models.BookingView, int64, error) {
	var out struct {
		Bookings []models.BookingView `json:"bookings"`
		Total    int64                `json:"total"`
	}
	if err := c.do(ctx, http.MethodGet, "/bookings/all", q.values(), nil, &out); err != nil {
		return nil, 0, err
	}
	return out.Bookings, out.Total, nil
}

type BookingUpdate struct {
	Status    string     `json:"status,omitempty"`
	PoojaDate *time.Time `json:"poojaDate,omitempty"`
	Time      string     `json:"time,omitempty"`
}

func (c *Client) UpdateBooking(ctx context.Context, id string, upd BookingUpdate) (*models.PoojaBooking, error) {
	var out struct {
		Booking models.PoojaBooking `json:"booking"`
	}
	if err := c.do(ctx, http.MethodPatch, "/bookings/update/"+url.PathEscape(id), nil, upd, &out); err != nil {
		return nil, err
	}
	return &out.Booking, nil
}

func (c *Client) CancelBooking(ctx context.Context, id string) (*models.PoojaBooking, error) {
	var out struct {
		Booking models.PoojaBooking `json:"booking"`
	}
	if err := c.do(ctx, http.MethodDelete, "/bookings/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Booking, nil
}

type OrderLine struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

type OrderRequest struct {
	Items           []OrderLine `json:"items"`
	ShippingAddress string      `json:"shippingAddress"`
	PaymentMethod   string      `json:"paymentMethod,omitempty"`
	TotalAmount     float64     `json:"totalAmount,omitempty"`
}

func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (*models.Order, error) {
	var out struct {
		Order models.Order `json:"order"`
	}
	if err := c.do(ctx, http.MethodPost, "/orders", nil, req, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}

func (c *Client) MyOrders(ctx context.Context) ([]models.OrderView, error) {
	var out struct {
		Orders []models.OrderView `json:"orders"`
	}
	if err := c.do(ctx, http.MethodGet, "/orders/my", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

func (c *Client) AllOrders(ctx context.Context, q ListQuery) ([]models.OrderView, int64, error) {
	var out struct {
		Orders []models.OrderView `json:"orders"`
		Total  int64              `json:"total"`
	}
	if err := c.do(ctx, http.MethodGet, "/orders", q.values(), nil, &out); err != nil {
		return nil, 0, err
	}
	return out.Orders, out.Total, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id, status string) (*models.Order, error) {
	var out struct {
		Order models.Order `json:"order"`
	}
	body := map[string]string{"status": status}
	if err := c.do(ctx, http.MethodPut, "/orders/"+url.PathEscape(id)+"/status", nil, body, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}

type BulkResult struct {
	ID    string
	Order *models.Order
	Err   error
}

// BulkUpdateOrderStatus sends one request per id concurrently. The batch is
// not atomic: each result reports its own outcome, in the order of ids.
func (c *Client) BulkUpdateOrderStatus(ctx context.Context, ids []string, status string) []BulkResult {
	results := make([]BulkResult, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			o, err := c.UpdateOrderStatus(ctx, id, status)
			results[i] = BulkResult{ID: id, Order: o, Err: err}
		}(i, id)
	}
	wg.Wait()
	return results
}

type Activity struct {
	Message string `json:"message"`
}

type OrderStats struct {
	TotalOrders      int64      `json:"totalOrders"`
	TotalRevenue     float64    `json:"totalRevenue"`
	RecentActivities []Activity `json:"recentActivities"`
}

func (c *Client) OrderStats(ctx context.Context) (*OrderStats, error) {
	var out OrderStats
	if err := c.do(ctx, http.MethodGet, "/orders/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdjustStock applies a relative change on the server.
func (c *Client) AdjustStock(ctx context.Context, id string, delta int) (*models.Product, error) {
	var out struct {
		Product models.Product `json:"product"`
	}
	body := map[string]int{"delta": delta}
	if err := c.do(ctx, http.MethodPut, "/products/stock/"+url.PathEscape(id), nil, body, &out); err != nil {
		return nil, err
	}
	return &out.Product, nil
}

func (c *Client) UserCount(ctx context.Context) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/user-count", nil, nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}
