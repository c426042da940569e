package store

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ayush-backend/internal/models"
)

// NewMemory returns a Store kept entirely in process memory. It backs the
// handler tests and STORE_DRIVER=memory for local runs.
func NewMemory() *Store {
	m := &memory{
		users:    map[primitive.ObjectID]models.User{},
		products: map[primitive.ObjectID]models.Product{},
		poojas:   map[primitive.ObjectID]models.Pooja{},
		bookings: map[primitive.ObjectID]models.PoojaBooking{},
		orders:   map[primitive.ObjectID]models.Order{},
	}
	return &Store{
		Users:    memUsers{m},
		Products: memProducts{m},
		Poojas:   memPoojas{m},
		Bookings: memBookings{m},
		Orders:   memOrders{m},
	}
}

type memory struct {
	mu       sync.RWMutex
	users    map[primitive.ObjectID]models.User
	products map[primitive.ObjectID]models.Product
	poojas   map[primitive.ObjectID]models.Pooja
	bookings map[primitive.ObjectID]models.PoojaBooking
	orders   map[primitive.ObjectID]models.Order
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}

func cloneUser(u models.User) *models.User {
	u.Addresses = cloneStrings(u.Addresses)
	return &u
}

func cloneProduct(p models.Product) *models.Product {
	p.Images = cloneStrings(p.Images)
	return &p
}

func clonePooja(p models.Pooja) *models.Pooja {
	p.Requirements = cloneStrings(p.Requirements)
	return &p
}

func cloneOrder(o models.Order) *models.Order {
	o.Items = append([]models.OrderItem{}, o.Items...)
	return &o
}

func newer(aTime, bTime time.Time, aID, bID primitive.ObjectID) bool {
	if !aTime.Equal(bTime) {
		return aTime.After(bTime)
	}
	return aID.Hex() > bID.Hex()
}

func page[T any](items []T, opts ListOptions) []T {
	skip, limit := opts.bounds()
	if limit == 0 {
		return items
	}
	if skip >= len(items) {
		return items[:0]
	}
	end := skip + limit
	if end > len(items) {
		end = len(items)
	}
	return items[skip:end]
}

type memUsers struct{ m *memory }

func (r memUsers) Create(_ context.Context, u *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, existing := range r.m.users {
		if existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Role == "" {
		u.Role = models.RoleCustomer
	}
	if u.Addresses == nil {
		u.Addresses = []string{}
	}
	r.m.users[u.ID] = *cloneUser(*u)
	return nil
}

func (r memUsers) ByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (r memUsers) ByEmail(_ context.Context, email string) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, u := range r.m.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (r memUsers) ByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make(map[primitive.ObjectID]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := r.m.users[id]; ok {
			out[id] = cloneUser(u)
		}
	}
	return out, nil
}

// mutate runs fn on a copy of the user under the write lock and stores the
// result if fn succeeds.
func (r memUsers) mutate(id primitive.ObjectID, fn func(u *models.User) error) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	current, ok := r.m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u := cloneUser(current)
	if err := fn(u); err != nil {
		return nil, err
	}
	u.UpdatedAt = time.Now().UTC()
	r.m.users[id] = *cloneUser(*u)
	return u, nil
}

func (r memUsers) UpdateProfile(_ context.Context, id primitive.ObjectID, name, email, phone string) (*models.User, error) {
	return r.mutate(id, func(u *models.User) error {
		for otherID, other := range r.m.users {
			if otherID != id && other.Email == email {
				return ErrDuplicate
			}
		}
		u.Name, u.Email, u.Phone = name, email, phone
		return nil
	})
}

func (r memUsers) AddAddress(_ context.Context, id primitive.ObjectID, address string) (*models.User, error) {
	return r.mutate(id, func(u *models.User) error {
		u.Addresses = append(u.Addresses, address)
		return nil
	})
}

func (r memUsers) UpdateAddress(_ context.Context, id primitive.ObjectID, index int, address string) (*models.User, error) {
	return r.mutate(id, func(u *models.User) error {
		if index < 0 || index >= len(u.Addresses) {
			return ErrIndexOutOfRange
		}
		u.Addresses[index] = address
		return nil
	})
}

func (r memUsers) DeleteAddress(_ context.Context, id primitive.ObjectID, index int) (*models.User, error) {
	return r.mutate(id, func(u *models.User) error {
		if index < 0 || index >= len(u.Addresses) {
			return ErrIndexOutOfRange
		}
		u.Addresses = append(u.Addresses[:index], u.Addresses[index+1:]...)
		return nil
	})
}

func (r memUsers) SetProfilePicture(_ context.Context, id primitive.ObjectID, picture string) (*models.User, error) {
	return r.mutate(id, func(u *models.User) error {
		u.ProfilePicture = picture
		return nil
	})
}

func (r memUsers) Count(context.Context) (int64, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return int64(len(r.m.users)), nil
}

type memProducts struct{ m *memory }

func (r memProducts) Create(_ context.Context, p *models.Product) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Images == nil {
		p.Images = []string{}
	}
	r.m.products[p.ID] = *cloneProduct(*p)
	return nil
}

func (r memProducts) ByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	p, ok := r.m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProduct(p), nil
}

func (r memProducts) ByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make(map[primitive.ObjectID]*models.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.m.products[id]; ok {
			out[id] = cloneProduct(p)
		}
	}
	return out, nil
}

func (r memProducts) List(_ context.Context, f ProductFilter) ([]models.Product, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := []models.Product{}
	for _, p := range r.m.products {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Featured != nil && p.Featured != *f.Featured {
			continue
		}
		out = append(out, *cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool {
		return newer(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (r memProducts) mutate(id primitive.ObjectID, fn func(p *models.Product) error) (*models.Product, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	current, ok := r.m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	p := cloneProduct(current)
	if err := fn(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now().UTC()
	r.m.products[id] = *cloneProduct(*p)
	return p, nil
}

func (r memProducts) Update(_ context.Context, id primitive.ObjectID, upd ProductUpdate) (*models.Product, error) {
	return r.mutate(id, func(p *models.Product) error {
		if upd.Name != nil {
			p.Name = *upd.Name
		}
		if upd.Price != nil {
			p.Price = *upd.Price
		}
		if upd.Description != nil {
			p.Description = *upd.Description
		}
		if upd.Benefits != nil {
			p.Benefits = *upd.Benefits
		}
		if upd.Usage != nil {
			p.Usage = *upd.Usage
		}
		if upd.Images != nil {
			p.Images = cloneStrings(*upd.Images)
		}
		if upd.Stock != nil {
			p.Stock = *upd.Stock
		}
		if upd.Category != nil {
			p.Category = *upd.Category
		}
		if upd.Featured != nil {
			p.Featured = *upd.Featured
		}
		return nil
	})
}

func (r memProducts) Delete(_ context.Context, id primitive.ObjectID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.products[id]; !ok {
		return ErrNotFound
	}
	delete(r.m.products, id)
	return nil
}

func (r memProducts) SetStock(_ context.Context, id primitive.ObjectID, stock int) (*models.Product, error) {
	return r.mutate(id, func(p *models.Product) error {
		p.Stock = stock
		return nil
	})
}

func (r memProducts) AdjustStock(_ context.Context, id primitive.ObjectID, delta int) (*models.Product, error) {
	return r.mutate(id, func(p *models.Product) error {
		if delta == math.MinInt || (delta > 0 && p.Stock > math.MaxInt-delta) {
			return ErrStockOverflow
		}
		if delta < 0 && p.Stock < -delta {
			return ErrInsufficientStock
		}
		p.Stock += delta
		return nil
	})
}

type memPoojas struct{ m *memory }

func (r memPoojas) Create(_ context.Context, p *models.Pooja) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p.ID = primitive.NewObjectID()
	if p.Requirements == nil {
		p.Requirements = []string{}
	}
	r.m.poojas[p.ID] = *clonePooja(*p)
	return nil
}

func (r memPoojas) ByID(_ context.Context, id primitive.ObjectID) (*models.Pooja, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	p, ok := r.m.poojas[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePooja(p), nil
}

func (r memPoojas) ByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Pooja, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make(map[primitive.ObjectID]*models.Pooja, len(ids))
	for _, id := range ids {
		if p, ok := r.m.poojas[id]; ok {
			out[id] = clonePooja(p)
		}
	}
	return out, nil
}

func (r memPoojas) List(context.Context) ([]models.Pooja, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]models.Pooja, 0, len(r.m.poojas))
	for _, p := range r.m.poojas {
		out = append(out, *clonePooja(p))
	}
	// insertion order, like a natural-order Mongo scan
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

func (r memPoojas) Delete(_ context.Context, id primitive.ObjectID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.poojas[id]; !ok {
		return ErrNotFound
	}
	delete(r.m.poojas, id)
	return nil
}

type memBookings struct{ m *memory }

func (r memBookings) Create(_ context.Context, b *models.PoojaBooking) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	now := time.Now().UTC()
	b.ID = primitive.NewObjectID()
	b.CreatedAt, b.UpdatedAt = now, now
	if b.Status == "" {
		b.Status = models.BookingPending
	}
	r.m.bookings[b.ID] = *b
	return nil
}

func (r memBookings) ByID(_ context.Context, id primitive.ObjectID) (*models.PoojaBooking, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	b, ok := r.m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (r memBookings) sorted(keep func(models.PoojaBooking) bool) []models.PoojaBooking {
	out := []models.PoojaBooking{}
	for _, b := range r.m.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newer(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out
}

func (r memBookings) ListByUser(_ context.Context, user primitive.ObjectID) ([]models.PoojaBooking, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return r.sorted(func(b models.PoojaBooking) bool { return b.User == user }), nil
}

func (r memBookings) List(_ context.Context, opts ListOptions) ([]models.PoojaBooking, int64, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	all := r.sorted(func(b models.PoojaBooking) bool {
		return opts.Status == "" || string(b.Status) == opts.Status
	})
	return page(all, opts), int64(len(all)), nil
}

func (r memBookings) Update(_ context.Context, id primitive.ObjectID, expected models.BookingStatus, patch BookingPatch) (*models.PoojaBooking, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	b, ok := r.m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	if b.Status != expected {
		return nil, ErrConflict
	}
	if patch.Status != nil {
		b.Status = *patch.Status
	}
	if patch.PoojaDate != nil {
		b.PoojaDate = *patch.PoojaDate
	}
	if patch.Time != nil {
		b.Time = *patch.Time
	}
	b.UpdatedAt = time.Now().UTC()
	r.m.bookings[id] = b
	return &b, nil
}

type memOrders struct{ m *memory }

func (r memOrders) Create(_ context.Context, o *models.Order) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	now := time.Now().UTC()
	o.ID = primitive.NewObjectID()
	o.CreatedAt, o.UpdatedAt = now, now
	if o.Status == "" {
		o.Status = models.OrderPending
	}
	r.m.orders[o.ID] = *cloneOrder(*o)
	return nil
}

func (r memOrders) ByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	o, ok := r.m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r memOrders) sorted(keep func(models.Order) bool) []models.Order {
	out := []models.Order{}
	for _, o := range r.m.orders {
		if keep(o) {
			out = append(out, *cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newer(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out
}

func (r memOrders) ListByUser(_ context.Context, user primitive.ObjectID) ([]models.Order, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return r.sorted(func(o models.Order) bool { return o.User == user }), nil
}

func (r memOrders) List(_ context.Context, opts ListOptions) ([]models.Order, int64, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	all := r.sorted(func(o models.Order) bool {
		return opts.Status == "" || string(o.Status) == opts.Status
	})
	return page(all, opts), int64(len(all)), nil
}

func (r memOrders) UpdateStatus(_ context.Context, id primitive.ObjectID, from, to models.OrderStatus) (*models.Order, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	o, ok := r.m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	if o.Status != from {
		return nil, ErrConflict
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	r.m.orders[id] = o
	return cloneOrder(o), nil
}

func (r memOrders) Stats(_ context.Context, recent int) (*OrderStats, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	revenue := decimal.Zero
	for _, o := range r.m.orders {
		revenue = revenue.Add(decimal.NewFromFloat(o.TotalAmount))
	}
	all := r.sorted(func(models.Order) bool { return true })
	if recent < 0 {
		recent = 0
	}
	if len(all) > recent {
		all = all[:recent]
	}
	return &OrderStats{
		TotalOrders:  int64(len(r.m.orders)),
		TotalRevenue: revenue.Round(2),
		Recent:       all,
	}, nil
}
