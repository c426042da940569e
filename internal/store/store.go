package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ayush-backend/internal/models"
)

type Users interface {
	Create(ctx context.Context, u *models.User) error
	ByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	ByEmail(ctx context.Context, email string) (*models.User, error)
	ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, name, email, phone string) (*models.User, error)
	AddAddress(ctx context.Context, id primitive.ObjectID, address string) (*models.User, error)
	UpdateAddress(ctx context.Context, id primitive.ObjectID, index int, address string) (*models.User, error)
	DeleteAddress(ctx context.Context, id primitive.ObjectID, index int) (*models.User, error)
	SetProfilePicture(ctx context.Context, id primitive.ObjectID, picture string) (*models.User, error)
	Count(ctx context.Context) (int64, error)
}

type Products interface {
	Create(ctx context.Context, p *models.Product) error
	ByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error)
	List(ctx context.Context, f ProductFilter) ([]models.Product, error)
	Update(ctx context.Context, id primitive.ObjectID, upd ProductUpdate) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error

	// SetStock writes an absolute stock value.
	SetStock(ctx context.Context, id primitive.ObjectID, stock int) (*models.Product, error)
	// AdjustStock adds delta atomically. A negative delta only applies when
	// enough stock remains, otherwise ErrInsufficientStock.
	AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) (*models.Product, error)
}

type Poojas interface {
	Create(ctx context.Context, p *models.Pooja) error
	ByID(ctx context.Context, id primitive.ObjectID) (*models.Pooja, error)
	ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Pooja, error)
	List(ctx context.Context) ([]models.Pooja, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type Bookings interface {
	Create(ctx context.Context, b *models.PoojaBooking) error
	ByID(ctx context.Context, id primitive.ObjectID) (*models.PoojaBooking, error)
	ListByUser(ctx context.Context, user primitive.ObjectID) ([]models.PoojaBooking, error)
	List(ctx context.Context, opts ListOptions) ([]models.PoojaBooking, int64, error)
	// Update applies patch only while the booking is still in the expected
	// status, otherwise ErrConflict.
	Update(ctx context.Context, id primitive.ObjectID, expected models.BookingStatus, patch BookingPatch) (*models.PoojaBooking, error)
}

type Orders interface {
	Create(ctx context.Context, o *models.Order) error
	ByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	ListByUser(ctx context.Context, user primitive.ObjectID) ([]models.Order, error)
	List(ctx context.Context, opts ListOptions) ([]models.Order, int64, error)
	// UpdateStatus moves an order from -> to, ErrConflict if it is no longer in from.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) (*models.Order, error)
	Stats(ctx context.Context, recent int) (*OrderStats, error)
}

type ProductFilter struct {
	Category models.Category
	Featured *bool
}

// Empty reports whether the filter matches the whole catalog.
func (f ProductFilter) Empty() bool {
	return f.Category == "" && f.Featured == nil
}

type ProductUpdate struct {
	Name        *string
	Price       *float64
	Description *string
	Benefits    *string
	Usage       *string
	Images      *[]string
	Stock       *int
	Category    *models.Category
	Featured    *bool
}

type BookingPatch struct {
	Status    *models.BookingStatus
	PoojaDate *time.Time
	Time      *string
}

type OrderStats struct {
	TotalOrders  int64
	TotalRevenue decimal.Decimal
	Recent       []models.Order
}

// ListOptions filters admin listings. Page is 1-based; a zero PageSize
// returns every match.
type ListOptions struct {
	Status   string
	Page     int
	PageSize int
}

const MaxPageSize = 100

func (o ListOptions) bounds() (skip, limit int) {
	if o.PageSize <= 0 {
		return 0, 0
	}
	size := o.PageSize
	if size > MaxPageSize {
		size = MaxPageSize
	}
	page := o.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * size, size
}

// Store bundles the repositories behind one backend.
type Store struct {
	Users    Users
	Products Products
	Poojas   Poojas
	Bookings Bookings
	Orders   Orders

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

func uniqueIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
