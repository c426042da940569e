package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ayush-backend/internal/models"
)

type mongoBookings struct {
	col *mongo.Collection
}

func (r *mongoBookings) Create(ctx context.Context, b *models.PoojaBooking) error {
	now := time.Now().UTC()
	b.ID = primitive.NilObjectID
	b.CreatedAt, b.UpdatedAt = now, now
	if b.Status == "" {
		b.Status = models.BookingPending
	}
	res, err := r.col.InsertOne(ctx, b)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	b.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *mongoBookings) ByID(ctx context.Context, id primitive.ObjectID) (*models.PoojaBooking, error) {
	var b models.PoojaBooking
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (r *mongoBookings) ListByUser(ctx context.Context, user primitive.ObjectID) ([]models.PoojaBooking, error) {
	cur, err := r.col.Find(ctx, bson.M{"user": user}, findOptions(ListOptions{}))
	if err != nil {
		return nil, fmt.Errorf("find bookings: %w", err)
	}
	bookings := []models.PoojaBooking{}
	if err := cur.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookings) List(ctx context.Context, opts ListOptions) ([]models.PoojaBooking, int64, error) {
	filter := statusFilter(opts)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}
	cur, err := r.col.Find(ctx, filter, findOptions(opts))
	if err != nil {
		return nil, 0, fmt.Errorf("find bookings: %w", err)
	}
	bookings := []models.PoojaBooking{}
	if err := cur.All(ctx, &bookings); err != nil {
		return nil, 0, fmt.Errorf("decode bookings: %w", err)
	}
	return bookings, total, nil
}

func (r *mongoBookings) Update(ctx context.Context, id primitive.ObjectID, expected models.BookingStatus, patch BookingPatch) (*models.PoojaBooking, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.PoojaDate != nil {
		set["poojaDate"] = *patch.PoojaDate
	}
	if patch.Time != nil {
		set["time"] = *patch.Time
	}

	var b models.PoojaBooking
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": expected},
		bson.M{"$set": set},
		afterUpdate(),
	).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, err := r.ByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}
	return &b, nil
}

type mongoOrders struct {
	col *mongo.Collection
}

func (r *mongoOrders) Create(ctx context.Context, o *models.Order) error {
	now := time.Now().UTC()
	o.ID = primitive.NilObjectID
	o.CreatedAt, o.UpdatedAt = now, now
	if o.Status == "" {
		o.Status = models.OrderPending
	}
	res, err := r.col.InsertOne(ctx, o)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	o.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *mongoOrders) ByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (r *mongoOrders) ListByUser(ctx context.Context, user primitive.ObjectID) ([]models.Order, error) {
	cur, err := r.col.Find(ctx, bson.M{"user": user}, findOptions(ListOptions{}))
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	orders := []models.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}

func (r *mongoOrders) List(ctx context.Context, opts ListOptions) ([]models.Order, int64, error) {
	filter := statusFilter(opts)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}
	cur, err := r.col.Find(ctx, filter, findOptions(opts))
	if err != nil {
		return nil, 0, fmt.Errorf("find orders: %w", err)
	}
	orders := []models.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, 0, fmt.Errorf("decode orders: %w", err)
	}
	return orders, total, nil
}

func (r *mongoOrders) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) (*models.Order, error) {
	var o models.Order
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now().UTC()}},
		afterUpdate(),
	).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, err := r.ByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	return &o, nil
}

func (r *mongoOrders) Stats(ctx context.Context, recent int) (*OrderStats, error) {
	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	cur, err := r.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$totalAmount"}}},
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate revenue: %w", err)
	}
	var sums []struct {
		Revenue float64 `bson:"revenue"`
	}
	if err := cur.All(ctx, &sums); err != nil {
		return nil, fmt.Errorf("decode revenue: %w", err)
	}
	revenue := decimal.Zero
	if len(sums) > 0 {
		revenue = decimal.NewFromFloat(sums[0].Revenue).Round(2)
	}

	latest := []models.Order{}
	if recent > 0 {
		cur, err := r.col.Find(ctx, bson.M{},
			options.Find().SetSort(newestFirst()).SetLimit(int64(recent)))
		if err != nil {
			return nil, fmt.Errorf("find recent orders: %w", err)
		}
		if err := cur.All(ctx, &latest); err != nil {
			return nil, fmt.Errorf("decode recent orders: %w", err)
		}
	}

	return &OrderStats{TotalOrders: total, TotalRevenue: revenue, Recent: latest}, nil
}
