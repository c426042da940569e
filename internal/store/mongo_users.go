package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"ayush-backend/internal/models"
)

type mongoUsers struct {
	col *mongo.Collection
}

func (r *mongoUsers) Create(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	u.ID = primitive.NilObjectID
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Role == "" {
		u.Role = models.RoleCustomer
	}
	if u.Addresses == nil {
		u.Addresses = []string{}
	}

	res, err := r.col.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *mongoUsers) ByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *mongoUsers) ByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *mongoUsers) ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.User, error) {
	out := make(map[primitive.ObjectID]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": uniqueIDs(ids)}})
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

func (r *mongoUsers) update(ctx context.Context, filter, update bson.M) (*models.User, error) {
	var u models.User
	err := r.col.FindOneAndUpdate(ctx, filter, update, afterUpdate()).Decode(&u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *mongoUsers) UpdateProfile(ctx context.Context, id primitive.ObjectID, name, email, phone string) (*models.User, error) {
	return r.update(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"name":      name,
		"email":     email,
		"phone":     phone,
		"updatedAt": time.Now().UTC(),
	}})
}

func (r *mongoUsers) AddAddress(ctx context.Context, id primitive.ObjectID, address string) (*models.User, error) {
	return r.update(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"addresses": address},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (r *mongoUsers) UpdateAddress(ctx context.Context, id primitive.ObjectID, index int, address string) (*models.User, error) {
	if index < 0 {
		return nil, ErrIndexOutOfRange
	}
	field := "addresses." + strconv.Itoa(index)
	u, err := r.update(ctx,
		bson.M{"_id": id, field: bson.M{"$exists": true}},
		bson.M{"$set": bson.M{field: address, "updatedAt": time.Now().UTC()}},
	)
	if errors.Is(err, ErrNotFound) {
		if _, err := r.ByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrIndexOutOfRange
	}
	return u, err
}

// DeleteAddress removes by position. Mongo has no positional $pull, so the
// new list is written only if the stored list is still the one we read.
func (r *mongoUsers) DeleteAddress(ctx context.Context, id primitive.ObjectID, index int) (*models.User, error) {
	for attempt := 0; attempt < 3; attempt++ {
		current, err := r.ByID(ctx, id)
		if err != nil {
			return nil, err
		}
		old := current.Addresses
		if old == nil {
			old = []string{}
		}
		if index < 0 || index >= len(old) {
			return nil, ErrIndexOutOfRange
		}
		next := make([]string, 0, len(old)-1)
		next = append(next, old[:index]...)
		next = append(next, old[index+1:]...)

		u, err := r.update(ctx,
			bson.M{"_id": id, "addresses": old},
			bson.M{"$set": bson.M{"addresses": next, "updatedAt": time.Now().UTC()}},
		)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return u, err
	}
	return nil, ErrConflict
}

func (r *mongoUsers) SetProfilePicture(ctx context.Context, id primitive.ObjectID, picture string) (*models.User, error) {
	return r.update(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"profilePicture": picture,
		"updatedAt":      time.Now().UTC(),
	}})
}

func (r *mongoUsers) Count(ctx context.Context) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
