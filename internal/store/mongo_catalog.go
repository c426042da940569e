package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"ayush-backend/internal/models"
)

type mongoProducts struct {
	col *mongo.Collection
}

func (r *mongoProducts) Create(ctx context.Context, p *models.Product) error {
	now := time.Now().UTC()
	p.ID = primitive.NilObjectID
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Images == nil {
		p.Images = []string{}
	}
	res, err := r.col.InsertOne(ctx, p)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *mongoProducts) ByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *mongoProducts) ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	out := make(map[primitive.ObjectID]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": uniqueIDs(ids)}})
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	var products []models.Product
	if err := cur.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

func (r *mongoProducts) List(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Featured != nil {
		filter["featured"] = *f.Featured
	}
	cur, err := r.col.Find(ctx, filter, findOptions(ListOptions{}))
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	products := []models.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

func (r *mongoProducts) Update(ctx context.Context, id primitive.ObjectID, upd ProductUpdate) (*models.Product, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Price != nil {
		set["price"] = *upd.Price
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Benefits != nil {
		set["benefits"] = *upd.Benefits
	}
	if upd.Usage != nil {
		set["usage"] = *upd.Usage
	}
	if upd.Images != nil {
		set["images"] = *upd.Images
	}
	if upd.Stock != nil {
		set["stock"] = *upd.Stock
	}
	if upd.Category != nil {
		set["category"] = *upd.Category
	}
	if upd.Featured != nil {
		set["featured"] = *upd.Featured
	}
	return r.findAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

func (r *mongoProducts) findAndUpdate(ctx context.Context, filter, update bson.M) (*models.Product, error) {
	var p models.Product
	if err := r.col.FindOneAndUpdate(ctx, filter, update, afterUpdate()).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *mongoProducts) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoProducts) SetStock(ctx context.Context, id primitive.ObjectID, stock int) (*models.Product, error) {
	return r.findAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"stock":     stock,
		"updatedAt": time.Now().UTC(),
	}})
}

func (r *mongoProducts) AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) (*models.Product, error) {
	if delta == math.MinInt {
		return nil, ErrStockOverflow
	}
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["stock"] = bson.M{"$gte": -delta}
	}
	p, err := r.findAndUpdate(ctx, filter, bson.M{
		"$inc": bson.M{"stock": delta},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	})
	if errors.Is(err, ErrNotFound) && delta < 0 {
		if _, err := r.ByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrInsufficientStock
	}
	return p, err
}

type mongoPoojas struct {
	col *mongo.Collection
}

func (r *mongoPoojas) Create(ctx context.Context, p *models.Pooja) error {
	p.ID = primitive.NilObjectID
	if p.Requirements == nil {
		p.Requirements = []string{}
	}
	res, err := r.col.InsertOne(ctx, p)
	if err != nil {
		return fmt.Errorf("insert pooja: %w", err)
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *mongoPoojas) ByID(ctx context.Context, id primitive.ObjectID) (*models.Pooja, error) {
	var p models.Pooja
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *mongoPoojas) ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Pooja, error) {
	out := make(map[primitive.ObjectID]*models.Pooja, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": uniqueIDs(ids)}})
	if err != nil {
		return nil, fmt.Errorf("find poojas: %w", err)
	}
	var poojas []models.Pooja
	if err := cur.All(ctx, &poojas); err != nil {
		return nil, fmt.Errorf("decode poojas: %w", err)
	}
	for i := range poojas {
		out[poojas[i].ID] = &poojas[i]
	}
	return out, nil
}

func (r *mongoPoojas) List(ctx context.Context) ([]models.Pooja, error) {
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find poojas: %w", err)
	}
	poojas := []models.Pooja{}
	if err := cur.All(ctx, &poojas); err != nil {
		return nil, fmt.Errorf("decode poojas: %w", err)
	}
	return poojas, nil
}

func (r *mongoPoojas) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete pooja: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
