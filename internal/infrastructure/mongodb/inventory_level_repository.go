package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var _ repository.InventoryLevelRepository = (*InventoryLevelRepo)(nil)

// InventoryLevelRepo niveles de inventario en MongoDB; _id es el variantId.
type InventoryLevelRepo struct {
	collection *mongo.Collection
	session    mongo.Session // nil: sin transacción
}

func (r *InventoryLevelRepo) Get(ctx context.Context, variantID string) (*entity.InventoryLevel, error) {
	var doc levelDocument
	err := r.collection.FindOne(bindSession(ctx, r.session), bson.M{"_id": variantID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrVariantNotFound
		}
		return nil, fmt.Errorf("get inventory level: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *InventoryLevelRepo) CompareAndSwap(ctx context.Context, variantID string, expectedVersion int64, level *entity.InventoryLevel) error {
	if !level.Valid() {
		return fmt.Errorf("variante %s: %w", variantID, domain.ErrConflict)
	}
	ctx = bindSession(ctx, r.session)
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"onHand":          level.OnHand,
		"reserved":        level.Reserved,
		"reorderPoint":    level.ReorderPoint,
		"reorderQuantity": level.ReorderQuantity,
		"averageCost":     toDecimal128(level.AverageCost),
		"isActive":        level.IsActive,
		"version":         expectedVersion + 1,
		"updatedAt":       now,
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": variantID, "version": expectedVersion}, update)
	if err != nil {
		return fmt.Errorf("compare and swap inventory level: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.collection.CountDocuments(ctx, bson.M{"_id": variantID}, options.Count().SetLimit(1))
		if err != nil {
			return fmt.Errorf("check inventory level: %w", err)
		}
		if n == 0 {
			return domain.ErrVariantNotFound
		}
		return domain.ErrConcurrencyConflict
	}
	level.VariantID = variantID
	level.Version = expectedVersion + 1
	level.UpdatedAt = now
	return nil
}

func (r *InventoryLevelRepo) Create(ctx context.Context, level *entity.InventoryLevel) error {
	if !level.Valid() {
		return domain.ErrInvalidInput
	}
	if level.UpdatedAt.IsZero() {
		level.UpdatedAt = time.Now().UTC()
	}
	if _, err := r.collection.InsertOne(bindSession(ctx, r.session), toLevelDocument(level)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("variante %s: %w", level.VariantID, domain.ErrDuplicate)
		}
		return fmt.Errorf("create inventory level: %w", err)
	}
	return nil
}

func (r *InventoryLevelRepo) List(ctx context.Context, activeOnly bool) ([]*entity.InventoryLevel, error) {
	ctx = bindSession(ctx, r.session)
	filter := bson.M{}
	if activeOnly {
		filter["isActive"] = true
	}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "sku", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list inventory levels: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []levelDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode inventory levels: %w", err)
	}
	list := make([]*entity.InventoryLevel, 0, len(docs))
	for _, d := range docs {
		list = append(list, d.toEntity())
	}
	return list, nil
}
