package mongodb

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var _ repository.InventoryTransactionRepository = (*InventoryTransactionRepo)(nil)

// InventoryTransactionRepo ledger en MongoDB. Solo InsertOne; nunca se actualiza ni borra.
type InventoryTransactionRepo struct {
	collection *mongo.Collection
	session    mongo.Session
}

func (r *InventoryTransactionRepo) Append(ctx context.Context, t *entity.InventoryTransaction) error {
	if !t.Balanced() {
		return fmt.Errorf("transacción %s desbalanceada: %w", t.ID, domain.ErrInvalidInput)
	}
	_, err := r.collection.InsertOne(bindSession(ctx, r.session), toTransactionDocument(t))
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		if strings.Contains(err.Error(), indexVariantSequence) {
			return fmt.Errorf("secuencia %d de %s ya registrada: %w", t.Sequence, t.VariantID, domain.ErrConcurrencyConflict)
		}
		return fmt.Errorf("transacción %s: %w", t.ID, domain.ErrDuplicate)
	}
	return fmt.Errorf("append inventory transaction: %w", err)
}

var newestFirst = bson.D{{Key: "occurredAt", Value: -1}, {Key: "sequence", Value: -1}, {Key: "_id", Value: -1}}

func (r *InventoryTransactionRepo) ListByVariant(ctx context.Context, variantID string, f repository.TransactionFilter) (repository.TransactionPage, error) {
	filter := buildFilter(f)
	filter["variantId"] = variantID
	return r.page(ctx, filter, f)
}

func (r *InventoryTransactionRepo) ListByReference(ctx context.Context, refType entity.ReferenceType, refID string) ([]*entity.InventoryTransaction, error) {
	filter := bson.M{"referenceType": string(refType), "referenceId": refID}
	return r.find(ctx, filter, options.Find().SetSort(newestFirst))
}

func (r *InventoryTransactionRepo) ListByDateRange(ctx context.Context, f repository.TransactionFilter) (repository.TransactionPage, error) {
	return r.page(ctx, buildFilter(f), f)
}

func (r *InventoryTransactionRepo) ListForReplay(ctx context.Context, variantID string) ([]*entity.InventoryTransaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}})
	return r.find(ctx, bson.M{"variantId": variantID}, opts)
}

func buildFilter(f repository.TransactionFilter) bson.M {
	filter := bson.M{}
	if f.Type != "" {
		filter["type"] = string(f.Type)
	}
	occurred := bson.M{}
	if f.StartDate != nil {
		occurred["$gte"] = f.StartDate.UTC()
	}
	if f.EndDate != nil {
		occurred["$lte"] = f.EndDate.UTC()
	}
	if len(occurred) > 0 {
		filter["occurredAt"] = occurred
	}
	return filter
}

func (r *InventoryTransactionRepo) page(ctx context.Context, filter bson.M, f repository.TransactionFilter) (repository.TransactionPage, error) {
	total, err := r.collection.CountDocuments(bindSession(ctx, r.session), filter)
	if err != nil {
		return repository.TransactionPage{}, fmt.Errorf("count inventory transactions: %w", err)
	}
	opts := options.Find().SetSort(newestFirst)
	if f.Offset > 0 {
		opts.SetSkip(int64(f.Offset))
	}
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	txs, err := r.find(ctx, filter, opts)
	if err != nil {
		return repository.TransactionPage{}, err
	}
	return repository.TransactionPage{Transactions: txs, Total: int(total)}, nil
}

func (r *InventoryTransactionRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*entity.InventoryTransaction, error) {
	ctx = bindSession(ctx, r.session)
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find inventory transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []transactionDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode inventory transactions: %w", err)
	}
	list := make([]*entity.InventoryTransaction, 0, len(docs))
	for _, d := range docs {
		list = append(list, d.toEntity())
	}
	return list, nil
}
