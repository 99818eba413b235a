package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// indexVariantSequence índice único (variantId, sequence) del ledger.
const indexVariantSequence = "uniq_variant_sequence"

// EnsureIndexes crea los índices de ambas colecciones. Es idempotente.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	levels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "sku", Value: 1}}, Options: options.Index().SetName("uniq_sku").SetUnique(true)},
		{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "sku", Value: 1}}},
	}
	if _, err := c.database.Collection(collectionLevels).Indexes().CreateMany(ctx, levels); err != nil {
		return fmt.Errorf("índices de %s: %w", collectionLevels, err)
	}

	transactions := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "variantId", Value: 1}, {Key: "sequence", Value: 1}},
			Options: options.Index().SetName(indexVariantSequence).SetUnique(true),
		},
		{Keys: bson.D{{Key: "variantId", Value: 1}, {Key: "occurredAt", Value: -1}}},
		{Keys: bson.D{{Key: "referenceType", Value: 1}, {Key: "referenceId", Value: 1}}},
		{Keys: bson.D{{Key: "occurredAt", Value: -1}}},
	}
	if _, err := c.database.Collection(collectionTransactions).Indexes().CreateMany(ctx, transactions); err != nil {
		return fmt.Errorf("índices de %s: %w", collectionTransactions, err)
	}
	return nil
}
