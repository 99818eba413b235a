package mongodb

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

type levelDocument struct {
	VariantID       string               `bson:"_id"`
	SKU             string               `bson:"sku"`
	Name            string               `bson:"name"`
	OnHand          int                  `bson:"onHand"`
	Reserved        int                  `bson:"reserved"`
	ReorderPoint    int                  `bson:"reorderPoint"`
	ReorderQuantity int                  `bson:"reorderQuantity"`
	AverageCost     primitive.Decimal128 `bson:"averageCost"`
	IsActive        bool                 `bson:"isActive"`
	Version         int64                `bson:"version"`
	UpdatedAt       time.Time            `bson:"updatedAt"`
}

type transactionDocument struct {
	ID              string               `bson:"_id"`
	Sequence        int64                `bson:"sequence"`
	VariantID       string               `bson:"variantId"`
	SKU             string               `bson:"sku"`
	ProductName     string               `bson:"productName"`
	Type            string               `bson:"type"`
	QuantityBefore  int                  `bson:"quantityBefore"`
	QuantityChange  int                  `bson:"quantityChange"`
	QuantityAfter   int                  `bson:"quantityAfter"`
	ReferenceType   string               `bson:"referenceType"`
	ReferenceID     string               `bson:"referenceId"`
	ReferenceNumber string               `bson:"referenceNumber,omitempty"`
	UnitCost        primitive.Decimal128 `bson:"unitCost"`
	TotalCost       primitive.Decimal128 `bson:"totalCost"`
	Reason          string               `bson:"reason"`
	Notes           string               `bson:"notes,omitempty"`
	PerformedBy     string               `bson:"performedBy"`
	OccurredAt      time.Time            `bson:"occurredAt"`
}

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func toLevelDocument(l *entity.InventoryLevel) levelDocument {
	return levelDocument{
		VariantID:       l.VariantID,
		SKU:             l.SKU,
		Name:            l.Name,
		OnHand:          l.OnHand,
		Reserved:        l.Reserved,
		ReorderPoint:    l.ReorderPoint,
		ReorderQuantity: l.ReorderQuantity,
		AverageCost:     toDecimal128(l.AverageCost),
		IsActive:        l.IsActive,
		Version:         l.Version,
		UpdatedAt:       l.UpdatedAt.UTC(),
	}
}

func (d levelDocument) toEntity() *entity.InventoryLevel {
	return &entity.InventoryLevel{
		VariantID:       d.VariantID,
		SKU:             d.SKU,
		Name:            d.Name,
		OnHand:          d.OnHand,
		Reserved:        d.Reserved,
		ReorderPoint:    d.ReorderPoint,
		ReorderQuantity: d.ReorderQuantity,
		AverageCost:     fromDecimal128(d.AverageCost),
		IsActive:        d.IsActive,
		Version:         d.Version,
		UpdatedAt:       d.UpdatedAt,
	}
}

func toTransactionDocument(t *entity.InventoryTransaction) transactionDocument {
	return transactionDocument{
		ID:              t.ID,
		Sequence:        t.Sequence,
		VariantID:       t.VariantID,
		SKU:             t.SKU,
		ProductName:     t.ProductName,
		Type:            string(t.Type),
		QuantityBefore:  t.QuantityBefore,
		QuantityChange:  t.QuantityChange,
		QuantityAfter:   t.QuantityAfter,
		ReferenceType:   string(t.ReferenceType),
		ReferenceID:     t.ReferenceID,
		ReferenceNumber: t.ReferenceNumber,
		UnitCost:        toDecimal128(t.UnitCost),
		TotalCost:       toDecimal128(t.TotalCost),
		Reason:          t.Reason,
		Notes:           t.Notes,
		PerformedBy:     t.PerformedBy,
		OccurredAt:      t.OccurredAt.UTC(),
	}
}

func (d transactionDocument) toEntity() *entity.InventoryTransaction {
	return &entity.InventoryTransaction{
		ID:              d.ID,
		Sequence:        d.Sequence,
		VariantID:       d.VariantID,
		SKU:             d.SKU,
		ProductName:     d.ProductName,
		Type:            entity.TransactionType(d.Type),
		QuantityBefore:  d.QuantityBefore,
		QuantityChange:  d.QuantityChange,
		QuantityAfter:   d.QuantityAfter,
		ReferenceType:   entity.ReferenceType(d.ReferenceType),
		ReferenceID:     d.ReferenceID,
		ReferenceNumber: d.ReferenceNumber,
		UnitCost:        fromDecimal128(d.UnitCost),
		TotalCost:       fromDecimal128(d.TotalCost),
		Reason:          d.Reason,
		Notes:           d.Notes,
		PerformedBy:     d.PerformedBy,
		OccurredAt:      d.OccurredAt,
	}
}
