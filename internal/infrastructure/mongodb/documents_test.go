package mongodb

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

func TestDecimal128_ConservaPrecision(t *testing.T) {
	for _, raw := range []string{"0", "4.25", "12.3333333333", "-7.5"} {
		d := decimal.RequireFromString(raw)
		assert.True(t, d.Equal(fromDecimal128(toDecimal128(d))), "valor %s", raw)
	}
}

func TestLevelDocument_ConvierteEntidad(t *testing.T) {
	level := &entity.InventoryLevel{
		VariantID: "V1", SKU: "SKU-1", OnHand: 10, Reserved: 3, ReorderPoint: 5, ReorderQuantity: 20,
		AverageCost: decimal.RequireFromString("4.10"), IsActive: true, Version: 7, UpdatedAt: time.Now(),
	}
	got := toLevelDocument(level).toEntity()
	assert.Equal(t, level.VariantID, got.VariantID)
	assert.Equal(t, level.Reserved, got.Reserved)
	assert.Equal(t, level.Version, got.Version)
	assert.True(t, level.AverageCost.Equal(got.AverageCost))
}

func TestBuildFilter(t *testing.T) {
	assert.Empty(t, buildFilter(repository.TransactionFilter{}))

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := buildFilter(repository.TransactionFilter{StartDate: &start, Type: entity.TransactionTypeSale})
	assert.Equal(t, "SALE", f["type"])
	assert.Equal(t, bson.M{"$gte": start}, f["occurredAt"])
}
