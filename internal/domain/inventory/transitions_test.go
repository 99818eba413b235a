package inventory_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
)

func level(onHand, reserved int) entity.InventoryLevel {
	return entity.InventoryLevel{
		VariantID:    "V1",
		SKU:          "TSHIRT-M-BLK",
		Name:         "Camiseta M Negra",
		OnHand:       onHand,
		Reserved:     reserved,
		ReorderPoint: 10,
		AverageCost:  decimal.Zero,
		IsActive:     true,
	}
}

func TestReserve_DescuentaDelDisponible(t *testing.T) {
	m, err := inventory.Reserve(level(100, 0), 30)
	require.NoError(t, err)

	assert.Equal(t, 30, m.Level.Reserved)
	assert.Equal(t, 100, m.Level.OnHand, "reservar no toca la existencia")
	assert.Equal(t, entity.TransactionTypeReserve, m.Type)
	assert.Equal(t, 100, m.Before, "before se mide sobre el disponible")
	assert.Equal(t, -30, m.Change)
	assert.Equal(t, 70, m.After)
	assert.True(t, m.TotalCost.IsZero())
}

func TestReserve_StockInsuficienteReportaDetalle(t *testing.T) {
	_, err := inventory.Reserve(level(100, 30), 80)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	var detail *domain.InsufficientStockError
	require.True(t, errors.As(err, &detail))
	assert.Equal(t, "TSHIRT-M-BLK", detail.SKU)
	assert.Equal(t, 70, detail.Available)
	assert.Equal(t, 80, detail.Required)
}

func TestReserve_CantidadInvalida(t *testing.T) {
	for _, q := range []int{0, -1} {
		_, err := inventory.Reserve(level(10, 0), q)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity, "cantidad %d debe rechazarse", q)
	}
}

func TestRelease(t *testing.T) {
	m, err := inventory.Release(level(100, 30), 30)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Level.Reserved)
	assert.Equal(t, 70, m.Before)
	assert.Equal(t, 30, m.Change)
	assert.Equal(t, 100, m.After)

	_, err = inventory.Release(level(100, 5), 6)
	assert.ErrorIs(t, err, domain.ErrInsufficientReservation)
}

func TestAdjust_Validaciones(t *testing.T) {
	cases := []struct {
		name    string
		lvl     entity.InventoryLevel
		delta   int
		reason  string
		wantErr error
	}{
		{"delta cero", level(10, 0), 0, "conteo", domain.ErrInvalidQuantity},
		{"motivo vacío", level(10, 0), 1, "   ", domain.ErrMissingReason},
		{"bajo cero", level(10, 0), -11, "daño", domain.ErrNegativeInventory},
		{"deja reservas huérfanas", level(10, 8), -3, "daño", domain.ErrReservedExceedsOnHand},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := inventory.Adjust(tc.lvl, tc.delta, tc.reason)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	m, err := inventory.Adjust(level(10, 8), -2, "conteo cíclico")
	require.NoError(t, err)
	assert.Equal(t, 8, m.Level.OnHand)
	assert.Equal(t, 10, m.Before)
	assert.Equal(t, 8, m.After)
}

func TestPurchase_RecalculaCostoPromedio(t *testing.T) {
	lvl := level(10, 0)
	lvl.AverageCost = decimal.NewFromInt(4)

	m, err := inventory.Purchase(lvl, 10, decimal.NewFromInt(6))
	require.NoError(t, err)
	assert.Equal(t, 20, m.Level.OnHand)
	assert.True(t, m.Level.AverageCost.Equal(decimal.NewFromInt(5)), "promedio ponderado (10*4 + 10*6) / 20 = 5")
	assert.True(t, m.TotalCost.Equal(decimal.NewFromInt(60)))

	_, err = inventory.Purchase(lvl, 1, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, domain.ErrInvalidUnitCost)
}

func TestSale_ConsumeReservaYPermiteFaltante(t *testing.T) {
	m, under, err := inventory.Sale(level(100, 30), 10, decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.False(t, under)
	assert.Equal(t, 90, m.Level.OnHand)
	assert.Equal(t, 20, m.Level.Reserved)
	assert.True(t, m.TotalCost.Equal(decimal.NewFromInt(50)))

	m, under, err = inventory.Sale(level(100, 4), 10, decimal.NewFromInt(5))
	require.NoError(t, err, "vender sin reserva suficiente no es error")
	assert.True(t, under)
	assert.Equal(t, 0, m.Level.Reserved)
	assert.Equal(t, 90, m.Level.OnHand)

	_, _, err = inventory.Sale(level(3, 0), 4, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrNegativeInventory)
}

func TestNeedsReorder(t *testing.T) {
	assert.True(t, inventory.NeedsReorder(10, 10))
	assert.True(t, inventory.NeedsReorder(0, 0))
	assert.False(t, inventory.NeedsReorder(11, 10))
}

func TestWeightedAverageCost_SinExistencia(t *testing.T) {
	got := inventory.WeightedAverageCost(0, decimal.Zero, 0, decimal.NewFromInt(9))
	assert.True(t, got.IsZero())
}
