package inventory

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// Mutation resultado puro de aplicar una operación a un nivel: el nivel nuevo
// y los valores que se registran en el ledger. No toca almacenamiento.
type Mutation struct {
	Level     entity.InventoryLevel
	Type      entity.TransactionType
	Before    int
	Change    int
	After     int
	UnitCost  decimal.Decimal
	TotalCost decimal.Decimal
}

// NeedsReorder señal de reorden: disponible <= punto de reorden.
func NeedsReorder(available, reorderPoint int) bool {
	return available <= reorderPoint
}

// Reserve compromete quantity unidades del disponible.
func Reserve(level entity.InventoryLevel, quantity int) (Mutation, error) {
	if quantity <= 0 {
		return Mutation{}, domain.ErrInvalidQuantity
	}
	available := level.Available()
	if available < quantity {
		return Mutation{}, &domain.InsufficientStockError{SKU: level.SKU, Available: available, Required: quantity}
	}
	next := level
	next.Reserved += quantity
	return Mutation{
		Level:  next,
		Type:   entity.TransactionTypeReserve,
		Before: available,
		Change: -quantity,
		After:  available - quantity,
	}, nil
}

// Release devuelve al disponible unidades previamente reservadas.
func Release(level entity.InventoryLevel, quantity int) (Mutation, error) {
	if quantity <= 0 {
		return Mutation{}, domain.ErrInvalidQuantity
	}
	if level.Reserved < quantity {
		return Mutation{}, domain.ErrInsufficientReservation
	}
	available := level.Available()
	next := level
	next.Reserved -= quantity
	return Mutation{
		Level:  next,
		Type:   entity.TransactionTypeRelease,
		Before: available,
		Change: quantity,
		After:  available + quantity,
	}, nil
}

// Adjust suma delta (positivo o negativo) a la existencia. Nunca deja reservas huérfanas.
func Adjust(level entity.InventoryLevel, delta int, reason string) (Mutation, error) {
	if delta == 0 {
		return Mutation{}, domain.ErrInvalidQuantity
	}
	if strings.TrimSpace(reason) == "" {
		return Mutation{}, domain.ErrMissingReason
	}
	newOnHand := level.OnHand + delta
	if newOnHand < 0 {
		return Mutation{}, domain.ErrNegativeInventory
	}
	if newOnHand < level.Reserved {
		return Mutation{}, domain.ErrReservedExceedsOnHand
	}
	next := level
	next.OnHand = newOnHand
	return Mutation{
		Level:  next,
		Type:   entity.TransactionTypeAdjustment,
		Before: level.OnHand,
		Change: delta,
		After:  newOnHand,
	}, nil
}

// Purchase recibe mercancía y recalcula el costo promedio.
func Purchase(level entity.InventoryLevel, quantity int, unitCost decimal.Decimal) (Mutation, error) {
	if quantity <= 0 {
		return Mutation{}, domain.ErrInvalidQuantity
	}
	if unitCost.IsNegative() {
		return Mutation{}, domain.ErrInvalidUnitCost
	}
	next := level
	next.OnHand = level.OnHand + quantity
	next.AverageCost = WeightedAverageCost(level.OnHand, level.AverageCost, quantity, unitCost)
	return Mutation{
		Level:     next,
		Type:      entity.TransactionTypePurchase,
		Before:    level.OnHand,
		Change:    quantity,
		After:     next.OnHand,
		UnitCost:  unitCost,
		TotalCost: TotalCost(unitCost, quantity),
	}, nil
}

// Sale descuenta la venta de la existencia y consume hasta quantity unidades reservadas.
// underReserved es verdadero cuando la reserva no cubría la venta; no es un error
// porque el despacho físico ya ocurrió.
func Sale(level entity.InventoryLevel, quantity int, unitCost decimal.Decimal) (m Mutation, underReserved bool, err error) {
	if quantity <= 0 {
		return Mutation{}, false, domain.ErrInvalidQuantity
	}
	if unitCost.IsNegative() {
		return Mutation{}, false, domain.ErrInvalidUnitCost
	}
	if level.OnHand < quantity {
		return Mutation{}, false, domain.ErrNegativeInventory
	}
	next := level
	next.OnHand = level.OnHand - quantity
	next.Reserved = level.Reserved - min(level.Reserved, quantity)
	return Mutation{
		Level:     next,
		Type:      entity.TransactionTypeSale,
		Before:    level.OnHand,
		Change:    -quantity,
		After:     next.OnHand,
		UnitCost:  unitCost,
		TotalCost: TotalCost(unitCost, quantity),
	}, level.Reserved < quantity, nil
}
