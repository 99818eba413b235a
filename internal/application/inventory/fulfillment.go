package inventory

import (
	"context"
	"errors"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// UnknownSKU se reporta cuando la variante pedida no existe.
const UnknownSKU = "UNKNOWN"

// FulfillmentItem línea de una orden a verificar.
type FulfillmentItem struct {
	VariantID string
	Quantity  int
}

// Shortfall línea que no puede cubrirse con el disponible actual.
type Shortfall struct {
	VariantID string
	SKU       string
	Required  int
	Available int
}

// FulfillmentResult resultado de CanFulfill.
type FulfillmentResult struct {
	CanFulfill bool
	Shortfalls []Shortfall
}

// FulfillmentChecker consulta si una orden completa puede despacharse.
// Solo lectura: el resultado puede quedar obsoleto en cuanto se devuelve.
type FulfillmentChecker struct {
	levels repository.InventoryLevelRepository
}

// NewFulfillmentChecker construye el verificador.
func NewFulfillmentChecker(levels repository.InventoryLevelRepository) *FulfillmentChecker {
	return &FulfillmentChecker{levels: levels}
}

// CanFulfill evalúa cada línea contra el disponible de su variante.
func (c *FulfillmentChecker) CanFulfill(ctx context.Context, items []FulfillmentItem) (*FulfillmentResult, error) {
	res := &FulfillmentResult{CanFulfill: true, Shortfalls: []Shortfall{}}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		level, err := c.levels.Get(ctx, item.VariantID)
		if errors.Is(err, domain.ErrNotFound) {
			res.Shortfalls = append(res.Shortfalls, Shortfall{
				VariantID: item.VariantID,
				SKU:       UnknownSKU,
				Required:  item.Quantity,
				Available: 0,
			})
			continue
		}
		if err != nil {
			return nil, err
		}
		if available := level.Available(); available < item.Quantity {
			res.Shortfalls = append(res.Shortfalls, Shortfall{
				VariantID: item.VariantID,
				SKU:       level.SKU,
				Required:  item.Quantity,
				Available: available,
			})
		}
	}
	res.CanFulfill = len(res.Shortfalls) == 0
	return res, nil
}
