package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// ReplenishmentSuggestion línea de la lista de reposición.
type ReplenishmentSuggestion struct {
	VariantID          string
	SKU                string
	Name               string
	Available          int
	ReorderPoint       int
	IdealStock         int
	SuggestedOrderQty  int
	AverageCost        decimal.Decimal
	EstimatedOrderCost decimal.Decimal
	Priority           int // 1 = más urgente
}

// ReplenishmentUseCase genera la lista de reposición de las variantes bajo punto de reorden.
type ReplenishmentUseCase struct {
	levels repository.InventoryLevelRepository
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(levels repository.InventoryLevelRepository) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{levels: levels}
}

var idealStockFactor = decimal.NewFromFloat(1.5)

// GenerateReplenishmentList devuelve las variantes activas con disponible <= punto de reorden,
// con la cantidad sugerida max(cantidad de reorden, stock ideal - disponible) y su costo estimado.
// Prioridad por mayor déficit bajo el punto de reorden.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context) ([]ReplenishmentSuggestion, error) {
	levels, err := uc.levels.List(ctx, true)
	if err != nil {
		return nil, err
	}

	suggestions := make([]ReplenishmentSuggestion, 0)
	for _, l := range levels {
		available := l.Available()
		if !inventory.NeedsReorder(available, l.ReorderPoint) {
			continue
		}
		// stock ideal = 1.5 x punto de reorden, redondeado hacia arriba
		ideal := int(decimal.NewFromInt(int64(l.ReorderPoint)).Mul(idealStockFactor).Ceil().IntPart())
		suggested := max(l.ReorderQuantity, ideal-available)

		suggestions = append(suggestions, ReplenishmentSuggestion{
			VariantID:          l.VariantID,
			SKU:                l.SKU,
			Name:               l.Name,
			Available:          available,
			ReorderPoint:       l.ReorderPoint,
			IdealStock:         ideal,
			SuggestedOrderQty:  suggested,
			AverageCost:        l.AverageCost,
			EstimatedOrderCost: inventory.TotalCost(l.AverageCost, suggested),
		})
	}

	// Mayor déficit primero; desempate por SKU para un orden estable
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		defA := a.ReorderPoint - a.Available
		defB := b.ReorderPoint - b.Available
		if defA != defB {
			return defA > defB
		}
		return a.SKU < b.SKU
	})

	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}
