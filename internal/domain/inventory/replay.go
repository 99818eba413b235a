package inventory

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// Snapshot contadores reconstruidos a partir del ledger.
type Snapshot struct {
	OnHand      int
	Reserved    int
	AverageCost decimal.Decimal
}

// Apply aplica una transacción sobre el snapshot siguiendo las mismas reglas que las operaciones.
func (s *Snapshot) Apply(tx *entity.InventoryTransaction) error {
	switch tx.Type {
	case entity.TransactionTypeReserve, entity.TransactionTypeRelease:
		// el cambio se mide sobre el disponible: reservar lo reduce, liberar lo aumenta
		s.Reserved -= tx.QuantityChange
	case entity.TransactionTypeAdjustment:
		s.OnHand += tx.QuantityChange
	case entity.TransactionTypePurchase:
		s.AverageCost = WeightedAverageCost(s.OnHand, s.AverageCost, tx.QuantityChange, tx.UnitCost)
		s.OnHand += tx.QuantityChange
	case entity.TransactionTypeSale:
		sold := -tx.QuantityChange
		s.OnHand -= sold
		s.Reserved -= min(s.Reserved, sold)
	default:
		return fmt.Errorf("tipo de transacción desconocido %q (id %s)", tx.Type, tx.ID)
	}
	if s.OnHand < 0 || s.Reserved < 0 || s.Reserved > s.OnHand {
		return fmt.Errorf("replay inválido en transacción %s: existencia %d, reservado %d", tx.ID, s.OnHand, s.Reserved)
	}
	return nil
}

// Replay reconstruye los contadores desde {0, 0}. Ordena por Sequence sin modificar el slice recibido.
func Replay(txs []*entity.InventoryTransaction) (Snapshot, error) {
	ordered := make([]*entity.InventoryTransaction, len(txs))
	copy(ordered, txs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Sequence < ordered[j].Sequence })

	s := Snapshot{AverageCost: decimal.Zero}
	for _, tx := range ordered {
		if err := s.Apply(tx); err != nil {
			return s, err
		}
	}
	return s, nil
}

// Matches compara contadores reconstruidos contra el nivel almacenado.
func (s Snapshot) Matches(level entity.InventoryLevel) bool {
	return s.OnHand == level.OnHand && s.Reserved == level.Reserved
}
