package inventory

import (
	"context"

	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// AuditReport compara el nivel almacenado contra la reconstrucción desde el ledger.
type AuditReport struct {
	VariantID      string
	Expected       inventory.Snapshot // reconstruido desde el ledger
	ActualOnHand   int
	ActualReserved int
	Consistent     bool
	EntryCount     int
	BrokenEntries  []string // ids con After != Before + Change
	ReplayError    string
}

// AuditUseCase verifica que el nivel de una variante sea una proyección fiel de su ledger.
type AuditUseCase struct {
	levels repository.InventoryLevelRepository
	ledger repository.InventoryTransactionRepository
}

// NewAuditUseCase construye el caso de uso de auditoría.
func NewAuditUseCase(levels repository.InventoryLevelRepository, ledger repository.InventoryTransactionRepository) *AuditUseCase {
	return &AuditUseCase{levels: levels, ledger: ledger}
}

// AuditVariant reproduce el ledger de la variante y lo compara con el nivel actual.
// Lee sin bloqueo: con escrituras concurrentes puede reportar una diferencia transitoria.
func (uc *AuditUseCase) AuditVariant(ctx context.Context, variantID string) (*AuditReport, error) {
	level, err := uc.levels.Get(ctx, variantID)
	if err != nil {
		return nil, err
	}
	txs, err := uc.ledger.ListForReplay(ctx, variantID)
	if err != nil {
		return nil, err
	}

	report := &AuditReport{
		VariantID:      variantID,
		ActualOnHand:   level.OnHand,
		ActualReserved: level.Reserved,
		EntryCount:     len(txs),
		BrokenEntries:  []string{},
	}
	for _, tx := range txs {
		if !tx.Balanced() {
			report.BrokenEntries = append(report.BrokenEntries, tx.ID)
		}
	}
	snap, err := inventory.Replay(txs)
	report.Expected = snap
	if err != nil {
		report.ReplayError = err.Error()
	}
	report.Consistent = err == nil && len(report.BrokenEntries) == 0 && snap.Matches(*level)
	return report, nil
}
