package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// TransactionFilter estrecha una consulta del ledger. Campos vacíos no filtran.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Type      entity.TransactionType
	Limit     int
	Offset    int
}

// TransactionPage página de transacciones más el total sin paginar.
type TransactionPage struct {
	Transactions []*entity.InventoryTransaction
	Total        int
}

// InventoryTransactionRepository define el puerto del Ledger Store (solo inserción).
type InventoryTransactionRepository interface {
	Append(ctx context.Context, tx *entity.InventoryTransaction) error

	// ListByVariant ordena de la más reciente a la más antigua.
	ListByVariant(ctx context.Context, variantID string, filter TransactionFilter) (TransactionPage, error)
	ListByReference(ctx context.Context, referenceType entity.ReferenceType, referenceID string) ([]*entity.InventoryTransaction, error)
	ListByDateRange(ctx context.Context, filter TransactionFilter) (TransactionPage, error)

	// ListForReplay devuelve todas las transacciones de la variante en orden de Sequence ascendente.
	ListForReplay(ctx context.Context, variantID string) ([]*entity.InventoryTransaction, error)
}
