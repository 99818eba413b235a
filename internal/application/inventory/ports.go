package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción del almacenamiento, pasando repositorios atados a esa tx.
// La escritura del nivel y el registro en el ledger se confirman o se revierten juntos.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		levels repository.InventoryLevelRepository,
		ledger repository.InventoryTransactionRepository,
	) error) error
}

// ReorderSignal aviso informativo: el disponible de una variante quedó en o bajo su punto de reorden.
type ReorderSignal struct {
	VariantID       string                 `json:"variant_id"`
	SKU             string                 `json:"sku"`
	Name            string                 `json:"name"`
	Available       int                    `json:"available"`
	ReorderPoint    int                    `json:"reorder_point"`
	ReorderQuantity int                    `json:"reorder_quantity"`
	TriggeredBy     entity.TransactionType `json:"triggered_by"`
	TransactionID   string                 `json:"transaction_id"`
	OccurredAt      time.Time              `json:"occurred_at"`
}

// ReorderNotifier entrega señales de reorden. Un error nunca revierte la mutación que la originó.
type ReorderNotifier interface {
	NotifyReorder(ctx context.Context, signal ReorderSignal) error
}

// OperationObserver recibe el resultado de cada operación del motor (métricas).
type OperationObserver interface {
	OperationCompleted(op entity.TransactionType, err error, elapsed time.Duration)
	RetryAttempted(op entity.TransactionType)
	ReorderSignalled(signal ReorderSignal)
}

type nopNotifier struct{}

func (nopNotifier) NotifyReorder(context.Context, ReorderSignal) error { return nil }

type nopObserver struct{}

func (nopObserver) OperationCompleted(entity.TransactionType, error, time.Duration) {}
func (nopObserver) RetryAttempted(entity.TransactionType)                           {}
func (nopObserver) ReorderSignalled(ReorderSignal)                                  {}
