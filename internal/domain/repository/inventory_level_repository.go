package repository

import (
	"context"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// InventoryLevelRepository define el puerto del Variant Store: nivel actual por variante (DIP).
// Las escrituras del motor pasan únicamente por CompareAndSwap.
type InventoryLevelRepository interface {
	// Get devuelve el nivel actual o domain.ErrVariantNotFound.
	Get(ctx context.Context, variantID string) (*entity.InventoryLevel, error)

	// CompareAndSwap reemplaza los contadores solo si la versión almacenada es expectedVersion.
	// Si la versión cambió devuelve domain.ErrConcurrencyConflict. En éxito deja
	// level.Version = expectedVersion + 1.
	CompareAndSwap(ctx context.Context, variantID string, expectedVersion int64, level *entity.InventoryLevel) error

	// Create registra una variante nueva (domain.ErrDuplicate si ya existe).
	Create(ctx context.Context, level *entity.InventoryLevel) error

	// List devuelve todos los niveles; activeOnly filtra las variantes desactivadas.
	List(ctx context.Context, activeOnly bool) ([]*entity.InventoryLevel, error)
}
