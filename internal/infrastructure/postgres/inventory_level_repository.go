package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var _ repository.InventoryLevelRepository = (*InventoryLevelRepo)(nil)

// InventoryLevelRepo implementación de InventoryLevelRepository sobre PostgreSQL.
type InventoryLevelRepo struct {
	q         Querier
	forUpdate bool // dentro de TxRunner: Get bloquea la fila hasta el commit
}

// NewInventoryLevelRepository construye el adaptador. Acepta pool o tx (Querier).
func NewInventoryLevelRepository(q Querier) *InventoryLevelRepo {
	return &InventoryLevelRepo{q: q}
}

const levelColumns = `variant_id, sku, name, on_hand, reserved, reorder_point, reorder_quantity,
		average_cost, is_active, version, updated_at`

func scanLevel(row pgx.Row) (*entity.InventoryLevel, error) {
	var l entity.InventoryLevel
	err := row.Scan(
		&l.VariantID, &l.SKU, &l.Name, &l.OnHand, &l.Reserved, &l.ReorderPoint, &l.ReorderQuantity,
		&l.AverageCost, &l.IsActive, &l.Version, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *InventoryLevelRepo) Get(ctx context.Context, variantID string) (*entity.InventoryLevel, error) {
	query := `SELECT ` + levelColumns + ` FROM inventory_levels WHERE variant_id = $1`
	if r.forUpdate {
		query += ` FOR UPDATE`
	}
	l, err := scanLevel(r.q.QueryRow(ctx, query, variantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVariantNotFound
		}
		return nil, fmt.Errorf("get inventory level: %w", err)
	}
	return l, nil
}

func (r *InventoryLevelRepo) CompareAndSwap(ctx context.Context, variantID string, expectedVersion int64, level *entity.InventoryLevel) error {
	query := `
		UPDATE inventory_levels
		SET on_hand = $3, reserved = $4, reorder_point = $5, reorder_quantity = $6,
		    average_cost = $7, is_active = $8, version = version + 1, updated_at = now()
		WHERE variant_id = $1 AND version = $2
		RETURNING version, updated_at`
	err := r.q.QueryRow(ctx, query,
		variantID, expectedVersion, level.OnHand, level.Reserved, level.ReorderPoint, level.ReorderQuantity,
		level.AverageCost, level.IsActive,
	).Scan(&level.Version, &level.UpdatedAt)
	if err == nil {
		level.VariantID = variantID
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := r.q.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM inventory_levels WHERE variant_id = $1)`, variantID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check inventory level: %w", err)
		}
		if !exists {
			return domain.ErrVariantNotFound
		}
		return domain.ErrConcurrencyConflict
	}
	if code, constraint := pgErrorCode(err); code == codeCheckViolation {
		return fmt.Errorf("%s: %w", constraint, domain.ErrConflict)
	}
	return fmt.Errorf("compare and swap inventory level: %w", err)
}

func (r *InventoryLevelRepo) Create(ctx context.Context, level *entity.InventoryLevel) error {
	if !level.Valid() {
		return domain.ErrInvalidInput
	}
	query := `
		INSERT INTO inventory_levels (variant_id, sku, name, on_hand, reserved, reorder_point, reorder_quantity,
			average_cost, is_active, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		RETURNING updated_at`
	err := r.q.QueryRow(ctx, query,
		level.VariantID, level.SKU, level.Name, level.OnHand, level.Reserved, level.ReorderPoint, level.ReorderQuantity,
		level.AverageCost, level.IsActive, level.Version,
	).Scan(&level.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("variante %s: %w", level.VariantID, domain.ErrDuplicate)
		}
		return fmt.Errorf("create inventory level: %w", err)
	}
	return nil
}

func (r *InventoryLevelRepo) List(ctx context.Context, activeOnly bool) ([]*entity.InventoryLevel, error) {
	query := `SELECT ` + levelColumns + ` FROM inventory_levels`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY sku`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list inventory levels: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.InventoryLevel, 0)
	for rows.Next() {
		l, err := scanLevel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory level: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}
