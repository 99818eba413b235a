package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var _ repository.InventoryTransactionRepository = (*InventoryTransactionRepo)(nil)

// constraintVariantSequence asegura una sola transacción por (variante, secuencia).
const constraintVariantSequence = "inventory_transactions_variant_sequence_key"

// InventoryTransactionRepo ledger de inventario sobre PostgreSQL (solo INSERT).
type InventoryTransactionRepo struct {
	q Querier
}

// NewInventoryTransactionRepository construye el adaptador. Acepta pool o tx (Querier).
func NewInventoryTransactionRepository(q Querier) *InventoryTransactionRepo {
	return &InventoryTransactionRepo{q: q}
}

const transactionColumns = `id, sequence, variant_id, sku, product_name, type,
		quantity_before, quantity_change, quantity_after,
		reference_type, reference_id, reference_number,
		unit_cost, total_cost, reason, notes, performed_by, occurred_at`

func (r *InventoryTransactionRepo) Append(ctx context.Context, t *entity.InventoryTransaction) error {
	query := `
		INSERT INTO inventory_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.Sequence, t.VariantID, t.SKU, t.ProductName, string(t.Type),
		t.QuantityBefore, t.QuantityChange, t.QuantityAfter,
		string(t.ReferenceType), t.ReferenceID, t.ReferenceNumber,
		t.UnitCost, t.TotalCost, t.Reason, t.Notes, t.PerformedBy, t.OccurredAt,
	)
	if err != nil {
		code, constraint := pgErrorCode(err)
		switch {
		case code == codeUniqueViolation && constraint == constraintVariantSequence:
			return fmt.Errorf("secuencia %d de %s ya registrada: %w", t.Sequence, t.VariantID, domain.ErrConcurrencyConflict)
		case code == codeUniqueViolation:
			return fmt.Errorf("transacción %s: %w", t.ID, domain.ErrDuplicate)
		case code == codeCheckViolation:
			return fmt.Errorf("%s: %w", constraint, domain.ErrInvalidInput)
		}
		return fmt.Errorf("append inventory transaction: %w", err)
	}
	return nil
}

func (r *InventoryTransactionRepo) ListByVariant(ctx context.Context, variantID string, f repository.TransactionFilter) (repository.TransactionPage, error) {
	where, args := buildWhere(f, "variant_id = $1", variantID)
	return r.page(ctx, where, args, "occurred_at DESC, sequence DESC", f)
}

func (r *InventoryTransactionRepo) ListByReference(ctx context.Context, refType entity.ReferenceType, refID string) ([]*entity.InventoryTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM inventory_transactions
		WHERE reference_type = $1 AND reference_id = $2
		ORDER BY occurred_at DESC, id DESC`
	return r.list(ctx, query, string(refType), refID)
}

func (r *InventoryTransactionRepo) ListByDateRange(ctx context.Context, f repository.TransactionFilter) (repository.TransactionPage, error) {
	where, args := buildWhere(f, "")
	return r.page(ctx, where, args, "occurred_at DESC, id DESC", f)
}

func (r *InventoryTransactionRepo) ListForReplay(ctx context.Context, variantID string) ([]*entity.InventoryTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM inventory_transactions
		WHERE variant_id = $1 ORDER BY sequence ASC`
	return r.list(ctx, query, variantID)
}

// buildWhere arma el WHERE dinámico con placeholders numerados.
func buildWhere(f repository.TransactionFilter, base string, baseArgs ...any) (string, []any) {
	conds := make([]string, 0, 4)
	args := append([]any{}, baseArgs...)
	if base != "" {
		conds = append(conds, base)
	}
	if f.Type != "" {
		args = append(args, string(f.Type))
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}
	if f.StartDate != nil {
		args = append(args, *f.StartDate)
		conds = append(conds, fmt.Sprintf("occurred_at >= $%d", len(args)))
	}
	if f.EndDate != nil {
		args = append(args, *f.EndDate)
		conds = append(conds, fmt.Sprintf("occurred_at <= $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *InventoryTransactionRepo) page(ctx context.Context, where string, args []any, orderBy string, f repository.TransactionFilter) (repository.TransactionPage, error) {
	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM inventory_transactions`+where, args...).Scan(&total); err != nil {
		return repository.TransactionPage{}, fmt.Errorf("count inventory transactions: %w", err)
	}

	query := `SELECT ` + transactionColumns + ` FROM inventory_transactions` + where + ` ORDER BY ` + orderBy
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	txs, err := r.list(ctx, query, args...)
	if err != nil {
		return repository.TransactionPage{}, err
	}
	return repository.TransactionPage{Transactions: txs, Total: total}, nil
}

func (r *InventoryTransactionRepo) list(ctx context.Context, query string, args ...any) ([]*entity.InventoryTransaction, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory transactions: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.InventoryTransaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory transaction: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func scanTransaction(row pgx.Row) (*entity.InventoryTransaction, error) {
	var (
		t       entity.InventoryTransaction
		txType  string
		refType string
	)
	err := row.Scan(
		&t.ID, &t.Sequence, &t.VariantID, &t.SKU, &t.ProductName, &txType,
		&t.QuantityBefore, &t.QuantityChange, &t.QuantityAfter,
		&refType, &t.ReferenceID, &t.ReferenceNumber,
		&t.UnitCost, &t.TotalCost, &t.Reason, &t.Notes, &t.PerformedBy, &t.OccurredAt,
	)
	if err != nil {
		return nil, err
	}
	t.Type = entity.TransactionType(txType)
	t.ReferenceType = entity.ReferenceType(refType)
	return &t, nil
}
