package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinventory "github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/memory"
)

var _ appinventory.TxRunner = (*memory.Store)(nil)

func seed(t *testing.T, s *memory.Store, id string, onHand int) {
	t.Helper()
	require.NoError(t, s.Levels().Create(context.Background(), &entity.InventoryLevel{
		VariantID: id, SKU: "SKU-" + id, OnHand: onHand, ReorderPoint: 10, IsActive: true,
	}))
}

func TestRun_ConfirmaNivelYLedgerJuntos(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	seed(t, s, "V1", 100)

	err := s.Run(ctx, func(levels repository.InventoryLevelRepository, ledger repository.InventoryTransactionRepository) error {
		l, err := levels.Get(ctx, "V1")
		require.NoError(t, err)
		l.Reserved = 5
		if err := levels.CompareAndSwap(ctx, "V1", l.Version, l); err != nil {
			return err
		}
		return ledger.Append(ctx, &entity.InventoryTransaction{ID: "t1", VariantID: "V1", Sequence: l.Version, Type: entity.TransactionTypeReserve})
	})
	require.NoError(t, err)

	l, err := s.Levels().Get(ctx, "V1")
	require.NoError(t, err)
	assert.Equal(t, 5, l.Reserved)
	assert.Equal(t, int64(1), l.Version)

	txs, err := s.Transactions().ListForReplay(ctx, "V1")
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestRun_ErrorDescartaTodo(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	seed(t, s, "V1", 100)
	boom := errors.New("falla del ledger")

	err := s.Run(ctx, func(levels repository.InventoryLevelRepository, _ repository.InventoryTransactionRepository) error {
		l, _ := levels.Get(ctx, "V1")
		l.OnHand = 1
		require.NoError(t, levels.CompareAndSwap(ctx, "V1", l.Version, l))

		staged, _ := levels.Get(ctx, "V1")
		assert.Equal(t, 1, staged.OnHand, "la transacción ve sus propias escrituras")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	l, _ := s.Levels().Get(ctx, "V1")
	assert.Equal(t, 100, l.OnHand, "nada debe aplicarse si la función falla")
	assert.Equal(t, int64(0), l.Version)
}

func TestRun_ConflictoAlConfirmar(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	seed(t, s, "V1", 100)

	err := s.Run(ctx, func(levels repository.InventoryLevelRepository, _ repository.InventoryTransactionRepository) error {
		l, _ := levels.Get(ctx, "V1")
		l.Reserved = 1
		require.NoError(t, levels.CompareAndSwap(ctx, "V1", l.Version, l))

		// otra escritura confirma primero sobre la misma versión
		other, _ := s.Levels().Get(ctx, "V1")
		other.Reserved = 2
		require.NoError(t, s.Levels().CompareAndSwap(ctx, "V1", 0, other))
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	l, _ := s.Levels().Get(ctx, "V1")
	assert.Equal(t, 2, l.Reserved)
}

func TestCompareAndSwap_VersionObsoleta(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	seed(t, s, "V1", 10)

	l, _ := s.Levels().Get(ctx, "V1")
	err := s.Levels().CompareAndSwap(ctx, "V1", 7, l)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	err = s.Levels().CompareAndSwap(ctx, "NOPE", 0, l)
	assert.ErrorIs(t, err, domain.ErrVariantNotFound)
}

func TestCreate_Duplicado(t *testing.T) {
	s := memory.NewStore()
	seed(t, s, "V1", 0)
	err := s.Levels().Create(context.Background(), &entity.InventoryLevel{VariantID: "V1", SKU: "X"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestAppend_SecuenciaRepetidaEsConflicto(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	ledger := s.Transactions()

	require.NoError(t, ledger.Append(ctx, &entity.InventoryTransaction{ID: "a", VariantID: "V1", Sequence: 1}))
	err := ledger.Append(ctx, &entity.InventoryTransaction{ID: "b", VariantID: "V1", Sequence: 1})
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
}

func TestListByVariant_FiltraOrdenaYPagina(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	ledger := s.Transactions()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	types := []entity.TransactionType{
		entity.TransactionTypePurchase, entity.TransactionTypeReserve, entity.TransactionTypeRelease,
		entity.TransactionTypeReserve, entity.TransactionTypeSale,
	}
	for i, typ := range types {
		require.NoError(t, ledger.Append(ctx, &entity.InventoryTransaction{
			ID: string(rune('a' + i)), VariantID: "V1", Sequence: int64(i + 1), Type: typ,
			OccurredAt: base.Add(time.Duration(i) * time.Minute), ReferenceType: entity.ReferenceTypeOrder, ReferenceID: "O-1",
		}))
	}
	require.NoError(t, ledger.Append(ctx, &entity.InventoryTransaction{ID: "z", VariantID: "V2", Sequence: 1, OccurredAt: base}))

	page, err := ledger.ListByVariant(ctx, "V1", repository.TransactionFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	require.Len(t, page.Transactions, 2)
	assert.Equal(t, int64(5), page.Transactions[0].Sequence, "más reciente primero")
	assert.Equal(t, int64(4), page.Transactions[1].Sequence)

	page, err = ledger.ListByVariant(ctx, "V1", repository.TransactionFilter{Type: entity.TransactionTypeReserve})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	from := base.Add(2 * time.Minute)
	page, err = ledger.ListByDateRange(ctx, repository.TransactionFilter{StartDate: &from, Limit: 10, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Transactions, 2)

	byRef, err := ledger.ListByReference(ctx, entity.ReferenceTypeOrder, "O-1")
	require.NoError(t, err)
	assert.Len(t, byRef, 5)
}
