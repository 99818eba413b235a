package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

type seqKey struct {
	variantID string
	sequence  int64
}

// Store almacenamiento en memoria de niveles y ledger. Run agrupa escrituras en una
// transacción que se valida y aplica completa al confirmar, o se descarta.
type Store struct {
	mu     sync.RWMutex
	levels map[string]entity.InventoryLevel
	txs    []entity.InventoryTransaction
	ids    map[string]struct{}
	seqs   map[seqKey]struct{}
}

// NewStore crea un almacenamiento vacío.
func NewStore() *Store {
	return &Store{
		levels: make(map[string]entity.InventoryLevel),
		ids:    make(map[string]struct{}),
		seqs:   make(map[seqKey]struct{}),
	}
}

// Levels repositorio de niveles fuera de transacción (cada escritura se confirma sola).
func (s *Store) Levels() repository.InventoryLevelRepository {
	return &levelRepo{store: s}
}

// Transactions repositorio del ledger fuera de transacción.
func (s *Store) Transactions() repository.InventoryTransactionRepository {
	return &ledgerRepo{store: s}
}

// Run ejecuta fn con repositorios atados a una transacción en memoria.
// Si fn falla no se aplica nada; si otra transacción cambió una variante leída
// entre tanto, devuelve domain.ErrConcurrencyConflict.
func (s *Store) Run(ctx context.Context, fn func(
	levels repository.InventoryLevelRepository,
	ledger repository.InventoryTransactionRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	st := &stage{
		base:    make(map[string]int64),
		levels:  make(map[string]entity.InventoryLevel),
		created: make(map[string]struct{}),
	}
	if err := fn(&levelRepo{store: s, stage: st}, &ledgerRepo{store: s, stage: st}); err != nil {
		return err
	}
	return s.commit(st)
}

// stage escrituras pendientes de una transacción.
type stage struct {
	mu       sync.Mutex
	base     map[string]int64 // versión confirmada sobre la que se calculó cada cambio
	levels   map[string]entity.InventoryLevel
	created  map[string]struct{}
	appended []entity.InventoryTransaction
}

func (s *Store) commit(st *stage) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range st.created {
		if _, exists := s.levels[id]; exists {
			return fmt.Errorf("variante %s: %w", id, domain.ErrDuplicate)
		}
	}
	for id, version := range st.base {
		cur, ok := s.levels[id]
		if !ok || cur.Version != version {
			return fmt.Errorf("variante %s: %w", id, domain.ErrConcurrencyConflict)
		}
	}
	for _, tx := range st.appended {
		if _, dup := s.seqs[seqKey{tx.VariantID, tx.Sequence}]; dup {
			return fmt.Errorf("secuencia %d de %s ya registrada: %w", tx.Sequence, tx.VariantID, domain.ErrConcurrencyConflict)
		}
		if _, dup := s.ids[tx.ID]; dup {
			return fmt.Errorf("transacción %s: %w", tx.ID, domain.ErrDuplicate)
		}
	}

	for id, level := range st.levels {
		s.levels[id] = level
	}
	for _, tx := range st.appended {
		s.txs = append(s.txs, tx)
		s.ids[tx.ID] = struct{}{}
		s.seqs[seqKey{tx.VariantID, tx.Sequence}] = struct{}{}
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Niveles
// ──────────────────────────────────────────────────────────────────────────────

type levelRepo struct {
	store *Store
	stage *stage // nil: sin transacción
}

var _ repository.InventoryLevelRepository = (*levelRepo)(nil)

func (r *levelRepo) Get(ctx context.Context, variantID string) (*entity.InventoryLevel, error) {
	if r.stage != nil {
		r.stage.mu.Lock()
		level, ok := r.stage.levels[variantID]
		r.stage.mu.Unlock()
		if ok {
			return &level, nil
		}
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	level, ok := r.store.levels[variantID]
	if !ok {
		return nil, domain.ErrVariantNotFound
	}
	return &level, nil
}

func (r *levelRepo) CompareAndSwap(ctx context.Context, variantID string, expectedVersion int64, level *entity.InventoryLevel) error {
	if r.stage == nil {
		return r.casCommitted(variantID, expectedVersion, level)
	}
	current, err := r.Get(ctx, variantID)
	if err != nil {
		return err
	}
	if current.Version != expectedVersion {
		return domain.ErrConcurrencyConflict
	}
	next := *level
	next.VariantID = variantID
	next.Version = expectedVersion + 1

	r.stage.mu.Lock()
	defer r.stage.mu.Unlock()
	if _, staged := r.stage.levels[variantID]; !staged {
		if _, created := r.stage.created[variantID]; !created {
			r.stage.base[variantID] = expectedVersion
		}
	}
	r.stage.levels[variantID] = next
	level.Version = next.Version
	return nil
}

func (r *levelRepo) casCommitted(variantID string, expectedVersion int64, level *entity.InventoryLevel) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cur, ok := r.store.levels[variantID]
	if !ok {
		return domain.ErrVariantNotFound
	}
	if cur.Version != expectedVersion {
		return domain.ErrConcurrencyConflict
	}
	next := *level
	next.VariantID = variantID
	next.Version = expectedVersion + 1
	r.store.levels[variantID] = next
	level.Version = next.Version
	return nil
}

func (r *levelRepo) Create(ctx context.Context, level *entity.InventoryLevel) error {
	if !level.Valid() {
		return domain.ErrInvalidInput
	}
	if r.stage == nil {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
		if _, exists := r.store.levels[level.VariantID]; exists {
			return fmt.Errorf("variante %s: %w", level.VariantID, domain.ErrDuplicate)
		}
		r.store.levels[level.VariantID] = *level
		return nil
	}
	if _, err := r.Get(ctx, level.VariantID); err == nil {
		return fmt.Errorf("variante %s: %w", level.VariantID, domain.ErrDuplicate)
	}
	r.stage.mu.Lock()
	defer r.stage.mu.Unlock()
	r.stage.levels[level.VariantID] = *level
	r.stage.created[level.VariantID] = struct{}{}
	return nil
}

func (r *levelRepo) List(ctx context.Context, activeOnly bool) ([]*entity.InventoryLevel, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*entity.InventoryLevel, 0, len(r.store.levels))
	for _, l := range r.store.levels {
		if activeOnly && !l.IsActive {
			continue
		}
		level := l
		out = append(out, &level)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Ledger
// ──────────────────────────────────────────────────────────────────────────────

type ledgerRepo struct {
	store *Store
	stage *stage
}

var _ repository.InventoryTransactionRepository = (*ledgerRepo)(nil)

func (r *ledgerRepo) Append(ctx context.Context, tx *entity.InventoryTransaction) error {
	if r.stage == nil {
		st := &stage{base: map[string]int64{}, levels: map[string]entity.InventoryLevel{}, created: map[string]struct{}{}}
		st.appended = append(st.appended, *tx)
		return r.store.commit(st)
	}
	r.stage.mu.Lock()
	defer r.stage.mu.Unlock()
	r.stage.appended = append(r.stage.appended, *tx)
	return nil
}

// Las lecturas del ledger solo ven transacciones confirmadas.

func (r *ledgerRepo) ListByVariant(ctx context.Context, variantID string, f repository.TransactionFilter) (repository.TransactionPage, error) {
	matches := r.filter(func(tx *entity.InventoryTransaction) bool {
		return tx.VariantID == variantID && matchesFilter(tx, f)
	})
	sortNewestFirst(matches)
	return paginate(matches, f), nil
}

func (r *ledgerRepo) ListByReference(ctx context.Context, refType entity.ReferenceType, refID string) ([]*entity.InventoryTransaction, error) {
	matches := r.filter(func(tx *entity.InventoryTransaction) bool {
		return tx.ReferenceType == refType && tx.ReferenceID == refID
	})
	sortNewestFirst(matches)
	return matches, nil
}

func (r *ledgerRepo) ListByDateRange(ctx context.Context, f repository.TransactionFilter) (repository.TransactionPage, error) {
	matches := r.filter(func(tx *entity.InventoryTransaction) bool { return matchesFilter(tx, f) })
	sortNewestFirst(matches)
	return paginate(matches, f), nil
}

func (r *ledgerRepo) ListForReplay(ctx context.Context, variantID string) ([]*entity.InventoryTransaction, error) {
	matches := r.filter(func(tx *entity.InventoryTransaction) bool { return tx.VariantID == variantID })
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Sequence < matches[j].Sequence })
	return matches, nil
}

func (r *ledgerRepo) filter(keep func(*entity.InventoryTransaction) bool) []*entity.InventoryTransaction {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*entity.InventoryTransaction, 0)
	for i := range r.store.txs {
		tx := r.store.txs[i]
		if keep(&tx) {
			out = append(out, &tx)
		}
	}
	return out
}

func matchesFilter(tx *entity.InventoryTransaction, f repository.TransactionFilter) bool {
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if f.StartDate != nil && tx.OccurredAt.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && tx.OccurredAt.After(*f.EndDate) {
		return false
	}
	return true
}

func sortNewestFirst(txs []*entity.InventoryTransaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].OccurredAt.Equal(txs[j].OccurredAt) {
			return txs[i].OccurredAt.After(txs[j].OccurredAt)
		}
		if txs[i].VariantID == txs[j].VariantID {
			return txs[i].Sequence > txs[j].Sequence
		}
		return txs[i].ID > txs[j].ID
	})
}

func paginate(txs []*entity.InventoryTransaction, f repository.TransactionFilter) repository.TransactionPage {
	total := len(txs)
	start := min(max(f.Offset, 0), total)
	end := total
	if f.Limit > 0 {
		end = min(start+f.Limit, total)
	}
	return repository.TransactionPage{Transactions: txs[start:end], Total: total}
}
