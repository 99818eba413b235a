package inventory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// Valores de paginación de historiales.
const (
	DefaultPage         = 1
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// HistoryFilter filtros y página de un historial de transacciones.
type HistoryFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Type      entity.TransactionType
	Page      int
	Limit     int
}

// Pagination metadatos de página.
type Pagination struct {
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// HistoryPage página de transacciones, de la más reciente a la más antigua.
type HistoryPage struct {
	Transactions []*entity.InventoryTransaction
	Pagination   Pagination
}

// Overview totales sobre las variantes activas.
type Overview struct {
	TotalVariants  int
	TotalOnHand    int
	TotalReserved  int
	TotalAvailable int
	TotalValue     decimal.Decimal // Σ existencia × costo promedio
	LowStockCount  int
}

// ReportingUseCase vistas de solo lectura sobre niveles y ledger. No toma bloqueos.
type ReportingUseCase struct {
	levels   repository.InventoryLevelRepository
	ledger   repository.InventoryTransactionRepository
	maxLimit int
}

// NewReportingUseCase construye las vistas. maxLimit <= 0 usa MaxHistoryLimit.
func NewReportingUseCase(levels repository.InventoryLevelRepository, ledger repository.InventoryTransactionRepository, maxLimit int) *ReportingUseCase {
	if maxLimit <= 0 {
		maxLimit = MaxHistoryLimit
	}
	return &ReportingUseCase{levels: levels, ledger: ledger, maxLimit: maxLimit}
}

// GetLevel nivel actual de una variante.
func (uc *ReportingUseCase) GetLevel(ctx context.Context, variantID string) (*entity.InventoryLevel, error) {
	return uc.levels.Get(ctx, variantID)
}

// AvailableStock disponible (existencia - reservado) de una variante.
func (uc *ReportingUseCase) AvailableStock(ctx context.Context, variantID string) (int, error) {
	level, err := uc.levels.Get(ctx, variantID)
	if err != nil {
		return 0, err
	}
	return level.Available(), nil
}

// LevelsBulk niveles de varias variantes; los ids desconocidos se omiten.
func (uc *ReportingUseCase) LevelsBulk(ctx context.Context, variantIDs []string) ([]*entity.InventoryLevel, error) {
	out := make([]*entity.InventoryLevel, 0, len(variantIDs))
	seen := make(map[string]struct{}, len(variantIDs))
	for _, id := range variantIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		level, err := uc.levels.Get(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, level)
	}
	return out, nil
}

// HasSufficientStock indica si el disponible cubre quantity. Variante desconocida: false.
func (uc *ReportingUseCase) HasSufficientStock(ctx context.Context, variantID string, quantity int) (bool, error) {
	level, err := uc.levels.Get(ctx, variantID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return level.Available() >= quantity, nil
}

// LowStock variantes activas con disponible <= threshold, o <= su punto de reorden si threshold es nil.
// Ordenadas por disponible ascendente.
func (uc *ReportingUseCase) LowStock(ctx context.Context, threshold *int) ([]*entity.InventoryLevel, error) {
	if threshold != nil && *threshold < 0 {
		return nil, domain.ErrInvalidInput
	}
	levels, err := uc.levels.List(ctx, true)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.InventoryLevel, 0)
	for _, l := range levels {
		limit := l.ReorderPoint
		if threshold != nil {
			limit = *threshold
		}
		if inventory.NeedsReorder(l.Available(), limit) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Available() != out[j].Available() {
			return out[i].Available() < out[j].Available()
		}
		return out[i].SKU < out[j].SKU
	})
	return out, nil
}

// Overview totales de las variantes activas a partir de un único listado.
func (uc *ReportingUseCase) Overview(ctx context.Context) (*Overview, error) {
	levels, err := uc.levels.List(ctx, true)
	if err != nil {
		return nil, err
	}
	o := &Overview{TotalValue: decimal.Zero}
	for _, l := range levels {
		o.TotalVariants++
		o.TotalOnHand += l.OnHand
		o.TotalReserved += l.Reserved
		o.TotalAvailable += l.Available()
		o.TotalValue = o.TotalValue.Add(inventory.TotalCost(l.AverageCost, l.OnHand))
		if inventory.NeedsReorder(l.Available(), l.ReorderPoint) {
			o.LowStockCount++
		}
	}
	return o, nil
}

// TransactionHistory historial paginado de una variante, de lo más reciente a lo más antiguo.
func (uc *ReportingUseCase) TransactionHistory(ctx context.Context, variantID string, f HistoryFilter) (*HistoryPage, error) {
	if _, err := uc.levels.Get(ctx, variantID); err != nil {
		return nil, err
	}
	rf, page, limit, err := uc.normalize(f)
	if err != nil {
		return nil, err
	}
	res, err := uc.ledger.ListByVariant(ctx, variantID, rf)
	if err != nil {
		return nil, err
	}
	return newHistoryPage(res, page, limit), nil
}

// TransactionsByDateRange historial paginado de todas las variantes en un rango de fechas.
func (uc *ReportingUseCase) TransactionsByDateRange(ctx context.Context, f HistoryFilter) (*HistoryPage, error) {
	rf, page, limit, err := uc.normalize(f)
	if err != nil {
		return nil, err
	}
	res, err := uc.ledger.ListByDateRange(ctx, rf)
	if err != nil {
		return nil, err
	}
	return newHistoryPage(res, page, limit), nil
}

// TransactionsByReference transacciones originadas por un documento (orden, orden de compra).
func (uc *ReportingUseCase) TransactionsByReference(ctx context.Context, refType entity.ReferenceType, refID string) ([]*entity.InventoryTransaction, error) {
	switch refType {
	case entity.ReferenceTypeOrder, entity.ReferenceTypePurchaseOrder, entity.ReferenceTypeManualAdjustment:
	default:
		return nil, domain.ErrInvalidInput
	}
	if refID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.ledger.ListByReference(ctx, refType, refID)
}

func (uc *ReportingUseCase) normalize(f HistoryFilter) (repository.TransactionFilter, int, int, error) {
	if f.Type != "" && !f.Type.Valid() {
		return repository.TransactionFilter{}, 0, 0, domain.ErrInvalidInput
	}
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		return repository.TransactionFilter{}, 0, 0, domain.ErrInvalidInput
	}
	page, limit := f.Page, f.Limit
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	if limit > uc.maxLimit {
		limit = uc.maxLimit
	}
	return repository.TransactionFilter{
		StartDate: f.StartDate,
		EndDate:   f.EndDate,
		Type:      f.Type,
		Limit:     limit,
		Offset:    (page - 1) * limit,
	}, page, limit, nil
}

func newHistoryPage(res repository.TransactionPage, page, limit int) *HistoryPage {
	txs := res.Transactions
	if txs == nil {
		txs = []*entity.InventoryTransaction{}
	}
	return &HistoryPage{
		Transactions: txs,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      res.Total,
			TotalPages: (res.Total + limit - 1) / limit,
		},
	}
}
