package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
	"github.com/jhoicas/inventory-ledger/pkg/logger"
)

// EngineConfig parámetros de contención del motor.
type EngineConfig struct {
	LockTimeout  time.Duration // espera máxima por la sección crítica de la variante
	MaxRetries   int           // reintentos ante ErrConcurrencyConflict
	RetryBackoff time.Duration // espera base entre reintentos (lineal)
}

// DefaultEngineConfig valores usados cuando no se configura nada.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{LockTimeout: 2 * time.Second, MaxRetries: 3, RetryBackoff: 20 * time.Millisecond}
}

// Engine motor de inventario: única vía de escritura sobre niveles y ledger.
// Cada mutación corre como leer -> validar -> CAS del nivel -> registrar en ledger
// dentro de la sección crítica de la variante y de una transacción del almacenamiento.
type Engine struct {
	txRunner TxRunner
	notifier ReorderNotifier
	observer OperationObserver
	cfg      EngineConfig
	locks    *lockMap
	log      *logger.Logger
	now      func() time.Time
}

// NewEngine construye el motor. notifier y observer pueden ser nil.
func NewEngine(txRunner TxRunner, notifier ReorderNotifier, observer OperationObserver, cfg EngineConfig, log *logger.Logger) *Engine {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if observer == nil {
		observer = nopObserver{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Engine{
		txRunner: txRunner,
		notifier: notifier,
		observer: observer,
		cfg:      cfg,
		locks:    newLockMap(),
		log:      log.Component("inventory-engine"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ReserveInput reserva unidades para una orden.
type ReserveInput struct {
	VariantID   string
	Quantity    int
	OrderID     string
	OrderNumber string
	PerformedBy string
	Reason      string // opcional
}

// ReleaseInput libera unidades reservadas (orden cancelada).
type ReleaseInput struct {
	VariantID   string
	Quantity    int
	OrderID     string
	OrderNumber string
	PerformedBy string
	Reason      string // opcional
}

// AdjustInput ajuste manual de existencia (conteo físico, merma, daño).
type AdjustInput struct {
	VariantID   string
	Delta       int
	Reason      string
	Notes       string
	PerformedBy string
}

// PurchaseInput entrada de mercancía por orden de compra.
type PurchaseInput struct {
	VariantID           string
	Quantity            int
	UnitCost            decimal.Decimal
	PurchaseOrderID     string
	PurchaseOrderNumber string
	PerformedBy         string
	Notes               string
}

// SaleInput salida de mercancía por venta despachada.
type SaleInput struct {
	VariantID   string
	Quantity    int
	UnitCost    decimal.Decimal
	OrderID     string
	OrderNumber string
	PerformedBy string
}

// RegisterVariantInput alta de una variante con contadores en cero.
type RegisterVariantInput struct {
	VariantID       string
	SKU             string
	Name            string
	ReorderPoint    *int
	ReorderQuantity *int
}

// MutationResult transacción registrada y nivel resultante.
type MutationResult struct {
	Transaction *entity.InventoryTransaction
	Level       entity.InventoryLevel
}

// ledgerRef datos de referencia que acompañan la transacción.
type ledgerRef struct {
	refType     entity.ReferenceType
	refID       string
	refNumber   string
	reason      string
	notes       string
	performedBy string
}

// RegisterVariant crea la variante con existencia y reservado en cero; el stock inicial
// entra como compra o ajuste para que el ledger lo refleje.
func (e *Engine) RegisterVariant(ctx context.Context, in RegisterVariantInput) (*entity.InventoryLevel, error) {
	if strings.TrimSpace(in.VariantID) == "" || strings.TrimSpace(in.SKU) == "" {
		return nil, domain.ErrInvalidInput
	}
	level := &entity.InventoryLevel{
		VariantID:       in.VariantID,
		SKU:             in.SKU,
		Name:            in.Name,
		ReorderPoint:    entity.DefaultReorderPoint,
		ReorderQuantity: entity.DefaultReorderQuantity,
		AverageCost:     decimal.Zero,
		IsActive:        true,
		UpdatedAt:       e.now(),
	}
	if in.ReorderPoint != nil {
		level.ReorderPoint = *in.ReorderPoint
	}
	if in.ReorderQuantity != nil {
		level.ReorderQuantity = *in.ReorderQuantity
	}
	if level.ReorderPoint < 0 || level.ReorderQuantity < 0 {
		return nil, domain.ErrInvalidInput
	}

	err := e.txRunner.Run(ctx, func(levels repository.InventoryLevelRepository, _ repository.InventoryTransactionRepository) error {
		return levels.Create(ctx, level)
	})
	if err != nil {
		return nil, err
	}
	e.log.Info().Str("variant_id", level.VariantID).Str("sku", level.SKU).Msg("variante registrada")
	return level, nil
}

// Reserve compromete unidades disponibles a una orden.
func (e *Engine) Reserve(ctx context.Context, in ReserveInput) (*MutationResult, error) {
	ref := ledgerRef{
		refType:     entity.ReferenceTypeOrder,
		refID:       in.OrderID,
		refNumber:   in.OrderNumber,
		reason:      defaultReason(in.Reason, "Reserved for order", in.OrderNumber, in.OrderID),
		performedBy: in.PerformedBy,
	}
	return e.execute(ctx, entity.TransactionTypeReserve, in.VariantID, ref, func(level entity.InventoryLevel) (inventory.Mutation, error) {
		return inventory.Reserve(level, in.Quantity)
	})
}

// Release devuelve al disponible unidades reservadas por una orden cancelada.
func (e *Engine) Release(ctx context.Context, in ReleaseInput) (*MutationResult, error) {
	ref := ledgerRef{
		refType:     entity.ReferenceTypeOrder,
		refID:       in.OrderID,
		refNumber:   in.OrderNumber,
		reason:      defaultReason(in.Reason, "Released from cancelled order", in.OrderNumber, in.OrderID),
		performedBy: in.PerformedBy,
	}
	return e.execute(ctx, entity.TransactionTypeRelease, in.VariantID, ref, func(level entity.InventoryLevel) (inventory.Mutation, error) {
		return inventory.Release(level, in.Quantity)
	})
}

// Adjust corrige la existencia con un delta firmado. El motivo es obligatorio.
func (e *Engine) Adjust(ctx context.Context, in AdjustInput) (*MutationResult, error) {
	ref := ledgerRef{
		refType:     entity.ReferenceTypeManualAdjustment,
		refID:       in.PerformedBy,
		reason:      strings.TrimSpace(in.Reason),
		notes:       in.Notes,
		performedBy: in.PerformedBy,
	}
	return e.execute(ctx, entity.TransactionTypeAdjustment, in.VariantID, ref, func(level entity.InventoryLevel) (inventory.Mutation, error) {
		return inventory.Adjust(level, in.Delta, in.Reason)
	})
}

// RecordPurchase registra la recepción de una orden de compra y recalcula el costo promedio.
func (e *Engine) RecordPurchase(ctx context.Context, in PurchaseInput) (*MutationResult, error) {
	ref := ledgerRef{
		refType:     entity.ReferenceTypePurchaseOrder,
		refID:       in.PurchaseOrderID,
		refNumber:   in.PurchaseOrderNumber,
		reason:      defaultReason("", "Purchase from PO", in.PurchaseOrderNumber, in.PurchaseOrderID),
		notes:       in.Notes,
		performedBy: in.PerformedBy,
	}
	return e.execute(ctx, entity.TransactionTypePurchase, in.VariantID, ref, func(level entity.InventoryLevel) (inventory.Mutation, error) {
		return inventory.Purchase(level, in.Quantity, in.UnitCost)
	})
}

// RecordSale registra una venta despachada. Si la reserva no cubría la venta se
// registra igual y se deja un warning.
func (e *Engine) RecordSale(ctx context.Context, in SaleInput) (*MutationResult, error) {
	ref := ledgerRef{
		refType:     entity.ReferenceTypeOrder,
		refID:       in.OrderID,
		refNumber:   in.OrderNumber,
		reason:      defaultReason("", "Sale for order", in.OrderNumber, in.OrderID),
		performedBy: in.PerformedBy,
	}
	var underReserved bool
	var reservedBefore int
	res, err := e.execute(ctx, entity.TransactionTypeSale, in.VariantID, ref, func(level entity.InventoryLevel) (inventory.Mutation, error) {
		m, under, err := inventory.Sale(level, in.Quantity, in.UnitCost)
		underReserved, reservedBefore = under, level.Reserved
		return m, err
	})
	if err != nil {
		return nil, err
	}
	if underReserved {
		e.log.Warn().
			Str("variant_id", in.VariantID).
			Str("order_id", in.OrderID).
			Int("reserved", reservedBefore).
			Int("sold", in.Quantity).
			Msg("venta mayor que la reserva de la variante")
	}
	return res, nil
}

// execute corre una mutación completa con bloqueo por variante y reintentos ante conflicto de versión.
func (e *Engine) execute(
	ctx context.Context,
	op entity.TransactionType,
	variantID string,
	ref ledgerRef,
	mutate func(entity.InventoryLevel) (inventory.Mutation, error),
) (res *MutationResult, err error) {
	start := time.Now()
	defer func() { e.observer.OperationCompleted(op, err, time.Since(start)) }()

	if strings.TrimSpace(variantID) == "" {
		return nil, domain.ErrVariantNotFound
	}
	log := e.log.Zerolog().With().Str("op", string(op)).Str("variant_id", variantID).Logger()
	log.Debug().Msg("iniciando operación")

	lockCtx, cancel := ctx, context.CancelFunc(func() {})
	if e.cfg.LockTimeout > 0 {
		lockCtx, cancel = context.WithTimeout(ctx, e.cfg.LockTimeout)
	}
	release, err := e.locks.acquire(lockCtx, variantID)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrBusy, err)
	}
	defer release()

	for attempt := 0; ; attempt++ {
		res, err = e.attempt(ctx, op, variantID, ref, mutate)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrConcurrencyConflict) {
			return nil, err
		}
		if attempt >= e.cfg.MaxRetries {
			return nil, fmt.Errorf("%w: %w", domain.ErrBusy, err)
		}
		e.observer.RetryAttempted(op)
		log.Debug().Int("attempt", attempt+1).Msg("conflicto de versión, reintentando")
		if err := sleepCtx(ctx, e.cfg.RetryBackoff*time.Duration(attempt+1)); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrBusy, err)
		}
	}

	log.Info().
		Str("transaction_id", res.Transaction.ID).
		Int("change", res.Transaction.QuantityChange).
		Int("on_hand", res.Level.OnHand).
		Int("reserved", res.Level.Reserved).
		Msg("operación registrada")

	switch op {
	case entity.TransactionTypeReserve, entity.TransactionTypeSale, entity.TransactionTypeAdjustment:
		e.evaluateReorder(ctx, op, res)
	}
	return res, nil
}

func (e *Engine) attempt(
	ctx context.Context,
	op entity.TransactionType,
	variantID string,
	ref ledgerRef,
	mutate func(entity.InventoryLevel) (inventory.Mutation, error),
) (*MutationResult, error) {
	var res *MutationResult
	err := e.txRunner.Run(ctx, func(levels repository.InventoryLevelRepository, ledger repository.InventoryTransactionRepository) error {
		current, err := levels.Get(ctx, variantID)
		if err != nil {
			return err
		}
		m, err := mutate(*current)
		if err != nil {
			return err
		}
		if m.Type != op {
			return fmt.Errorf("mutación %s en operación %s", m.Type, op)
		}

		now := e.now()
		next := m.Level
		next.UpdatedAt = now
		if err := levels.CompareAndSwap(ctx, variantID, current.Version, &next); err != nil {
			return err
		}

		tx := &entity.InventoryTransaction{
			ID:              newTransactionID(),
			Sequence:        next.Version,
			VariantID:       current.VariantID,
			SKU:             current.SKU,
			ProductName:     current.Name,
			Type:            m.Type,
			QuantityBefore:  m.Before,
			QuantityChange:  m.Change,
			QuantityAfter:   m.After,
			ReferenceType:   ref.refType,
			ReferenceID:     ref.refID,
			ReferenceNumber: ref.refNumber,
			UnitCost:        m.UnitCost,
			TotalCost:       m.TotalCost,
			Reason:          ref.reason,
			Notes:           ref.notes,
			PerformedBy:     ref.performedBy,
			OccurredAt:      now,
		}
		if err := ledger.Append(ctx, tx); err != nil {
			return err
		}
		res = &MutationResult{Transaction: tx, Level: next}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// evaluateReorder emite la señal de reorden; nunca afecta el resultado de la operación.
func (e *Engine) evaluateReorder(ctx context.Context, op entity.TransactionType, res *MutationResult) {
	level := res.Level
	if !inventory.NeedsReorder(level.Available(), level.ReorderPoint) {
		return
	}
	signal := ReorderSignal{
		VariantID:       level.VariantID,
		SKU:             level.SKU,
		Name:            level.Name,
		Available:       level.Available(),
		ReorderPoint:    level.ReorderPoint,
		ReorderQuantity: level.ReorderQuantity,
		TriggeredBy:     op,
		TransactionID:   res.Transaction.ID,
		OccurredAt:      res.Transaction.OccurredAt,
	}
	e.observer.ReorderSignalled(signal)
	e.log.Warn().
		Str("variant_id", signal.VariantID).
		Str("sku", signal.SKU).
		Int("available", signal.Available).
		Int("reorder_point", signal.ReorderPoint).
		Msg("stock bajo punto de reorden")

	if err := e.notifier.NotifyReorder(context.WithoutCancel(ctx), signal); err != nil {
		e.log.Error().Err(err).Str("variant_id", signal.VariantID).Msg("no se pudo notificar la señal de reorden")
	}
}

func defaultReason(given, prefix, number, id string) string {
	if r := strings.TrimSpace(given); r != "" {
		return r
	}
	if number == "" {
		number = id
	}
	return prefix + " " + number
}

// newTransactionID UUIDv7: único y ordenable por tiempo.
func newTransactionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
