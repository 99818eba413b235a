package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/inventory-ledger/internal/domain/inventory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Requests
// ──────────────────────────────────────────────────────────────────────────────

// RegisterVariantRequest body para POST /api/inventory/variants. Sin puntos de reorden usa 10/50.
type RegisterVariantRequest struct {
	VariantID       string `json:"variant_id" validate:"required,max=100"`
	SKU             string `json:"sku" validate:"required,max=100"`
	Name            string `json:"name" validate:"max=255"`
	ReorderPoint    *int   `json:"reorder_point" validate:"omitempty,min=0"`
	ReorderQuantity *int   `json:"reorder_quantity" validate:"omitempty,min=0"`
}

// ReserveRequest body para POST /api/inventory/:variantId/reserve.
type ReserveRequest struct {
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
	OrderID     string `json:"order_id" validate:"required,max=100"`
	OrderNumber string `json:"order_number" validate:"max=100"`
	Reason      string `json:"reason" validate:"max=500"`
}

// ReleaseRequest body para POST /api/inventory/:variantId/release.
type ReleaseRequest struct {
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
	OrderID     string `json:"order_id" validate:"required,max=100"`
	OrderNumber string `json:"order_number" validate:"max=100"`
	Reason      string `json:"reason" validate:"max=500"`
}

// AdjustRequest body para POST /api/inventory/:variantId/adjust. Delta firmado, distinto de cero.
type AdjustRequest struct {
	Delta  int    `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"required,max=500"`
	Notes  string `json:"notes" validate:"max=1000"`
}

// PurchaseRequest body para POST /api/inventory/:variantId/purchase.
type PurchaseRequest struct {
	Quantity            int             `json:"quantity" validate:"required,gt=0"`
	UnitCost            decimal.Decimal `json:"unit_cost"`
	PurchaseOrderID     string          `json:"purchase_order_id" validate:"required,max=100"`
	PurchaseOrderNumber string          `json:"purchase_order_number" validate:"max=100"`
	Notes               string          `json:"notes" validate:"max=1000"`
}

// SaleRequest body para POST /api/inventory/:variantId/sale.
type SaleRequest struct {
	Quantity    int             `json:"quantity" validate:"required,gt=0"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	OrderID     string          `json:"order_id" validate:"required,max=100"`
	OrderNumber string          `json:"order_number" validate:"max=100"`
}

// FulfillmentItemRequest línea de POST /api/inventory/check-fulfillment.
type FulfillmentItemRequest struct {
	VariantID string `json:"variant_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// CheckFulfillmentRequest body para POST /api/inventory/check-fulfillment.
type CheckFulfillmentRequest struct {
	Items []FulfillmentItemRequest `json:"items" validate:"required,min=1,max=500,dive"`
}

// BulkLevelsRequest body para POST /api/inventory/bulk-levels.
type BulkLevelsRequest struct {
	VariantIDs []string `json:"variant_ids" validate:"required,min=1,max=500,dive,required"`
}

// HistoryQuery query params de los historiales. Fechas RFC3339 o YYYY-MM-DD.
type HistoryQuery struct {
	StartDate string `query:"start_date"`
	EndDate   string `query:"end_date"`
	Type      string `query:"type" validate:"omitempty,oneof=RESERVE RELEASE ADJUSTMENT PURCHASE SALE"`
	Page      int    `query:"page" validate:"omitempty,min=1"`
	Limit     int    `query:"limit" validate:"omitempty,min=1"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Responses
// ──────────────────────────────────────────────────────────────────────────────

// InventoryLevelResponse nivel actual de una variante.
type InventoryLevelResponse struct {
	VariantID       string          `json:"variant_id"`
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	OnHand          int             `json:"on_hand"`
	Reserved        int             `json:"reserved"`
	Available       int             `json:"available"`
	ReorderPoint    int             `json:"reorder_point"`
	ReorderQuantity int             `json:"reorder_quantity"`
	AverageCost     decimal.Decimal `json:"average_cost"`
	NeedsReorder    bool            `json:"needs_reorder"`
	IsActive        bool            `json:"is_active"`
	Version         int64           `json:"version"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TransactionResponse registro del ledger.
type TransactionResponse struct {
	ID              string          `json:"id"`
	Sequence        int64           `json:"sequence"`
	VariantID       string          `json:"variant_id"`
	SKU             string          `json:"sku"`
	ProductName     string          `json:"product_name"`
	Type            string          `json:"type"`
	QuantityBefore  int             `json:"quantity_before"`
	QuantityChange  int             `json:"quantity_change"`
	QuantityAfter   int             `json:"quantity_after"`
	ReferenceType   string          `json:"reference_type"`
	ReferenceID     string          `json:"reference_id"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	Reason          string          `json:"reason"`
	Notes           string          `json:"notes,omitempty"`
	PerformedBy     string          `json:"performed_by"`
	OccurredAt      time.Time       `json:"occurred_at"`
}

// MutationResponse respuesta de las cinco operaciones del motor.
type MutationResponse struct {
	Transaction TransactionResponse    `json:"transaction"`
	Level       InventoryLevelResponse `json:"level"`
}

// ShortfallResponse línea que no puede despacharse.
type ShortfallResponse struct {
	VariantID string `json:"variant_id"`
	SKU       string `json:"sku"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
}

// FulfillmentResponse resultado de check-fulfillment.
type FulfillmentResponse struct {
	CanFulfill bool                `json:"can_fulfill"`
	Shortfalls []ShortfallResponse `json:"shortfalls"`
}

// OverviewResponse totales del inventario activo.
type OverviewResponse struct {
	TotalVariants  int             `json:"total_variants"`
	TotalOnHand    int             `json:"total_on_hand"`
	TotalReserved  int             `json:"total_reserved"`
	TotalAvailable int             `json:"total_available"`
	TotalValue     decimal.Decimal `json:"total_value"`
	LowStockCount  int             `json:"low_stock_count"`
}

// HistoryResponse página de transacciones.
type HistoryResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Pagination   PageResponse          `json:"pagination"`
}

// ReplenishmentSuggestionDTO sugerencia de reposición para una variante bajo su punto de reorden.
type ReplenishmentSuggestionDTO struct {
	VariantID          string          `json:"variant_id"`
	SKU                string          `json:"sku"`
	Name               string          `json:"name"`
	Available          int             `json:"available"`
	ReorderPoint       int             `json:"reorder_point"`
	IdealStock         int             `json:"ideal_stock"`          // ReorderPoint * 1.5
	SuggestedOrderQty  int             `json:"suggested_order_qty"`  // max(ReorderQuantity, IdealStock - Available)
	AverageCost        decimal.Decimal `json:"average_cost"`         // costo promedio ponderado
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * AverageCost
	Priority           int             `json:"priority"`             // 1 = más urgente
}

// AuditResponse comparación nivel vs. replay del ledger.
type AuditResponse struct {
	VariantID        string   `json:"variant_id"`
	Consistent       bool     `json:"consistent"`
	ExpectedOnHand   int      `json:"expected_on_hand"`
	ExpectedReserved int      `json:"expected_reserved"`
	ActualOnHand     int      `json:"actual_on_hand"`
	ActualReserved   int      `json:"actual_reserved"`
	EntryCount       int      `json:"entry_count"`
	BrokenEntries    []string `json:"broken_entries"`
	ReplayError      string   `json:"replay_error,omitempty"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Mappers
// ──────────────────────────────────────────────────────────────────────────────

// ToLevelResponse mapea un nivel; Available y NeedsReorder se derivan.
func ToLevelResponse(l *entity.InventoryLevel) InventoryLevelResponse {
	return InventoryLevelResponse{
		VariantID:       l.VariantID,
		SKU:             l.SKU,
		Name:            l.Name,
		OnHand:          l.OnHand,
		Reserved:        l.Reserved,
		Available:       l.Available(),
		ReorderPoint:    l.ReorderPoint,
		ReorderQuantity: l.ReorderQuantity,
		AverageCost:     l.AverageCost,
		NeedsReorder:    domaininv.NeedsReorder(l.Available(), l.ReorderPoint),
		IsActive:        l.IsActive,
		Version:         l.Version,
		UpdatedAt:       l.UpdatedAt,
	}
}

// ToLevelResponses mapea una lista de niveles.
func ToLevelResponses(levels []*entity.InventoryLevel) []InventoryLevelResponse {
	out := make([]InventoryLevelResponse, 0, len(levels))
	for _, l := range levels {
		out = append(out, ToLevelResponse(l))
	}
	return out
}

// ToTransactionResponse mapea un registro del ledger.
func ToTransactionResponse(t *entity.InventoryTransaction) TransactionResponse {
	return TransactionResponse{
		ID:              t.ID,
		Sequence:        t.Sequence,
		VariantID:       t.VariantID,
		SKU:             t.SKU,
		ProductName:     t.ProductName,
		Type:            string(t.Type),
		QuantityBefore:  t.QuantityBefore,
		QuantityChange:  t.QuantityChange,
		QuantityAfter:   t.QuantityAfter,
		ReferenceType:   string(t.ReferenceType),
		ReferenceID:     t.ReferenceID,
		ReferenceNumber: t.ReferenceNumber,
		UnitCost:        t.UnitCost,
		TotalCost:       t.TotalCost,
		Reason:          t.Reason,
		Notes:           t.Notes,
		PerformedBy:     t.PerformedBy,
		OccurredAt:      t.OccurredAt,
	}
}

// ToTransactionResponses mapea una lista de registros.
func ToTransactionResponses(txs []*entity.InventoryTransaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, ToTransactionResponse(t))
	}
	return out
}

func ToMutationResponse(r *inventory.MutationResult) MutationResponse {
	return MutationResponse{
		Transaction: ToTransactionResponse(r.Transaction),
		Level:       ToLevelResponse(&r.Level),
	}
}

func ToFulfillmentResponse(r *inventory.FulfillmentResult) FulfillmentResponse {
	out := FulfillmentResponse{CanFulfill: r.CanFulfill, Shortfalls: make([]ShortfallResponse, 0, len(r.Shortfalls))}
	for _, s := range r.Shortfalls {
		out.Shortfalls = append(out.Shortfalls, ShortfallResponse(s))
	}
	return out
}

func ToOverviewResponse(o *inventory.Overview) OverviewResponse {
	return OverviewResponse(*o)
}

func ToHistoryResponse(p *inventory.HistoryPage) HistoryResponse {
	return HistoryResponse{
		Transactions: ToTransactionResponses(p.Transactions),
		Pagination:   ToPageResponse(p.Pagination),
	}
}

func ToReplenishmentDTOs(list []inventory.ReplenishmentSuggestion) []ReplenishmentSuggestionDTO {
	out := make([]ReplenishmentSuggestionDTO, 0, len(list))
	for _, s := range list {
		out = append(out, ReplenishmentSuggestionDTO(s))
	}
	return out
}

func ToAuditResponse(r *inventory.AuditReport) AuditResponse {
	return AuditResponse{
		VariantID:        r.VariantID,
		Consistent:       r.Consistent,
		ExpectedOnHand:   r.Expected.OnHand,
		ExpectedReserved: r.Expected.Reserved,
		ActualOnHand:     r.ActualOnHand,
		ActualReserved:   r.ActualReserved,
		EntryCount:       r.EntryCount,
		BrokenEntries:    r.BrokenEntries,
		ReplayError:      r.ReplayError,
	}
}
