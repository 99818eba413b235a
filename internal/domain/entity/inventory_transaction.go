package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tipo de transacción del ledger.
type TransactionType string

const (
	TransactionTypeReserve    TransactionType = "RESERVE"    // reserva para orden
	TransactionTypeRelease    TransactionType = "RELEASE"    // liberación de reserva
	TransactionTypeAdjustment TransactionType = "ADJUSTMENT" // ajuste manual
	TransactionTypePurchase   TransactionType = "PURCHASE"   // entrada por orden de compra
	TransactionTypeSale       TransactionType = "SALE"       // salida por venta
)

// Valid indica si el tipo es uno de los cinco conocidos.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeReserve, TransactionTypeRelease, TransactionTypeAdjustment,
		TransactionTypePurchase, TransactionTypeSale:
		return true
	}
	return false
}

// ReferenceType documento que origina la transacción.
type ReferenceType string

const (
	ReferenceTypeOrder            ReferenceType = "ORDER"
	ReferenceTypePurchaseOrder    ReferenceType = "PURCHASE_ORDER"
	ReferenceTypeManualAdjustment ReferenceType = "MANUAL_ADJUSTMENT"
)

// InventoryTransaction registro inmutable del ledger; uno por mutación confirmada.
// RESERVE y RELEASE miden Before/After sobre el disponible; el resto sobre la existencia.
type InventoryTransaction struct {
	ID              string
	Sequence        int64 // versión de la variante tras la escritura; orden de replay
	VariantID       string
	SKU             string
	ProductName     string
	Type            TransactionType
	QuantityBefore  int
	QuantityChange  int
	QuantityAfter   int
	ReferenceType   ReferenceType
	ReferenceID     string
	ReferenceNumber string
	UnitCost        decimal.Decimal
	TotalCost       decimal.Decimal
	Reason          string
	Notes           string
	PerformedBy     string
	OccurredAt      time.Time
}

// Balanced verifica QuantityAfter = QuantityBefore + QuantityChange.
func (t *InventoryTransaction) Balanced() bool {
	return t.QuantityAfter == t.QuantityBefore+t.QuantityChange
}
