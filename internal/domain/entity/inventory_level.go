package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Valores por defecto de reorden cuando la variante no los define.
const (
	DefaultReorderPoint    = 10
	DefaultReorderQuantity = 50
)

// InventoryLevel representa el stock actual de una variante (SKU).
// Es una proyección del ledger: OnHand y Reserved deben poder reconstruirse
// reproduciendo sus transacciones. Solo el motor de inventario la modifica.
type InventoryLevel struct {
	VariantID       string
	SKU             string
	Name            string
	OnHand          int // unidades físicas en bodega
	Reserved        int // comprometidas a órdenes abiertas, 0 <= Reserved <= OnHand
	ReorderPoint    int
	ReorderQuantity int
	AverageCost     decimal.Decimal // costo promedio ponderado de las compras
	IsActive        bool
	Version         int64 // se incrementa en cada escritura confirmada (CAS)
	UpdatedAt       time.Time
}

// Available devuelve OnHand - Reserved. Nunca se persiste.
func (l InventoryLevel) Available() int {
	return l.OnHand - l.Reserved
}

// Valid verifica 0 <= Reserved <= OnHand.
func (l InventoryLevel) Valid() bool {
	return l.OnHand >= 0 && l.Reserved >= 0 && l.Reserved <= l.OnHand
}
