package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
)

// Errores del motor de inventario.
var (
	ErrVariantNotFound         = fmt.Errorf("variante no encontrada: %w", ErrNotFound)
	ErrInvalidQuantity         = fmt.Errorf("cantidad inválida: %w", ErrInvalidInput)
	ErrInvalidUnitCost         = fmt.Errorf("costo unitario inválido: %w", ErrInvalidInput)
	ErrMissingReason           = fmt.Errorf("el motivo del ajuste es obligatorio: %w", ErrInvalidInput)
	ErrInsufficientStock       = fmt.Errorf("stock insuficiente: %w", ErrConflict)
	ErrInsufficientReservation = fmt.Errorf("reserva insuficiente: %w", ErrConflict)
	ErrNegativeInventory       = fmt.Errorf("el inventario no puede quedar negativo: %w", ErrConflict)
	ErrReservedExceedsOnHand   = fmt.Errorf("la existencia no puede quedar por debajo de lo reservado: %w", ErrConflict)

	// ErrConcurrencyConflict: la versión leída ya no es la vigente (CAS fallido).
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia")
	// ErrBusy: no se obtuvo la sección crítica de la variante a tiempo o se agotaron los reintentos.
	ErrBusy = errors.New("variante ocupada, reintente")
)

// InsufficientStockError detalla una reserva rechazada por falta de disponible.
// errors.Is(err, ErrInsufficientStock) es verdadero.
type InsufficientStockError struct {
	SKU       string
	Available int
	Required  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s: disponible %d, requerido %d", e.SKU, e.Available, e.Required)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// IsTransient indica si el error es de contención (el llamador puede reintentar)
// en lugar de un rechazo de negocio.
func IsTransient(err error) bool {
	return errors.Is(err, ErrBusy) || errors.Is(err, ErrConcurrencyConflict)
}
