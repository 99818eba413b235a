package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/pkg/logger"
)

// retryAfterSeconds sugerido al cliente cuando la variante está ocupada.
const retryAfterSeconds = "1"

// writeError traduce errores de dominio a respuestas HTTP. Los errores no reconocidos
// se registran y se devuelven como 500 sin detalles internos.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	var stockErr *domain.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INSUFFICIENT_STOCK",
			Message: stockErr.Error(),
			Details: fiber.Map{"sku": stockErr.SKU, "available": stockErr.Available, "required": stockErr.Required},
		})
	case errors.Is(err, domain.ErrInsufficientStock):
		return conflict(c, "INSUFFICIENT_STOCK", err)
	case errors.Is(err, domain.ErrInsufficientReservation):
		return conflict(c, "INSUFFICIENT_RESERVATION", err)
	case errors.Is(err, domain.ErrNegativeInventory):
		return conflict(c, "NEGATIVE_INVENTORY", err)
	case errors.Is(err, domain.ErrReservedExceedsOnHand):
		return conflict(c, "RESERVED_EXCEEDS_ON_HAND", err)
	case errors.Is(err, domain.ErrDuplicate):
		return conflict(c, "DUPLICATE", err)
	case errors.Is(err, domain.ErrBusy), errors.Is(err, domain.ErrConcurrencyConflict):
		c.Set(fiber.HeaderRetryAfter, retryAfterSeconds)
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "BUSY", Message: "la variante está ocupada, reintente"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("error no controlado")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func conflict(c *fiber.Ctx, code string, err error) error {
	return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// validationError responde 400 con el detalle por campo del validador.
func validationError(c *fiber.Ctx, err error) error {
	details := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
	}
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos", Details: details})
}
