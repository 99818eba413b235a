package http

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/pkg/logger"
)

// InventoryHandler maneja las peticiones HTTP del motor de inventario y sus vistas (protegido).
type InventoryHandler struct {
	engine        *inventory.Engine
	reports       *inventory.ReportingUseCase
	fulfillment   *inventory.FulfillmentChecker
	audit         *inventory.AuditUseCase
	replenishment *inventory.ReplenishmentUseCase
	validate      *validator.Validate
	log           *logger.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	engine *inventory.Engine,
	reports *inventory.ReportingUseCase,
	fulfillment *inventory.FulfillmentChecker,
	audit *inventory.AuditUseCase,
	replenishment *inventory.ReplenishmentUseCase,
	log *logger.Logger,
) *InventoryHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &InventoryHandler{
		engine:        engine,
		reports:       reports,
		fulfillment:   fulfillment,
		audit:         audit,
		replenishment: replenishment,
		validate:      validator.New(),
		log:           log.Component("http-inventory"),
	}
}

// bind lee el body JSON y lo valida con las etiquetas `validate`.
// Con ok=false la respuesta 400 ya quedó escrita.
func (h *InventoryHandler) bind(c *fiber.Ctx, out any) (ok bool, err error) {
	if err := c.BodyParser(out); err != nil {
		return false, badBody(c)
	}
	if err := h.validate.Struct(out); err != nil {
		return false, validationError(c, err)
	}
	return true, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Mutaciones
// ──────────────────────────────────────────────────────────────────────────────

// RegisterVariant POST /api/inventory/variants
func (h *InventoryHandler) RegisterVariant(c *fiber.Ctx) error {
	var in dto.RegisterVariantRequest
	if ok, err := h.bind(c, &in); !ok {
		return err
	}
	level, err := h.engine.RegisterVariant(c.UserContext(), inventory.RegisterVariantInput{
		VariantID:       in.VariantID,
		SKU:             in.SKU,
		Name:            in.Name,
		ReorderPoint:    in.ReorderPoint,
		ReorderQuantity: in.ReorderQuantity,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToLevelResponse(level))
}

// Reserve POST /api/inventory/:variantId/reserve
func (h *InventoryHandler) Reserve(c *fiber.Ctx) error {
	var in dto.ReserveRequest
	if ok, err := h.bind(c, &in); !ok {
		return err
	}
	res, err := h.engine.Reserve(c.UserContext(), inventory.ReserveInput{
		VariantID:   c.Params("variantId"),
		Quantity:    in.Quantity,
		OrderID:     in.OrderID,
		OrderNumber: in.OrderNumber,
		PerformedBy: GetUserID(c),
		Reason:      in.Reason,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToMutationResponse(res))
}

// Release POST /api/inventory/:variantId/release
func (h *InventoryHandler) Release(c *fiber.Ctx) error {
	var in dto.ReleaseRequest
	if ok, err := h.bind(c, &in); !ok {
		return err
	}
	res, err := h.engine.Release(c.UserContext(), inventory.ReleaseInput{
		VariantID:   c.Params("variantId"),
		Quantity:    in.Quantity,
		OrderID:     in.OrderID,
		OrderNumber: in.OrderNumber,
		PerformedBy: GetUserID(c),
		Reason:      in.Reason,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToMutationResponse(res))
}

// Adjust POST /api/inventory/:variantId/adjust
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustRequest
	if ok, err := h.bind(c, &in); !ok {
		return err
	}
	res, err := h.engine.Adjust(c.UserContext(), inventory.AdjustInput{
		VariantID:   c.Params("variantId"),
		Delta:       in.Delta,
		Reason:      in.Reason,
		Notes:       in.Notes,
		PerformedBy: GetUserID(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToMutationResponse(res))
}

// Purchase POST /api/inventory/:variantId/purchase
func (h *InventoryHandler) Purchase(c *fiber.Ctx) error {
	var in dto.PurchaseRequest
	if ok, err := h.bind(c, &in); !ok {
		return err
	}
	res, err := h.engine.RecordPurchase(c.UserContext(), inventory.PurchaseInput{
		VariantID:           c.Params("variantId"),
		Quantity:            in.Quantity,
		UnitCost:            in.UnitCost,
		PurchaseOrderID:     in.PurchaseOrderID,
		PurchaseOrderNumber: in.PurchaseOrderNumber,
		PerformedBy:         GetUserID(c),
		Notes:               in.Notes,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToMutationResponse(res))
}

// Sale POST /api/inventory/:variantId/sale
func (h *InventoryHandler) Sale(c *fiber.Ctx) error {
	var in dto.SaleRequest
	if ok, err := h.bind(c, &in); !ok {
		return err
	}
	res, err := h.engine.RecordSale(c.UserContext(), inventory.SaleInput{
		VariantID:   c.Params("variantId"),
		Quantity:    in.Quantity,
		UnitCost:    in.UnitCost,
		OrderID:     in.OrderID,
		OrderNumber: in.OrderNumber,
		PerformedBy: GetUserID(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToMutationResponse(res))
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

// GetLevel GET /api/inventory/:variantId
func (h *InventoryHandler) GetLevel(c *fiber.Ctx) error {
	level, err := h.reports.GetLevel(c.UserContext(), c.Params("variantId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToLevelResponse(level))
}

// BulkLevels POST /api/inventory/bulk-levels
func (h *InventoryHandler) BulkLevels(c *fiber.Ctx) error {
	var in dto.BulkLevelsRequest
	if ok, err := h.bind(c, &in); !ok {
		return err
	}
	levels, err := h.reports.LevelsBulk(c.UserContext(), in.VariantIDs)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"total": len(levels), "levels": dto.ToLevelResponses(levels)})
}

// CheckFulfillment POST /api/inventory/check-fulfillment
func (h *InventoryHandler) CheckFulfillment(c *fiber.Ctx) error {
	var in dto.CheckFulfillmentRequest
	if ok, err := h.bind(c, &in); !ok {
		return err
	}
	items := make([]inventory.FulfillmentItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, inventory.FulfillmentItem{VariantID: it.VariantID, Quantity: it.Quantity})
	}
	res, err := h.fulfillment.CanFulfill(c.UserContext(), items)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToFulfillmentResponse(res))
}

// LowStock GET /api/inventory/low-stock?threshold=
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	var threshold *int
	if raw := c.Query("threshold"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return writeError(c, h.log, domain.ErrInvalidInput)
		}
		threshold = &n
	}
	levels, err := h.reports.LowStock(c.UserContext(), threshold)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"total": len(levels), "items": dto.ToLevelResponses(levels)})
}

// Overview GET /api/inventory/overview
func (h *InventoryHandler) Overview(c *fiber.Ctx) error {
	o, err := h.reports.Overview(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToOverviewResponse(o))
}

// TransactionHistory GET /api/inventory/:variantId/transactions
func (h *InventoryHandler) TransactionHistory(c *fiber.Ctx) error {
	filter, err := h.historyFilter(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	page, err := h.reports.TransactionHistory(c.UserContext(), c.Params("variantId"), filter)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToHistoryResponse(page))
}

// TransactionsByDateRange GET /api/inventory/transactions
func (h *InventoryHandler) TransactionsByDateRange(c *fiber.Ctx) error {
	filter, err := h.historyFilter(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	page, err := h.reports.TransactionsByDateRange(c.UserContext(), filter)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToHistoryResponse(page))
}

// TransactionsByReference GET /api/inventory/references/:type/:id/transactions
func (h *InventoryHandler) TransactionsByReference(c *fiber.Ctx) error {
	refType := entity.ReferenceType(strings.ToUpper(c.Params("type")))
	txs, err := h.reports.TransactionsByReference(c.UserContext(), refType, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"total": len(txs), "transactions": dto.ToTransactionResponses(txs)})
}

// Replenishment GET /api/inventory/replenishment
func (h *InventoryHandler) Replenishment(c *fiber.Ctx) error {
	list, err := h.replenishment.GenerateReplenishmentList(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"total":          len(list),
		"replenishments": dto.ToReplenishmentDTOs(list),
	})
}

// Audit GET /api/inventory/:variantId/audit
func (h *InventoryHandler) Audit(c *fiber.Ctx) error {
	report, err := h.audit.AuditVariant(c.UserContext(), c.Params("variantId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToAuditResponse(report))
}

func (h *InventoryHandler) historyFilter(c *fiber.Ctx) (inventory.HistoryFilter, error) {
	var q dto.HistoryQuery
	if err := c.QueryParser(&q); err != nil {
		return inventory.HistoryFilter{}, domain.ErrInvalidInput
	}
	if err := h.validate.Struct(q); err != nil {
		return inventory.HistoryFilter{}, domain.ErrInvalidInput
	}
	f := inventory.HistoryFilter{Type: entity.TransactionType(q.Type), Page: q.Page, Limit: q.Limit}
	var err error
	if f.StartDate, err = parseDate(q.StartDate, false); err != nil {
		return inventory.HistoryFilter{}, err
	}
	if f.EndDate, err = parseDate(q.EndDate, true); err != nil {
		return inventory.HistoryFilter{}, err
	}
	return f, nil
}

// parseDate acepta RFC3339 o YYYY-MM-DD; una fecha sin hora como fin de rango cubre el día completo.
func parseDate(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, domain.ErrInvalidInput
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
