package events

import (
	"context"
	"errors"

	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/pkg/logger"
)

// LogNotifier registra las señales de reorden en el log. Es el destino por defecto sin Kafka.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier construye el notificador.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &LogNotifier{log: log.Component("reorder-log")}
}

func (n *LogNotifier) NotifyReorder(_ context.Context, s inventory.ReorderSignal) error {
	n.log.Info().
		Str("variant_id", s.VariantID).
		Str("sku", s.SKU).
		Int("available", s.Available).
		Int("reorder_point", s.ReorderPoint).
		Int("reorder_quantity", s.ReorderQuantity).
		Str("triggered_by", string(s.TriggeredBy)).
		Str("transaction_id", s.TransactionID).
		Msg("señal de reorden")
	return nil
}

// MultiNotifier reparte cada señal a todos los destinos; un fallo no detiene a los demás.
type MultiNotifier []inventory.ReorderNotifier

func (m MultiNotifier) NotifyReorder(ctx context.Context, s inventory.ReorderSignal) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyReorder(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
