package events

import (
	"context"
	"errors"
	"sync"

	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/pkg/logger"
)

var (
	// ErrQueueFull la cola de señales está llena; la señal se descarta.
	ErrQueueFull = errors.New("cola de señales de reorden llena")
	// ErrNotifierClosed el notificador ya fue cerrado.
	ErrNotifierClosed = errors.New("notificador cerrado")
)

// AsyncNotifier desacopla la entrega de señales del camino de la mutación: encola y
// un worker las entrega al notificador siguiente.
type AsyncNotifier struct {
	next  inventory.ReorderNotifier
	queue chan inventory.ReorderSignal
	log   *logger.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewAsyncNotifier arranca el worker. buffer <= 0 usa 256.
func NewAsyncNotifier(next inventory.ReorderNotifier, buffer int, log *logger.Logger) *AsyncNotifier {
	if buffer <= 0 {
		buffer = 256
	}
	if log == nil {
		log = logger.Nop()
	}
	n := &AsyncNotifier{
		next:  next,
		queue: make(chan inventory.ReorderSignal, buffer),
		log:   log.Component("reorder-async"),
		done:  make(chan struct{}),
	}
	go n.run()
	return n
}

// NotifyReorder encola sin bloquear.
func (n *AsyncNotifier) NotifyReorder(_ context.Context, s inventory.ReorderSignal) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return ErrNotifierClosed
	}
	select {
	case n.queue <- s:
		return nil
	default:
		n.log.Warn().Str("variant_id", s.VariantID).Msg("cola de reorden llena, señal descartada")
		return ErrQueueFull
	}
}

func (n *AsyncNotifier) run() {
	defer close(n.done)
	for s := range n.queue {
		if err := n.next.NotifyReorder(context.Background(), s); err != nil {
			n.log.Error().Err(err).Str("variant_id", s.VariantID).Msg("no se pudo entregar la señal de reorden")
		}
	}
}

// Close deja de aceptar señales y espera a que se entreguen las encoladas o a que ctx expire.
func (n *AsyncNotifier) Close(ctx context.Context) error {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()

	select {
	case <-n.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
