package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/events"
	"github.com/jhoicas/inventory-ledger/pkg/logger"
)

func signal(variantID string) inventory.ReorderSignal {
	return inventory.ReorderSignal{
		VariantID: variantID, SKU: "SKU-" + variantID, Available: 4, ReorderPoint: 10, ReorderQuantity: 50,
		TriggeredBy: entity.TransactionTypeSale, TransactionID: "tx-1", OccurredAt: time.Now(),
	}
}

type recorder struct {
	mu      sync.Mutex
	signals []inventory.ReorderSignal
	err     error
	block   chan struct{}
}

func (r *recorder) NotifyReorder(_ context.Context, s inventory.ReorderSignal) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, s)
	return r.err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.signals)
}

// ──────────────────────────────────────────────────────────────────────────────
// Log y Multi
// ──────────────────────────────────────────────────────────────────────────────

func TestLogNotifier_NoFalla(t *testing.T) {
	assert.NoError(t, events.NewLogNotifier(logger.Nop()).NotifyReorder(context.Background(), signal("V1")))
}

func TestMultiNotifier_EntregaATodosYUneErrores(t *testing.T) {
	boom := errors.New("boom")
	a, b := &recorder{err: boom}, &recorder{}
	err := events.MultiNotifier{a, b}.NotifyReorder(context.Background(), signal("V1"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count(), "un fallo no detiene a los demás destinos")
}

// ──────────────────────────────────────────────────────────────────────────────
// Async
// ──────────────────────────────────────────────────────────────────────────────

func TestAsyncNotifier_CloseEntregaPendientes(t *testing.T) {
	rec := &recorder{}
	n := events.NewAsyncNotifier(rec, 16, logger.Nop())
	for i := 0; i < 10; i++ {
		require.NoError(t, n.NotifyReorder(context.Background(), signal("V1")))
	}
	require.NoError(t, n.Close(context.Background()))
	assert.Equal(t, 10, rec.count())

	assert.ErrorIs(t, n.NotifyReorder(context.Background(), signal("V1")), events.ErrNotifierClosed)
	assert.NoError(t, n.Close(context.Background()), "Close es idempotente")
}

func TestAsyncNotifier_ColaLlenaDescarta(t *testing.T) {
	rec := &recorder{block: make(chan struct{})}
	n := events.NewAsyncNotifier(rec, 1, logger.Nop())

	// el worker toma la primera y queda bloqueado; la segunda llena la cola
	require.NoError(t, n.NotifyReorder(context.Background(), signal("V1")))
	require.Eventually(t, func() bool {
		return n.NotifyReorder(context.Background(), signal("V2")) == nil
	}, time.Second, time.Millisecond)
	assert.ErrorIs(t, n.NotifyReorder(context.Background(), signal("V3")), events.ErrQueueFull)

	close(rec.block)
	require.NoError(t, n.Close(context.Background()))
	assert.Equal(t, 2, rec.count())
}

// ──────────────────────────────────────────────────────────────────────────────
// Kafka
// ──────────────────────────────────────────────────────────────────────────────

func TestKafkaNotifier_PublicaJSON(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got inventory.ReorderSignal
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.VariantID != "V1" || got.Available != 4 || got.TriggeredBy != entity.TransactionTypeSale {
			return errors.New("payload inesperado")
		}
		return nil
	})

	n := events.NewKafkaNotifierWithProducer(producer, "inventory.reorder-signals", logger.Nop())
	require.NoError(t, n.NotifyReorder(context.Background(), signal("V1")))
	require.NoError(t, n.Close())
}

func TestKafkaNotifier_CircuitoSeAbreTrasFallos(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	for i := 0; i < 3; i++ {
		producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	}
	n := events.NewKafkaNotifierWithProducer(producer, "t", logger.Nop())

	for i := 0; i < 3; i++ {
		err := n.NotifyReorder(context.Background(), signal("V1"))
		assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	}
	err := n.NotifyReorder(context.Background(), signal("V1"))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState, "con el circuito abierto no se intenta enviar")
	require.NoError(t, n.Close())
}

func TestKafkaNotifier_ContextoCancelado(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	n := events.NewKafkaNotifierWithProducer(producer, "t", logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.NotifyReorder(ctx, signal("V1")), context.Canceled)
	require.NoError(t, n.Close())
}
