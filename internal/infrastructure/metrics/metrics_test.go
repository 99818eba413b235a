package metrics_test

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/metrics"
)

func TestOutcome_Clasificacion(t *testing.T) {
	cases := map[string]error{
		metrics.OutcomeOK:       nil,
		metrics.OutcomeBusy:     fmt.Errorf("%w: %w", domain.ErrBusy, domain.ErrConcurrencyConflict),
		metrics.OutcomeNotFound: domain.ErrVariantNotFound,
		metrics.OutcomeRejected: &domain.InsufficientStockError{SKU: "S", Available: 1, Required: 2},
		metrics.OutcomeError:    errors.New("db caída"),
	}
	for want, err := range cases {
		assert.Equal(t, want, metrics.Outcome(err), "error: %v", err)
	}
	assert.Equal(t, metrics.OutcomeRejected, metrics.Outcome(domain.ErrInvalidQuantity))
}

func TestObserver_CuentaOperacionesYReintentos(t *testing.T) {
	o := metrics.NewObserver()
	o.OperationCompleted(entity.TransactionTypeReserve, nil, 3*time.Millisecond)
	o.OperationCompleted(entity.TransactionTypeReserve, nil, time.Millisecond)
	o.OperationCompleted(entity.TransactionTypeReserve, domain.ErrInsufficientStock, time.Millisecond)
	o.RetryAttempted(entity.TransactionTypeSale)
	o.ReorderSignalled(inventory.ReorderSignal{TriggeredBy: entity.TransactionTypeSale})

	expected := `
# HELP inventory_operations_total Operaciones del motor de inventario por tipo y resultado
# TYPE inventory_operations_total counter
inventory_operations_total{operation="RESERVE",outcome="ok"} 2
inventory_operations_total{operation="RESERVE",outcome="rejected"} 1
`
	require.NoError(t, testutil.GatherAndCompare(o.Registry(), strings.NewReader(expected), "inventory_operations_total"))

	n, err := testutil.GatherAndCount(o.Registry(), "inventory_operation_retries_total", "inventory_reorder_signals_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestObserver_HandlerExpone(t *testing.T) {
	o := metrics.NewObserver()
	o.OperationCompleted(entity.TransactionTypePurchase, nil, time.Millisecond)

	rec := httptest.NewRecorder()
	o.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `inventory_operations_total{operation="PURCHASE",outcome="ok"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
