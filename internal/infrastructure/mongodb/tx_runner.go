package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción multi-documento.
type TxRunner struct {
	client *Client
}

// NewTxRunner construye el runner.
func NewTxRunner(client *Client) *TxRunner {
	return &TxRunner{client: client}
}

// Run abre una sesión y ejecuta fn con repositorios atados a ella. El driver puede
// reintentar fn ante errores transitorios de la transacción.
func (r *TxRunner) Run(ctx context.Context, fn func(
	levels repository.InventoryLevelRepository,
	ledger repository.InventoryTransactionRepository,
) error) error {
	session, err := r.client.client.StartSession()
	if err != nil {
		return fmt.Errorf("iniciar sesión: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		levels := r.client.Levels()
		levels.session = sessCtx
		ledger := r.client.Transactions()
		ledger.session = sessCtx
		return nil, fn(levels, ledger)
	})
	return err
}

// bindSession devuelve un ctx que lleva la sesión, conservando plazos del llamador.
func bindSession(ctx context.Context, sess mongo.Session) context.Context {
	if sess == nil {
		return ctx
	}
	return mongo.NewSessionContext(ctx, sess)
}
