package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/jhoicas/inventory-ledger/pkg/config"
)

// Nombres de colecciones.
const (
	collectionLevels       = "inventory_levels"
	collectionTransactions = "inventory_transactions"
)

// Client envuelve el cliente de MongoDB y la base de datos del inventario.
// Las transacciones multi-documento requieren un replica set.
type Client struct {
	client   *mongo.Client
	database *mongo.Database
}

// NewClient conecta y verifica con ping contra el primario.
func NewClient(ctx context.Context, cfg config.MongoConfig) (*Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(10 * time.Second).
		SetMaxPoolSize(100)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("conectar MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}
	return Wrap(client, cfg.Database), nil
}

// Wrap usa un *mongo.Client ya conectado (tests de integración).
func Wrap(client *mongo.Client, database string) *Client {
	return &Client{client: client, database: client.Database(database)}
}

// Database devuelve el handle de la base de datos.
func (c *Client) Database() *mongo.Database {
	return c.database
}

// Close desconecta el cliente.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// HealthCheck hace ping al primario.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// Levels repositorio de niveles fuera de transacción.
func (c *Client) Levels() *InventoryLevelRepo {
	return &InventoryLevelRepo{collection: c.database.Collection(collectionLevels)}
}

// Transactions repositorio del ledger fuera de transacción.
func (c *Client) Transactions() *InventoryTransactionRepo {
	return &InventoryTransactionRepo{collection: c.database.Collection(collectionTransactions)}
}
