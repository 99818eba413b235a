//go:build integration

package mongodb_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	tcmongodb "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appinventory "github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/mongodb"
	"github.com/jhoicas/inventory-ledger/pkg/logger"
)

type MongoSuite struct {
	suite.Suite
	ctx       context.Context
	container *tcmongodb.MongoDBContainer
	raw       *mongo.Client
	client    *mongodb.Client
	engine    *appinventory.Engine
}

func TestMongoSuite(t *testing.T) {
	suite.Run(t, new(MongoSuite))
}

func (s *MongoSuite) SetupSuite() {
	s.ctx = context.Background()

	// las transacciones requieren replica set
	container, err := tcmongodb.Run(s.ctx, "mongo:6", tcmongodb.WithReplicaSet("rs"))
	s.Require().NoError(err)
	s.container = container

	uri, err := container.ConnectionString(s.ctx)
	s.Require().NoError(err)
	s.raw, err = mongo.Connect(s.ctx, options.Client().ApplyURI(uri).SetDirect(true))
	s.Require().NoError(err)
	s.Require().NoError(s.raw.Ping(s.ctx, nil))

	s.client = mongodb.Wrap(s.raw, "inventory_test")
}

func (s *MongoSuite) TearDownSuite() {
	if s.raw != nil {
		_ = s.raw.Disconnect(s.ctx)
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *MongoSuite) SetupTest() {
	s.Require().NoError(s.client.Database().Drop(s.ctx))
	s.Require().NoError(s.client.EnsureIndexes(s.ctx))

	cfg := appinventory.DefaultEngineConfig()
	cfg.LockTimeout = 10 * time.Second
	s.engine = appinventory.NewEngine(mongodb.NewTxRunner(s.client), nil, nil, cfg, logger.Nop())
}

func (s *MongoSuite) seed(id string, onHand int) {
	_, err := s.engine.RegisterVariant(s.ctx, appinventory.RegisterVariantInput{VariantID: id, SKU: "SKU-" + id})
	s.Require().NoError(err)
	_, err = s.engine.RecordPurchase(s.ctx, appinventory.PurchaseInput{
		VariantID: id, Quantity: onHand, UnitCost: decimal.RequireFromString("2.5"), PurchaseOrderID: "po-1",
	})
	s.Require().NoError(err)
}

func (s *MongoSuite) TestCicloCompleto_ReplayCoincide() {
	s.seed("V1", 40)
	_, err := s.engine.Reserve(s.ctx, appinventory.ReserveInput{VariantID: "V1", Quantity: 15, OrderID: "o-1"})
	s.Require().NoError(err)
	_, err = s.engine.Release(s.ctx, appinventory.ReleaseInput{VariantID: "V1", Quantity: 5, OrderID: "o-1"})
	s.Require().NoError(err)
	_, err = s.engine.Adjust(s.ctx, appinventory.AdjustInput{VariantID: "V1", Delta: -3, Reason: "merma", PerformedBy: "u-1"})
	s.Require().NoError(err)

	level, err := s.client.Levels().Get(s.ctx, "V1")
	s.Require().NoError(err)
	s.Equal(37, level.OnHand)
	s.Equal(10, level.Reserved)
	s.True(decimal.RequireFromString("2.5").Equal(level.AverageCost))

	txs, err := s.client.Transactions().ListForReplay(s.ctx, "V1")
	s.Require().NoError(err)
	s.Require().Len(txs, 4)
	snap, err := inventory.Replay(txs)
	s.Require().NoError(err)
	s.True(snap.Matches(*level))

	byRef, err := s.client.Transactions().ListByReference(s.ctx, entity.ReferenceTypeOrder, "o-1")
	s.Require().NoError(err)
	s.Len(byRef, 2)
}

func (s *MongoSuite) TestRechazoNoDejaRastro() {
	s.seed("V1", 5)
	_, err := s.engine.Reserve(s.ctx, appinventory.ReserveInput{VariantID: "V1", Quantity: 6, OrderID: "o"})
	s.ErrorIs(err, domain.ErrInsufficientStock)

	page, err := s.client.Transactions().ListByVariant(s.ctx, "V1", repository.TransactionFilter{})
	s.Require().NoError(err)
	s.Equal(1, page.Total)
}

func (s *MongoSuite) TestCompareAndSwap_VersionVieja() {
	s.seed("V1", 5)
	levels := s.client.Levels()
	level, err := levels.Get(s.ctx, "V1")
	s.Require().NoError(err)
	stale := level.Version

	level.OnHand = 6
	s.Require().NoError(levels.CompareAndSwap(s.ctx, "V1", stale, level))
	s.ErrorIs(levels.CompareAndSwap(s.ctx, "V1", stale, level), domain.ErrConcurrencyConflict)
	s.ErrorIs(levels.CompareAndSwap(s.ctx, "GHOST", 0, level), domain.ErrVariantNotFound)
}

func (s *MongoSuite) TestDuplicados() {
	s.seed("V1", 5)
	_, err := s.engine.RegisterVariant(s.ctx, appinventory.RegisterVariantInput{VariantID: "V1", SKU: "OTRO"})
	s.ErrorIs(err, domain.ErrDuplicate)

	txs, err := s.client.Transactions().ListForReplay(s.ctx, "V1")
	s.Require().NoError(err)
	dup := *txs[0]
	dup.ID = "otra"
	s.ErrorIs(s.client.Transactions().Append(s.ctx, &dup), domain.ErrConcurrencyConflict)
}

func (s *MongoSuite) TestConcurrencia_NoSobrevende() {
	s.seed("V1", 20)
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.engine.Reserve(s.ctx, appinventory.ReserveInput{VariantID: "V1", Quantity: 1, OrderID: "o"})
		}()
	}
	wg.Wait()

	level, err := s.client.Levels().Get(s.ctx, "V1")
	s.Require().NoError(err)
	s.Equal(20, level.Reserved)
	page, err := s.client.Transactions().ListByVariant(s.ctx, "V1", repository.TransactionFilter{Type: entity.TransactionTypeReserve})
	s.Require().NoError(err)
	s.Equal(20, page.Total)
}
