package postgres_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/inventario-lotes/internal/application/dto"
	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/internal/application/sales"
	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/attribute"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
	domainsales "github.com/jhoicas/inventario-lotes/internal/domain/sales"
	"github.com/jhoicas/inventario-lotes/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-lotes/pkg/config"
	"github.com/jhoicas/inventario-lotes/pkg/logger"
)

// newTestPool levanta PostgreSQL en un contenedor, aplica las migraciones y carga una plantilla.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integración con PostgreSQL omitida en modo -short")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("lotes_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, postgres.Migrate(dsn, logger.Nop()))

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.NewTemplateRepository(pool).Save(ctx, &entity.ProductTemplate{
		ID:      "tpl-board",
		Name:    "Board",
		Unit:    "m3",
		Formula: "length * width * quantity / 1000",
		Attributes: []entity.TemplateAttribute{
			{Variable: "length", Type: entity.AttributeTypeNumber, IsRequired: true, IsInFormula: true},
			{Variable: "width", Type: entity.AttributeTypeNumber, IsRequired: true, IsInFormula: true},
			{Variable: "species", Type: entity.AttributeTypeSelect, Options: []entity.SelectOption{{Index: 0, Label: "pine"}, {Index: 1, Label: "oak"}}},
		},
	}))
	return pool
}

func TestPostgres_PlantillaYLote(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()

	tpl, err := postgres.NewTemplateRepository(pool).GetByID(ctx, "tpl-board")
	require.NoError(t, err)
	require.NotNil(t, tpl)
	require.Len(t, tpl.Attributes, 3)
	assert.Equal(t, "length", tpl.Attributes[0].Variable)
	label, ok := tpl.Attributes[2].Label(1)
	assert.True(t, ok)
	assert.Equal(t, "oak", label)

	missing, err := postgres.NewTemplateRepository(pool).GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	uc := inventory.NewLotUseCase(postgres.NewTxRunner(pool), postgres.NewLotRepository(pool), postgres.NewTemplateRepository(pool), logger.Nop(), 3)
	lot, err := uc.CreateLot(ctx, "u", dto.CreateLotRequest{
		TemplateID:  "tpl-board",
		WarehouseID: "wh-1",
		Attributes:  attribute.Map{"length": attribute.NumberValue(decimal.RequireFromString("2.5")), "width": attribute.NumberValue(decimal.NewFromInt(2)), "species": attribute.TextValue("oak")},
		Quantity:    decimal.NewFromInt(4),
	})
	require.NoError(t, err)

	got, err := postgres.NewLotRepository(pool).GetByID(ctx, lot.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Board: 2.5 x 2, oak", got.Name)
	require.NotNil(t, got.CalculatedVolume)
	assert.True(t, got.CalculatedVolume.Equal(decimal.RequireFromString("0.02")))
	n, isNum := got.Attributes["length"].Number()
	require.True(t, isNum)
	assert.True(t, n.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, "oak", got.Attributes["species"].String())
	assert.Nil(t, got.ProducerID)

	err = postgres.NewLotRepository(pool).Update(ctx, &entity.InventoryLot{ID: uuid.New().String()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgres_VentaCancelacionYNumeroDuplicado(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	txRunner := postgres.NewTxRunner(pool)
	lots := inventory.NewLotUseCase(txRunner, postgres.NewLotRepository(pool), postgres.NewTemplateRepository(pool), logger.Nop(), 3)
	ledger := inventory.NewLedgerUseCase(txRunner, postgres.NewLotRepository(pool), postgres.NewLotMovementRepository(pool), logger.Nop(), 3)

	at := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	var seq atomic.Int32
	numbers := &domainsales.NumberGenerator{Prefix: "SALE", Now: func() time.Time { return at }, Suffix: func() int { return 1000 + int(seq.Add(1)) }}
	uc := sales.NewSaleUseCase(txRunner, postgres.NewSaleRepository(pool), numbers, logger.Nop(), sales.Config{MaxRetries: 3, NumberAttempts: 3})

	lot, err := lots.CreateLot(ctx, "u", dto.CreateLotRequest{
		TemplateID:  "tpl-board",
		WarehouseID: "wh-1",
		Attributes:  attribute.Map{"length": attribute.NumberValue(decimal.NewFromInt(2)), "width": attribute.NumberValue(decimal.NewFromInt(1))},
		Quantity:    decimal.NewFromInt(5),
	})
	require.NoError(t, err)

	first, err := uc.CreateSale(ctx, "u", dto.CreateSaleRequest{CompositeKey: lot.CompositeKey, Quantity: decimal.NewFromInt(2)})
	require.NoError(t, err)
	second, err := uc.CreateSale(ctx, "u", dto.CreateSaleRequest{CompositeKey: lot.CompositeKey, Quantity: decimal.NewFromInt(3)})
	require.NoError(t, err)
	assert.Equal(t, first.Number+"-1001", second.Number, "23505 se reintenta con sufijo")

	avail, err := ledger.AvailableQuantity(ctx, lot.ID)
	require.NoError(t, err)
	assert.True(t, avail.Available.IsZero())

	_, err = uc.CancelSale(ctx, first.ID, "devolución")
	require.NoError(t, err)
	_, err = uc.CancelSale(ctx, first.ID, "otra vez")
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	avail, err = ledger.AvailableQuantity(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, "2", avail.Available.String())

	movements, err := ledger.ListMovements(ctx, lot.ID, dto.PageRequest{Limit: 10})
	require.NoError(t, err)
	require.Len(t, movements, 3)
	assert.Equal(t, entity.LotMovementSaleCancel, movements[0].Type)

	require.NoError(t, uc.DeleteSale(ctx, second.ID))
	_, err = uc.GetSale(ctx, second.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgres_DescuentosConcurrentes(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	txRunner := postgres.NewTxRunner(pool)
	lots := inventory.NewLotUseCase(txRunner, postgres.NewLotRepository(pool), postgres.NewTemplateRepository(pool), logger.Nop(), 3)
	ledger := inventory.NewLedgerUseCase(txRunner, postgres.NewLotRepository(pool), postgres.NewLotMovementRepository(pool), logger.Nop(), 5)

	lot, err := lots.CreateLot(ctx, "u", dto.CreateLotRequest{
		TemplateID:  "tpl-board",
		WarehouseID: "wh-1",
		Attributes:  attribute.Map{"length": attribute.NumberValue(decimal.NewFromInt(1)), "width": attribute.NumberValue(decimal.NewFromInt(1))},
		Quantity:    decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	var ok atomic.Int32
	var g errgroup.Group
	for range 20 {
		g.Go(func() error {
			_, err := ledger.DecreaseStock(ctx, inventory.StockChangeInput{LotID: lot.ID, Quantity: decimal.NewFromInt(1)})
			if errors.Is(err, domain.ErrInsufficientStock) {
				return nil
			}
			if err == nil {
				ok.Add(1)
			}
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(10), ok.Load())

	got, err := postgres.NewLotRepository(pool).GetByID(ctx, lot.ID)
	require.NoError(t, err)
	assert.True(t, got.SoldQuantity.Equal(got.Quantity))
}

func TestPostgres_RollbackDescartaEscrituras(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	boom := errors.New("boom")
	id := uuid.New().String()

	err := postgres.NewTxRunner(pool).Run(ctx, func(lotRepo repository.LotRepository, _ repository.SaleRepository, _ repository.LotMovementRepository) error {
		now := time.Now()
		if err := lotRepo.Create(ctx, &entity.InventoryLot{
			ID: id, TemplateID: "tpl-board", WarehouseID: "wh-1", Name: "Board",
			Quantity: decimal.NewFromInt(1), SoldQuantity: decimal.Zero,
			Status: entity.LotStatusInStock, CorrectionStatus: entity.CorrectionStatusNone, IsActive: true,
			CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := postgres.NewLotRepository(pool).GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)
}
