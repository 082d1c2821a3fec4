package sales_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/inventario-lotes/internal/application/dto"
	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/internal/application/sales"
	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/attribute"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	domainsales "github.com/jhoicas/inventario-lotes/internal/domain/sales"
	"github.com/jhoicas/inventario-lotes/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-lotes/pkg/logger"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	store  *memory.Store
	lots   *inventory.LotUseCase
	ledger *inventory.LedgerUseCase
	sales  *sales.SaleUseCase
}

// fixedClock generador con instante fijo: el primer intento siempre produce el mismo número.
func fixedClock(suffix func() int) *domainsales.NumberGenerator {
	at := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	return &domainsales.NumberGenerator{Prefix: "SALE", Now: func() time.Time { return at }, Suffix: suffix}
}

func newFixture(t *testing.T, numbers *domainsales.NumberGenerator, attempts int) *fixture {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.SeedTemplates(&entity.ProductTemplate{
		ID:      "tpl-board",
		Name:    "Board",
		Formula: "length * width * quantity",
		Attributes: []entity.TemplateAttribute{
			{Variable: "length", Type: entity.AttributeTypeNumber, IsRequired: true, IsInFormula: true},
			{Variable: "width", Type: entity.AttributeTypeNumber, IsRequired: true, IsInFormula: true},
		},
	}))
	if numbers == nil {
		numbers = domainsales.NewNumberGenerator("SALE")
	}
	return &fixture{
		store:  store,
		lots:   inventory.NewLotUseCase(store, store.Lots(), store.Templates(), logger.Nop(), 3),
		ledger: inventory.NewLedgerUseCase(store, store.Lots(), store.Movements(), logger.Nop(), 3),
		sales: sales.NewSaleUseCase(store, store.Sales(), numbers, logger.Nop(), sales.Config{
			MaxRetries:     3,
			NumberAttempts: attempts,
		}),
	}
}

func (f *fixture) lot(t *testing.T, qty string) *dto.LotResponse {
	t.Helper()
	lot, err := f.lots.CreateLot(context.Background(), "u", dto.CreateLotRequest{
		TemplateID:  "tpl-board",
		WarehouseID: "wh-1",
		Attributes:  attribute.Map{"length": attribute.NumberValue(dec("2")), "width": attribute.NumberValue(dec("3"))},
		Quantity:    dec(qty),
	})
	require.NoError(t, err)
	return lot
}

func (f *fixture) available(t *testing.T, lotID string) string {
	t.Helper()
	out, err := f.ledger.AvailableQuantity(context.Background(), lotID)
	require.NoError(t, err)
	return out.Available.String()
}

func TestSale_CrearYCancelar(t *testing.T) {
	f := newFixture(t, nil, 5)
	ctx := context.Background()
	lot := f.lot(t, "5")

	total := dec("100")
	sale, err := f.sales.CreateSale(ctx, "vendedor", dto.CreateSaleRequest{
		CompositeKey: lot.CompositeKey,
		Quantity:     dec("5"),
		TotalPrice:   &total,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusPaid, sale.PaymentStatus)
	assert.Equal(t, lot.ID, sale.LotID)
	assert.Equal(t, "20", sale.UnitPrice.String())
	assert.Equal(t, domainsales.DefaultCurrency, sale.Currency)
	assert.True(t, strings.HasPrefix(sale.Number, "SALE-"))
	assert.Equal(t, "0", f.available(t, lot.ID))

	cancelled, err := f.sales.CancelSale(ctx, sale.ID, "cliente desistió")
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusCancelled, cancelled.PaymentStatus)
	require.NotNil(t, cancelled.CancellationReason)
	assert.Equal(t, "cliente desistió", *cancelled.CancellationReason)
	assert.Equal(t, "5", f.available(t, lot.ID))

	_, err = f.sales.CancelSale(ctx, sale.ID, "otra vez")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, "5", f.available(t, lot.ID), "la segunda cancelación no repone")
}

func TestSale_SinStockNoDejaVenta(t *testing.T) {
	f := newFixture(t, fixedClock(func() int { return 1000 }), 1)
	ctx := context.Background()
	lot := f.lot(t, "5")

	_, err := f.sales.CreateSale(ctx, "u", dto.CreateSaleRequest{CompositeKey: lot.CompositeKey, Quantity: dec("6")})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, "5", f.available(t, lot.ID))

	// Con un solo intento, un número ya usado daría conflicto: la venta fallida no quedó guardada.
	sale, err := f.sales.CreateSale(ctx, "u", dto.CreateSaleRequest{CompositeKey: lot.CompositeKey, Quantity: dec("5")})
	require.NoError(t, err)
	assert.Equal(t, "SALE-202403-", sale.Number[:len("SALE-202403-")])
	assert.NotContains(t, sale.Number[len("SALE-202403-"):], "-")
}

func TestSale_ClaveInvalidaOSinLote(t *testing.T) {
	f := newFixture(t, nil, 5)
	ctx := context.Background()
	lot := f.lot(t, "5")

	_, err := f.sales.CreateSale(ctx, "u", dto.CreateSaleRequest{CompositeKey: "tpl-board|wh-1", Quantity: dec("1")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.sales.CreateSale(ctx, "u", dto.CreateSaleRequest{CompositeKey: "tpl-board|wh-2||Board: 2 x 3", Quantity: dec("1")})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = f.sales.CreateSale(ctx, "u", dto.CreateSaleRequest{CompositeKey: lot.CompositeKey, Quantity: dec("0")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	neg := dec("-1")
	_, err = f.sales.CreateSale(ctx, "u", dto.CreateSaleRequest{CompositeKey: lot.CompositeKey, Quantity: dec("1"), UnitPrice: &neg})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, f.lots.Deactivate(ctx, lot.ID))
	_, err = f.sales.CreateSale(ctx, "u", dto.CreateSaleRequest{CompositeKey: lot.CompositeKey, Quantity: dec("1")})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "un lote inactivo no se vende")
}

func TestSale_EligeElLoteMasAntiguoConDisponible(t *testing.T) {
	f := newFixture(t, nil, 5)
	ctx := context.Background()
	first := f.lot(t, "2")
	second := f.lot(t, "10")
	require.Equal(t, first.CompositeKey, second.CompositeKey)

	sale, err := f.sales.CreateSale(ctx, "u", dto.CreateSaleRequest{CompositeKey: first.CompositeKey, Quantity: dec("2")})
	require.NoError(t, err)
	assert.Equal(t, first.ID, sale.LotID)

	sale, err = f.sales.CreateSale(ctx, "u", dto.CreateSaleRequest{CompositeKey: first.CompositeKey, Quantity: dec("3")})
	require.NoError(t, err)
	assert.Equal(t, second.ID, sale.LotID)
	assert.Equal(t, "7", f.available(t, second.ID))
}

func TestSale_ProcesamientoDiferido(t *testing.T) {
	f := newFixture(t, nil, 5)
	ctx := context.Background()
	lot := f.lot(t, "5")

	unit := dec("2.5")
	sale, err := f.sales.CreateSale(ctx, "u", dto.CreateSaleRequest{
		CompositeKey:    lot.CompositeKey,
		Quantity:        dec("4"),
		UnitPrice:       &unit,
		Currency:        "usd",
		DeferProcessing: true,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusPending, sale.PaymentStatus)
	assert.Equal(t, "10", sale.TotalPrice.String())
	assert.Equal(t, "USD", sale.Currency)
	assert.Equal(t, "5", f.available(t, lot.ID))

	paid, err := f.sales.ProcessSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusPaid, paid.PaymentStatus)
	assert.Equal(t, "1", f.available(t, lot.ID))

	_, err = f.sales.ProcessSale(ctx, sale.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, "1", f.available(t, lot.ID))

	_, err = f.sales.ProcessSale(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSale_ProcesarSinStockDejaPendiente(t *testing.T) {
	f := newFixture(t, nil, 5)
	ctx := context.Background()
	lot := f.lot(t, "5")

	pending, err := f.sales.CreateSale(ctx, "u", dto.CreateSaleRequest{CompositeKey: lot.CompositeKey, Quantity: dec("4"), DeferProcessing: true})
	require.NoError(t, err)
	_, err = f.sales.CreateSale(ctx, "u", dto.CreateSaleRequest{CompositeKey: lot.CompositeKey, Quantity: dec("3")})
	require.NoError(t, err)

	_, err = f.sales.ProcessSale(ctx, pending.ID)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	got, err := f.sales.GetSale(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusPending, got.PaymentStatus)
	assert.Equal(t, "2", f.available(t, lot.ID))
}

func TestSale_CancelarPendienteNoRepone(t *testing.T) {
	f := newFixture(t, nil, 5)
	ctx := context.Background()
	lot := f.lot(t, "5")

	sale, err := f.sales.CreateSale(ctx, "u", dto.CreateSaleRequest{CompositeKey: lot.CompositeKey, Quantity: dec("3"), DeferProcessing: true})
	require.NoError(t, err)

	_, err = f.sales.CancelSale(ctx, sale.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "5", f.available(t, lot.ID))

	movements, err := f.ledger.ListMovements(ctx, lot.ID, dto.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestSale_EliminarDevuelveStock(t *testing.T) {
	f := newFixture(t, nil, 5)
	ctx := context.Background()
	lot := f.lot(t, "5")

	sale, err := f.sales.CreateSale(ctx, "u", dto.CreateSaleRequest{CompositeKey: lot.CompositeKey, Quantity: dec("2")})
	require.NoError(t, err)
	assert.Equal(t, "3", f.available(t, lot.ID))

	require.NoError(t, f.sales.DeleteSale(ctx, sale.ID))
	assert.Equal(t, "5", f.available(t, lot.ID))

	_, err = f.sales.GetSale(ctx, sale.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.sales.DeleteSale(ctx, sale.ID), domain.ErrNotFound)

	movements, err := f.ledger.ListMovements(ctx, lot.ID, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, entity.LotMovementSaleCancel, movements[0].Type)
	assert.Equal(t, entity.LotMovementSale, movements[1].Type)
	require.NotNil(t, movements[0].SaleID)
	assert.Equal(t, sale.ID, *movements[0].SaleID)
}

func TestSale_ColisionDeNumeroReintenta(t *testing.T) {
	f := newFixture(t, fixedClock(func() int { return 1000 }), 3)
	ctx := context.Background()
	lot := f.lot(t, "10")
	req := dto.CreateSaleRequest{CompositeKey: lot.CompositeKey, Quantity: dec("1")}

	first, err := f.sales.CreateSale(ctx, "u", req)
	require.NoError(t, err)

	second, err := f.sales.CreateSale(ctx, "u", req)
	require.NoError(t, err)
	assert.Equal(t, first.Number+"-1000", second.Number)

	// Base y sufijo fijo ya usados: se agotan los intentos.
	_, err = f.sales.CreateSale(ctx, "u", req)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "8", f.available(t, lot.ID))
}

func TestSale_VentasConcurrentesNoSobrevenden(t *testing.T) {
	var seq atomic.Int32
	f := newFixture(t, fixedClock(func() int { return 1000 + int(seq.Add(1)) }), 5)
	ctx := context.Background()
	lot := f.lot(t, "5")

	var ok, rejected atomic.Int32
	var g errgroup.Group
	for range 10 {
		g.Go(func() error {
			_, err := f.sales.CreateSale(ctx, "u", dto.CreateSaleRequest{CompositeKey: lot.CompositeKey, Quantity: dec("1")})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(5), ok.Load())
	assert.Equal(t, int32(5), rejected.Load())
	assert.Equal(t, "0", f.available(t, lot.ID))
}
