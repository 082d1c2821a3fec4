package inventory_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-lotes/internal/application/dto"
	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/attribute"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	domaininv "github.com/jhoicas/inventario-lotes/internal/domain/inventory"
	"github.com/jhoicas/inventario-lotes/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-lotes/pkg/logger"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func num(s string) attribute.Value { return attribute.NumberValue(dec(s)) }

func boardTemplate() *entity.ProductTemplate {
	return &entity.ProductTemplate{
		ID:      "tpl-board",
		Name:    "Board",
		Unit:    "m3",
		Formula: "length * width * quantity / 1000",
		Attributes: []entity.TemplateAttribute{
			{Variable: "length", Type: entity.AttributeTypeNumber, IsRequired: true, IsInFormula: true},
			{Variable: "width", Type: entity.AttributeTypeNumber, IsRequired: true, IsInFormula: true},
			{Variable: "species", Type: entity.AttributeTypeSelect, Options: []entity.SelectOption{{Index: 0, Label: "pine"}, {Index: 1, Label: "oak"}}},
		},
	}
}

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.SeedTemplates(boardTemplate()))
	return store
}

func newLotUC(store *memory.Store, log *logger.Logger) *inventory.LotUseCase {
	return inventory.NewLotUseCase(store, store.Lots(), store.Templates(), log, 3)
}

func createLot(t *testing.T, uc *inventory.LotUseCase, qty string) *dto.LotResponse {
	t.Helper()
	lot, err := uc.CreateLot(context.Background(), "user-1", dto.CreateLotRequest{
		TemplateID:  "tpl-board",
		WarehouseID: "wh-1",
		Attributes:  attribute.Map{"length": num("2"), "width": num("1")},
		Quantity:    dec(qty),
	})
	require.NoError(t, err)
	return lot
}

func TestCreateLot_CalculaNombreYVolumen(t *testing.T) {
	uc := newLotUC(newStore(t), logger.Nop())

	lot := createLot(t, uc, "5")

	assert.Equal(t, "Board: 2 x 1", lot.Name)
	require.NotNil(t, lot.CalculatedVolume)
	assert.Equal(t, "0.01", lot.CalculatedVolume.String())
	assert.Equal(t, entity.LotStatusInStock, lot.Status)
	assert.Equal(t, "tpl-board|wh-1||Board: 2 x 1", lot.CompositeKey)
	assert.NotNil(t, lot.ActualArrival)

	got, err := uc.GetLot(context.Background(), lot.ID)
	require.NoError(t, err)
	assert.Equal(t, "0.01", got.CalculatedVolume.String())
}

func TestCreateLot_ValidaContraElEsquema(t *testing.T) {
	uc := newLotUC(newStore(t), logger.Nop())
	ctx := context.Background()

	_, err := uc.CreateLot(ctx, "u", dto.CreateLotRequest{
		TemplateID: "tpl-board", WarehouseID: "wh-1",
		Attributes: attribute.Map{"length": num("2")},
		Quantity:   dec("1"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "falta width obligatorio")

	_, err = uc.CreateLot(ctx, "u", dto.CreateLotRequest{
		TemplateID: "tpl-board", WarehouseID: "wh-1",
		Attributes: attribute.Map{"length": num("2"), "width": attribute.TextValue("ancho")},
		Quantity:   dec("1"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "width debe ser numérico")

	_, err = uc.CreateLot(ctx, "u", dto.CreateLotRequest{TemplateID: "nope", WarehouseID: "wh-1", Quantity: dec("1")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.CreateLot(ctx, "u", dto.CreateLotRequest{TemplateID: "tpl-board", WarehouseID: "wh-1", Status: entity.LotStatusCancelled})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateLot_DesbordeRegistraAdvertencia(t *testing.T) {
	var buf bytes.Buffer
	log := logger.FromZerolog(zerolog.New(&buf))
	uc := newLotUC(newStore(t), log)

	lot, err := uc.CreateLot(context.Background(), "u", dto.CreateLotRequest{
		TemplateID: "tpl-board", WarehouseID: "wh-1",
		Attributes: attribute.Map{"length": num("1000000"), "width": num("1000000")},
		Quantity:   dec("100000"),
	})
	require.NoError(t, err)

	assert.Nil(t, lot.CalculatedVolume)
	assert.Equal(t, domaininv.VolumeHintOutOfRange, lot.VolumeHint)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), lot.ID)
	assert.Contains(t, buf.String(), `"component":"lots"`)
}

func TestReceipt_CorreccionYRevision(t *testing.T) {
	uc := newLotUC(newStore(t), logger.Nop())
	ctx := context.Background()

	lots, err := uc.CreateReceipt(ctx, "u", dto.CreateReceiptRequest{
		WarehouseID: "wh-1",
		Items: []dto.ReceiptItem{
			{TemplateID: "tpl-board", Attributes: attribute.Map{"length": attribute.TextValue("2,5"), "width": num("2")}, Quantity: dec("4")},
			{TemplateID: "tpl-board", Attributes: attribute.Map{"length": num("1"), "width": num("1")}},
		},
		ShippingInfo: dto.ShippingInfo{TransportNumber: "TR-77"},
	})
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, entity.LotStatusInTransit, lots[0].Status)
	assert.Equal(t, "TR-77", lots[0].TransportNumber)
	assert.Equal(t, "0.02", lots[0].CalculatedVolume.String())
	assert.Equal(t, "1", lots[1].Quantity.String(), "cantidad cero pasa a 1")

	corrected, err := uc.AddCorrection(ctx, lots[0].ID, dto.CorrectionRequest{Correction: "llegaron 3 piezas"})
	require.NoError(t, err)
	assert.Equal(t, entity.LotStatusInStock, corrected.Status)
	assert.Equal(t, entity.CorrectionStatusCorrection, corrected.CorrectionStatus)
	assert.NotNil(t, corrected.ActualArrival)

	revised, err := uc.ConfirmCorrection(ctx, lots[0].ID)
	require.NoError(t, err)
	assert.Equal(t, entity.CorrectionStatusRevised, revised.CorrectionStatus)
	require.NotNil(t, revised.RevisedAt)

	_, err = uc.ConfirmCorrection(ctx, lots[0].ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	again, err := uc.GetLot(ctx, lots[0].ID)
	require.NoError(t, err)
	assert.Equal(t, revised.RevisedAt.UnixNano(), again.RevisedAt.UnixNano(), "sin mutación tras el rechazo")
}

func TestAddCorrection_ConNuevosDatosRecalcula(t *testing.T) {
	uc := newLotUC(newStore(t), logger.Nop())
	ctx := context.Background()
	lot := createLot(t, uc, "5")

	q := dec("3")
	out, err := uc.AddCorrection(ctx, lot.ID, dto.CorrectionRequest{
		Correction: "medidas reales",
		Attributes: attribute.Map{"length": num("4"), "width": num("1")},
		Quantity:   &q,
	})
	require.NoError(t, err)

	assert.Equal(t, "Board: 4 x 1", out.Name)
	assert.Equal(t, "0.012", out.CalculatedVolume.String())
	assert.Equal(t, "3", out.Quantity.String())
}

func TestReceivingFlow_DesdePedido(t *testing.T) {
	uc := newLotUC(newStore(t), logger.Nop())
	ctx := context.Background()

	lot, err := uc.CreateLot(ctx, "u", dto.CreateLotRequest{
		TemplateID: "tpl-board", WarehouseID: "wh-1", Status: entity.LotStatusOrdered,
		Attributes: attribute.Map{"length": num("2"), "width": num("1")}, Quantity: dec("1"),
	})
	require.NoError(t, err)

	_, err = uc.Receive(ctx, lot.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = uc.Ship(ctx, lot.ID)
	require.NoError(t, err)
	arrived, err := uc.MarkArrived(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.LotStatusForReceipt, arrived.Status)
	received, err := uc.Receive(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.LotStatusInStock, received.Status)

	_, err = uc.Cancel(ctx, lot.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	require.NoError(t, uc.Deactivate(ctx, lot.ID))
	got, err := uc.GetLot(ctx, lot.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestUpdateLot_RecalculaYRespetaVendido(t *testing.T) {
	store := newStore(t)
	uc := newLotUC(store, logger.Nop())
	ledger := inventory.NewLedgerUseCase(store, store.Lots(), store.Movements(), logger.Nop(), 3)
	ctx := context.Background()
	lot := createLot(t, uc, "10")

	_, err := ledger.DecreaseStock(ctx, inventory.StockChangeInput{LotID: lot.ID, Quantity: dec("6")})
	require.NoError(t, err)

	q := dec("5")
	_, err = uc.UpdateLot(ctx, lot.ID, dto.UpdateLotRequest{Quantity: &q})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	q = dec("20")
	out, err := uc.UpdateLot(ctx, lot.ID, dto.UpdateLotRequest{Quantity: &q})
	require.NoError(t, err)
	assert.Equal(t, "0.04", out.CalculatedVolume.String())
	assert.Equal(t, "14", out.Available.String())
}

func TestPreview_ToleraFormularioIncompleto(t *testing.T) {
	uc := newLotUC(newStore(t), logger.Nop())

	out, err := uc.Preview(context.Background(), "tpl-board", dto.PreviewRequest{
		Attributes: attribute.Map{"length": num("2"), "species": num("1")},
		Quantity:   dec("5"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Board: 2, oak", out.Name)
	assert.Nil(t, out.CalculatedVolume)
	assert.Equal(t, domaininv.VolumeHintFillNumeric, out.VolumeHint)
}

func TestEvaluateFormula_ValoresCrudos(t *testing.T) {
	uc := newLotUC(newStore(t), logger.Nop())
	q := dec("5")

	ok := uc.EvaluateFormula(dto.EvaluateFormulaRequest{
		Formula:    "length * width * quantity / 1000",
		Attributes: map[string]any{"length": "2,0", "width": float64(1)},
		Quantity:   &q,
	})
	require.True(t, ok.Success)
	assert.Equal(t, "0.01", ok.Result.String())
	assert.Equal(t, []string{"length", "width", "quantity"}, ok.Variables)

	bad := uc.EvaluateFormula(dto.EvaluateFormulaRequest{Formula: "length / 0", Attributes: map[string]any{"length": 1}})
	assert.False(t, bad.Success)
	assert.Equal(t, "division_by_zero", bad.ErrorKind)
	assert.Nil(t, bad.Result)
}
