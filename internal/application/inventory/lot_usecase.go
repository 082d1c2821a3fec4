package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-lotes/internal/application/dto"
	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/attribute"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/formula"
	"github.com/jhoicas/inventario-lotes/internal/domain/inventory"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
	"github.com/jhoicas/inventario-lotes/pkg/logger"
)

// LotUseCase alta, edición y flujo de recepción de lotes. Cada cambio que toca atributos
// o cantidad recalcula nombre y volumen.
type LotUseCase struct {
	txRunner     TxRunner
	lotRepo      repository.LotRepository
	templateRepo repository.TemplateRepository
	log          *logger.Logger
	maxRetries   int
}

// NewLotUseCase construye el caso de uso.
func NewLotUseCase(
	txRunner TxRunner,
	lotRepo repository.LotRepository,
	templateRepo repository.TemplateRepository,
	log *logger.Logger,
	maxRetries int,
) *LotUseCase {
	return &LotUseCase{
		txRunner:     txRunner,
		lotRepo:      lotRepo,
		templateRepo: templateRepo,
		log:          log.Component("lots"),
		maxRetries:   maxRetries,
	}
}

// EvaluateFormula vista previa de una fórmula con valores crudos del formulario.
// Nunca devuelve error: el fallo viaja en la respuesta.
func (uc *LotUseCase) EvaluateFormula(req dto.EvaluateFormulaRequest) dto.EvaluateFormulaResponse {
	qty := decimal.Zero
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	vars := inventory.NumericSubset(attribute.Normalize(req.Attributes), qty)
	names, _ := formula.Variables(req.Formula)

	res := formula.Evaluate(req.Formula, vars)
	if !res.Success() {
		out := dto.EvaluateFormulaResponse{Success: false, Error: res.Err.Error(), Variables: names}
		var fe *formula.Error
		if errors.As(res.Err, &fe) {
			out.ErrorKind = string(fe.Kind)
		}
		return out
	}
	v := res.Value
	return dto.EvaluateFormulaResponse{Success: true, Result: &v, Variables: names}
}

// Preview refresca un lote borrador sin persistir. Tolera formularios incompletos.
func (uc *LotUseCase) Preview(ctx context.Context, templateID string, req dto.PreviewRequest) (*dto.LotResponse, error) {
	tpl, err := inventory.NewTemplateCache(uc.templateRepo).Get(ctx, templateID)
	if err != nil {
		return nil, err
	}
	lot := &entity.InventoryLot{Status: entity.LotStatusOrdered, CorrectionStatus: entity.CorrectionStatusNone, IsActive: true}
	out, err := inventory.Refresh(tpl, lot, req.Attributes, req.Quantity)
	if err != nil {
		return nil, err
	}
	return dto.LotFromEntity(lot, out.Hint), nil
}

var initialStatuses = map[string]bool{
	entity.LotStatusOrdered:    true,
	entity.LotStatusInTransit:  true,
	entity.LotStatusForReceipt: true,
	entity.LotStatusInStock:    true,
}

// CreateLot da de alta un lote. Sin estado explícito entra directo a bodega.
func (uc *LotUseCase) CreateLot(ctx context.Context, userID string, req dto.CreateLotRequest) (*dto.LotResponse, error) {
	if req.TemplateID == "" || strings.TrimSpace(req.WarehouseID) == "" {
		return nil, domain.ErrInvalidInput
	}
	status := req.Status
	if status == "" {
		status = entity.LotStatusInStock
	}
	if !initialStatuses[status] {
		return nil, fmt.Errorf("%w: estado inicial inválido %q", domain.ErrInvalidInput, status)
	}

	cache := inventory.NewTemplateCache(uc.templateRepo)
	tpl, err := cache.Get(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	lot := &entity.InventoryLot{
		ID:               uuid.New().String(),
		WarehouseID:      req.WarehouseID,
		ProducerID:       req.ProducerID,
		SoldQuantity:     decimal.Zero,
		Status:           status,
		CorrectionStatus: entity.CorrectionStatusNone,
		Description:      req.Description,
		IsActive:         true,
		CreatedBy:        userID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	applyShipping(lot, req.ShippingInfo)
	if status == entity.LotStatusInStock {
		lot.ActualArrivalDate = &now
	}

	hint, err := uc.refresh(tpl, lot, req.Attributes, req.Quantity)
	if err != nil {
		return nil, err
	}
	if err := uc.lotRepo.Create(ctx, lot); err != nil {
		return nil, err
	}
	uc.log.Info().Str("lot_id", lot.ID).Str("template_id", tpl.ID).Str("status", lot.Status).Msg("lote creado")
	return dto.LotFromEntity(lot, hint), nil
}

// CreateReceipt crea en una transacción todos los lotes de una recepción, en tránsito.
func (uc *LotUseCase) CreateReceipt(ctx context.Context, userID string, req dto.CreateReceiptRequest) ([]*dto.LotResponse, error) {
	if strings.TrimSpace(req.WarehouseID) == "" || len(req.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}

	cache := inventory.NewTemplateCache(uc.templateRepo)
	now := time.Now()
	lots := make([]*entity.InventoryLot, 0, len(req.Items))
	hints := make([]string, 0, len(req.Items))
	for i, item := range req.Items {
		tpl, err := cache.Get(ctx, item.TemplateID)
		if err != nil {
			return nil, fmt.Errorf("ítem %d: %w", i+1, err)
		}
		qty := item.Quantity
		if qty.IsZero() {
			qty = decimal.NewFromInt(1)
		}
		lot := &entity.InventoryLot{
			ID:               uuid.New().String(),
			WarehouseID:      req.WarehouseID,
			ProducerID:       item.ProducerID,
			SoldQuantity:     decimal.Zero,
			Status:           entity.LotStatusInTransit,
			CorrectionStatus: entity.CorrectionStatusNone,
			Description:      item.Description,
			IsActive:         true,
			CreatedBy:        userID,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		applyShipping(lot, req.ShippingInfo)
		hint, err := uc.refresh(tpl, lot, item.Attributes, qty)
		if err != nil {
			return nil, fmt.Errorf("ítem %d: %w", i+1, err)
		}
		lots = append(lots, lot)
		hints = append(hints, hint)
	}

	err := uc.txRunner.Run(ctx, func(lotRepo repository.LotRepository, _ repository.SaleRepository, _ repository.LotMovementRepository) error {
		for _, lot := range lots {
			if err := lotRepo.Create(ctx, lot); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("warehouse_id", req.WarehouseID).Int("lotes", len(lots)).Msg("recepción registrada")
	out := make([]*dto.LotResponse, len(lots))
	for i, lot := range lots {
		out[i] = dto.LotFromEntity(lot, hints[i])
	}
	return out, nil
}

// GetLot devuelve el lote o ErrNotFound.
func (uc *LotUseCase) GetLot(ctx context.Context, id string) (*dto.LotResponse, error) {
	lot, err := uc.lotRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, domain.ErrNotFound
	}
	return dto.LotFromEntity(lot, ""), nil
}

// UpdateLot cambia atributos, cantidad o descripción y recalcula nombre y volumen.
// La cantidad nunca puede quedar por debajo de lo vendido.
func (uc *LotUseCase) UpdateLot(ctx context.Context, id string, req dto.UpdateLotRequest) (*dto.LotResponse, error) {
	cache := inventory.NewTemplateCache(uc.templateRepo)
	return uc.mutate(ctx, id, "actualizar lote", func(lot *entity.InventoryLot, _ time.Time) (string, error) {
		if req.Description != nil {
			lot.Description = *req.Description
		}
		if req.Attributes == nil && req.Quantity == nil {
			return "", nil
		}
		return uc.refreshFrom(ctx, cache, lot, req.Attributes, req.Quantity)
	})
}

// Ship ordered -> in_transit.
func (uc *LotUseCase) Ship(ctx context.Context, id string) (*dto.LotResponse, error) {
	return uc.mutate(ctx, id, "despachar lote", func(lot *entity.InventoryLot, now time.Time) (string, error) {
		return "", inventory.Ship(lot, now)
	})
}

// MarkArrived in_transit -> for_receipt.
func (uc *LotUseCase) MarkArrived(ctx context.Context, id string) (*dto.LotResponse, error) {
	return uc.mutate(ctx, id, "marcar llegada", func(lot *entity.InventoryLot, _ time.Time) (string, error) {
		return "", inventory.MarkArrived(lot)
	})
}

// Receive in_transit|for_receipt -> in_stock.
func (uc *LotUseCase) Receive(ctx context.Context, id string) (*dto.LotResponse, error) {
	return uc.mutate(ctx, id, "recibir lote", func(lot *entity.InventoryLot, now time.Time) (string, error) {
		return "", inventory.Receive(lot, now)
	})
}

// AddCorrection registra una corrección (recibiendo el lote si aún no estaba en bodega). Si la
// corrección trae atributos o cantidad, el lote se recalcula.
func (uc *LotUseCase) AddCorrection(ctx context.Context, id string, req dto.CorrectionRequest) (*dto.LotResponse, error) {
	cache := inventory.NewTemplateCache(uc.templateRepo)
	return uc.mutate(ctx, id, "registrar corrección", func(lot *entity.InventoryLot, now time.Time) (string, error) {
		if err := inventory.AddCorrection(lot, req.Correction, now); err != nil {
			return "", err
		}
		if req.Attributes == nil && req.Quantity == nil {
			return "", nil
		}
		return uc.refreshFrom(ctx, cache, lot, req.Attributes, req.Quantity)
	})
}

// ConfirmCorrection correction -> revised.
func (uc *LotUseCase) ConfirmCorrection(ctx context.Context, id string) (*dto.LotResponse, error) {
	return uc.mutate(ctx, id, "confirmar corrección", func(lot *entity.InventoryLot, now time.Time) (string, error) {
		return "", inventory.ConfirmCorrection(lot, now)
	})
}

// Cancel cancela un lote que no terminó la recepción.
func (uc *LotUseCase) Cancel(ctx context.Context, id string) (*dto.LotResponse, error) {
	return uc.mutate(ctx, id, "cancelar lote", func(lot *entity.InventoryLot, _ time.Time) (string, error) {
		return "", inventory.Cancel(lot)
	})
}

// Deactivate baja lógica del lote.
func (uc *LotUseCase) Deactivate(ctx context.Context, id string) error {
	_, err := uc.mutate(ctx, id, "desactivar lote", func(lot *entity.InventoryLot, _ time.Time) (string, error) {
		inventory.Deactivate(lot)
		return "", nil
	})
	return err
}

// mutate bloquea el lote, aplica fn y persiste, todo en una transacción con reintentos.
func (uc *LotUseCase) mutate(
	ctx context.Context,
	id, op string,
	fn func(lot *entity.InventoryLot, now time.Time) (string, error),
) (*dto.LotResponse, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	var (
		out  *entity.InventoryLot
		hint string
	)
	err := WithRetry(ctx, uc.log, uc.maxRetries, op, func() error {
		return uc.txRunner.Run(ctx, func(lotRepo repository.LotRepository, _ repository.SaleRepository, _ repository.LotMovementRepository) error {
			lot, err := lockLot(ctx, lotRepo, id)
			if err != nil {
				return err
			}
			now := time.Now()
			h, err := fn(lot, now)
			if err != nil {
				return err
			}
			lot.UpdatedAt = now
			if err := lotRepo.Update(ctx, lot); err != nil {
				return err
			}
			out, hint = lot, h
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	uc.log.Debug().Str("lot_id", out.ID).Str("operacion", op).Str("status", out.Status).
		Str("correction_status", out.CorrectionStatus).Msg("lote actualizado")
	return dto.LotFromEntity(out, hint), nil
}

// refreshFrom recalcula con los valores nuevos; los nil conservan los actuales.
func (uc *LotUseCase) refreshFrom(
	ctx context.Context,
	cache *inventory.TemplateCache,
	lot *entity.InventoryLot,
	attrs attribute.Map,
	qty *decimal.Decimal,
) (string, error) {
	tpl, err := cache.Get(ctx, lot.TemplateID)
	if err != nil {
		return "", err
	}
	if attrs == nil {
		attrs = lot.Attributes
	}
	quantity := lot.Quantity
	if qty != nil {
		quantity = *qty
	}
	return uc.refresh(tpl, lot, attrs, quantity)
}

// refresh aplica el pipeline, valida contra el esquema y registra fallos de volumen.
func (uc *LotUseCase) refresh(tpl *entity.ProductTemplate, lot *entity.InventoryLot, attrs attribute.Map, qty decimal.Decimal) (string, error) {
	// Validar sobre una copia: un error no debe dejar el lote a medio mutar.
	draft := lot.Clone()
	out, err := inventory.Refresh(tpl, draft, attrs, qty)
	if err != nil {
		return "", err
	}
	if err := tpl.ValidateAttributes(draft.Attributes, true); err != nil {
		return "", err
	}
	*lot = *draft

	switch {
	case errors.Is(out.Err, domain.ErrVolumeOutOfRange):
		uc.log.Warn().Str("lot_id", lot.ID).Str("template_id", tpl.ID).Err(out.Err).
			Msg("volumen calculado excede el máximo almacenable; se deja sin calcular")
	case out.Err != nil:
		uc.log.Warn().Str("lot_id", lot.ID).Str("template_id", tpl.ID).Str("formula", tpl.Formula).Err(out.Err).
			Msg("no se pudo calcular el volumen")
	}
	return out.Hint, nil
}

func applyShipping(lot *entity.InventoryLot, s dto.ShippingInfo) {
	lot.ShippingLocation = s.ShippingLocation
	lot.ShippingDate = s.ShippingDate
	lot.ExpectedArrivalDate = s.ExpectedArrivalDate
	lot.TransportNumber = s.TransportNumber
	lot.Notes = s.Notes
	lot.DocumentPaths = s.DocumentPaths
}
