package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-lotes/internal/application/dto"
	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
	"github.com/jhoicas/inventario-lotes/internal/domain/sales"
	"github.com/jhoicas/inventario-lotes/pkg/logger"
)

// deleteReason motivo registrado cuando una venta se elimina sin cancelación previa.
const deleteReason = "venta eliminada"

// Config límites de reintento.
type Config struct {
	MaxRetries     int // fallos de serialización o deadlock
	NumberAttempts int // colisiones de número de venta
}

// SaleUseCase crea, procesa y cancela ventas. Todo cambio de stock ocurre en la misma
// transacción que el cambio de estado de la venta (orden de bloqueo: venta, luego lote).
type SaleUseCase struct {
	txRunner inventory.TxRunner
	saleRepo repository.SaleRepository
	numbers  *sales.NumberGenerator
	log      *logger.Logger
	cfg      Config
}

// NewSaleUseCase construye el caso de uso.
func NewSaleUseCase(
	txRunner inventory.TxRunner,
	saleRepo repository.SaleRepository,
	numbers *sales.NumberGenerator,
	log *logger.Logger,
	cfg Config,
) *SaleUseCase {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.NumberAttempts < 1 {
		cfg.NumberAttempts = 1
	}
	return &SaleUseCase{txRunner: txRunner, saleRepo: saleRepo, numbers: numbers, log: log.Component("sales"), cfg: cfg}
}

// CreateSale elige un lote de la clave compuesta con disponible suficiente, crea la venta y,
// salvo DeferProcessing, la procesa. Si el procesamiento falla no queda venta creada.
func (uc *SaleUseCase) CreateSale(ctx context.Context, userID string, req dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	key, err := entity.ParseLotKey(req.CompositeKey)
	if err != nil {
		return nil, err
	}
	if !req.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: la cantidad debe ser mayor a cero", domain.ErrInvalidInput)
	}
	details := sales.Details{
		Quantity:      req.Quantity,
		UnitPrice:     req.UnitPrice,
		TotalPrice:    req.TotalPrice,
		Currency:      req.Currency,
		PaymentMethod: req.PaymentMethod,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Notes:         req.Notes,
		SaleDate:      req.SaleDate,
		CreatedBy:     userID,
	}
	if _, _, err := sales.DerivePrices(details.Quantity, details.UnitPrice, details.TotalPrice); err != nil {
		return nil, err
	}

	var sale *entity.Sale
	for attempt := 0; attempt < uc.cfg.NumberAttempts; attempt++ {
		number := uc.numbers.Next(attempt)
		err = inventory.WithRetry(ctx, uc.log, uc.cfg.MaxRetries, "crear venta", func() error {
			s, txErr := uc.createInTx(ctx, key, number, details, !req.DeferProcessing)
			sale = s
			return txErr
		})
		if !errors.Is(err, domain.ErrDuplicate) {
			break
		}
		uc.log.Debug().Str("sale_number", number).Int("intento", attempt+1).Msg("número de venta duplicado, se genera otro")
	}
	if errors.Is(err, domain.ErrDuplicate) {
		uc.log.Warn().Int("intentos", uc.cfg.NumberAttempts).Msg("no se pudo generar un número de venta único")
		return nil, fmt.Errorf("%w: número de venta no disponible tras %d intentos", domain.ErrConflict, uc.cfg.NumberAttempts)
	}
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("sale_id", sale.ID).Str("sale_number", sale.Number).Str("lot_id", sale.LotID).
		Str("quantity", sale.Quantity.String()).Str("payment_status", sale.PaymentStatus).Msg("venta creada")
	return dto.SaleFromEntity(sale), nil
}

func (uc *SaleUseCase) createInTx(ctx context.Context, key entity.LotKey, number string, details sales.Details, process bool) (*entity.Sale, error) {
	var sale *entity.Sale
	err := uc.txRunner.Run(ctx, func(
		lotRepo repository.LotRepository,
		saleRepo repository.SaleRepository,
		movRepo repository.LotMovementRepository,
	) error {
		lot, err := lotRepo.FindAvailableForUpdate(ctx, key, details.Quantity)
		if err != nil {
			return err
		}
		if lot == nil {
			return fmt.Errorf("%w: no hay lote en bodega para %q con disponible %s",
				domain.ErrInsufficientStock, key.String(), details.Quantity)
		}

		now := time.Now()
		s, err := sales.New(uuid.New().String(), number, lot, details, now)
		if err != nil {
			return err
		}
		if err := saleRepo.Create(ctx, s); err != nil {
			return err
		}
		if process {
			if err := processLocked(ctx, lotRepo, saleRepo, movRepo, s, lot, now); err != nil {
				return err
			}
		}
		sale = s
		return nil
	})
	return sale, err
}

// ProcessSale procesa una venta pendiente: descuenta stock y la marca pagada.
func (uc *SaleUseCase) ProcessSale(ctx context.Context, id string) (*dto.SaleResponse, error) {
	sale, err := uc.withLockedSale(ctx, id, "procesar venta", func(
		lotRepo repository.LotRepository,
		saleRepo repository.SaleRepository,
		movRepo repository.LotMovementRepository,
		s *entity.Sale,
	) error {
		if s.PaymentStatus != entity.PaymentStatusPending {
			return fmt.Errorf("%w: la venta %s no está pendiente (%s)", domain.ErrInvalidState, s.Number, s.PaymentStatus)
		}
		lot, err := lotRepo.GetForUpdate(ctx, s.LotID)
		if err != nil {
			return err
		}
		if lot == nil {
			return fmt.Errorf("%w: lote %s", domain.ErrNotFound, s.LotID)
		}
		return processLocked(ctx, lotRepo, saleRepo, movRepo, s, lot, time.Now())
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("sale_id", sale.ID).Str("lot_id", sale.LotID).Msg("venta procesada")
	return dto.SaleFromEntity(sale), nil
}

// CancelSale cancela la venta y, si ya había descontado stock, lo devuelve. Cancelar una venta
// ya cancelada es ErrInvalidState y no toca el stock.
func (uc *SaleUseCase) CancelSale(ctx context.Context, id, reason string) (*dto.SaleResponse, error) {
	sale, err := uc.withLockedSale(ctx, id, "cancelar venta", func(
		lotRepo repository.LotRepository,
		saleRepo repository.SaleRepository,
		movRepo repository.LotMovementRepository,
		s *entity.Sale,
	) error {
		if err := cancelLocked(ctx, lotRepo, movRepo, s, reason, time.Now()); err != nil {
			return err
		}
		return saleRepo.Update(ctx, s)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("sale_id", sale.ID).Str("lot_id", sale.LotID).Msg("venta cancelada")
	return dto.SaleFromEntity(sale), nil
}

// DeleteSale elimina la venta; si no estaba cancelada, primero devuelve el stock.
func (uc *SaleUseCase) DeleteSale(ctx context.Context, id string) error {
	sale, err := uc.withLockedSale(ctx, id, "eliminar venta", func(
		lotRepo repository.LotRepository,
		saleRepo repository.SaleRepository,
		movRepo repository.LotMovementRepository,
		s *entity.Sale,
	) error {
		if s.PaymentStatus != entity.PaymentStatusCancelled {
			if err := cancelLocked(ctx, lotRepo, movRepo, s, deleteReason, time.Now()); err != nil {
				return err
			}
		}
		return saleRepo.Delete(ctx, s.ID)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("sale_id", sale.ID).Str("sale_number", sale.Number).Msg("venta eliminada")
	return nil
}

// GetSale devuelve la venta o ErrNotFound.
func (uc *SaleUseCase) GetSale(ctx context.Context, id string) (*dto.SaleResponse, error) {
	s, err := uc.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	return dto.SaleFromEntity(s), nil
}

func (uc *SaleUseCase) withLockedSale(
	ctx context.Context,
	id, op string,
	fn func(repository.LotRepository, repository.SaleRepository, repository.LotMovementRepository, *entity.Sale) error,
) (*entity.Sale, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.Sale
	err := inventory.WithRetry(ctx, uc.log, uc.cfg.MaxRetries, op, func() error {
		return uc.txRunner.Run(ctx, func(
			lotRepo repository.LotRepository,
			saleRepo repository.SaleRepository,
			movRepo repository.LotMovementRepository,
		) error {
			s, err := saleRepo.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if s == nil {
				return fmt.Errorf("%w: venta %s", domain.ErrNotFound, id)
			}
			if err := fn(lotRepo, saleRepo, movRepo, s); err != nil {
				return err
			}
			out = s
			return nil
		})
	})
	return out, err
}

// processLocked venta y lote ya bloqueados: descuenta y marca pagada.
func processLocked(
	ctx context.Context,
	lotRepo repository.LotRepository,
	saleRepo repository.SaleRepository,
	movRepo repository.LotMovementRepository,
	s *entity.Sale,
	lot *entity.InventoryLot,
	now time.Time,
) error {
	if err := inventory.DecreaseInTx(ctx, lotRepo, movRepo, lot, s.Quantity, &s.ID, entity.LotMovementSale, s.CreatedBy, now); err != nil {
		return err
	}
	if err := sales.MarkPaid(s, now); err != nil {
		return err
	}
	return saleRepo.Update(ctx, s)
}

// cancelLocked venta ya bloqueada: la cancela y devuelve stock si correspondía.
func cancelLocked(
	ctx context.Context,
	lotRepo repository.LotRepository,
	movRepo repository.LotMovementRepository,
	s *entity.Sale,
	reason string,
	now time.Time,
) error {
	restore, err := sales.MarkCancelled(s, reason, now)
	if err != nil {
		return err
	}
	if restore.IsZero() {
		return nil
	}
	lot, err := lotRepo.GetForUpdate(ctx, s.LotID)
	if err != nil {
		return err
	}
	if lot == nil {
		return fmt.Errorf("%w: lote %s", domain.ErrNotFound, s.LotID)
	}
	return inventory.IncreaseInTx(ctx, lotRepo, movRepo, lot, restore, &s.ID, entity.LotMovementSaleCancel, s.CreatedBy, now)
}
