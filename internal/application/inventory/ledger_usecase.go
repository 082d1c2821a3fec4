package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-lotes/internal/application/dto"
	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/inventory"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
	"github.com/jhoicas/inventario-lotes/pkg/logger"
)

// LedgerUseCase libro de stock por lote: disminuye y aumenta SoldQuantity dentro de una
// transacción con bloqueo de fila (SELECT FOR UPDATE) y registra cada cambio.
type LedgerUseCase struct {
	txRunner   TxRunner
	lotRepo    repository.LotRepository
	movRepo    repository.LotMovementRepository
	log        *logger.Logger
	maxRetries int
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(
	txRunner TxRunner,
	lotRepo repository.LotRepository,
	movRepo repository.LotMovementRepository,
	log *logger.Logger,
	maxRetries int,
) *LedgerUseCase {
	return &LedgerUseCase{
		txRunner:   txRunner,
		lotRepo:    lotRepo,
		movRepo:    movRepo,
		log:        log.Component("ledger"),
		maxRetries: maxRetries,
	}
}

// StockChangeInput entrada para DecreaseStock / IncreaseStock.
type StockChangeInput struct {
	LotID    string
	Quantity decimal.Decimal
	UserID   string
}

// DecreaseStock descuenta del disponible. ErrInsufficientStock si no alcanza.
func (uc *LedgerUseCase) DecreaseStock(ctx context.Context, input StockChangeInput) (*dto.LotResponse, error) {
	return uc.change(ctx, input, "disminuir stock", func(lotRepo repository.LotRepository, movRepo repository.LotMovementRepository, lot *entity.InventoryLot, now time.Time) error {
		return DecreaseInTx(ctx, lotRepo, movRepo, lot, input.Quantity, nil, entity.LotMovementAdjustment, input.UserID, now)
	})
}

// IncreaseStock devuelve cantidad al disponible; SoldQuantity nunca baja de cero.
func (uc *LedgerUseCase) IncreaseStock(ctx context.Context, input StockChangeInput) (*dto.LotResponse, error) {
	if !input.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: la cantidad debe ser mayor a cero", domain.ErrInvalidInput)
	}
	return uc.change(ctx, input, "aumentar stock", func(lotRepo repository.LotRepository, movRepo repository.LotMovementRepository, lot *entity.InventoryLot, now time.Time) error {
		return IncreaseInTx(ctx, lotRepo, movRepo, lot, input.Quantity, nil, entity.LotMovementAdjustment, input.UserID, now)
	})
}

func (uc *LedgerUseCase) change(
	ctx context.Context,
	input StockChangeInput,
	op string,
	apply func(repository.LotRepository, repository.LotMovementRepository, *entity.InventoryLot, time.Time) error,
) (*dto.LotResponse, error) {
	if input.LotID == "" {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.InventoryLot
	err := WithRetry(ctx, uc.log, uc.maxRetries, op, func() error {
		return uc.txRunner.Run(ctx, func(
			lotRepo repository.LotRepository,
			_ repository.SaleRepository,
			movRepo repository.LotMovementRepository,
		) error {
			lot, err := lockLot(ctx, lotRepo, input.LotID)
			if err != nil {
				return err
			}
			if err := apply(lotRepo, movRepo, lot, time.Now()); err != nil {
				return err
			}
			out = lot
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return dto.LotFromEntity(out, ""), nil
}

// AvailableQuantity disponible actual del lote (lectura sin bloqueo).
func (uc *LedgerUseCase) AvailableQuantity(ctx context.Context, lotID string) (*dto.AvailableResponse, error) {
	lot, err := uc.lotRepo.GetByID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, domain.ErrNotFound
	}
	return &dto.AvailableResponse{LotID: lot.ID, Available: inventory.Available(lot)}, nil
}

// ListMovements movimientos del libro de un lote, más recientes primero.
func (uc *LedgerUseCase) ListMovements(ctx context.Context, lotID string, page dto.PageRequest) ([]dto.LotMovementResponse, error) {
	page.DefaultPage()
	list, err := uc.movRepo.ListByLot(ctx, lotID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LotMovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, dto.MovementFromEntity(m))
	}
	return out, nil
}

// DecreaseInTx descuenta qty de un lote ya bloqueado por el llamador, usando los repositorios
// de su transacción, y registra el movimiento.
func DecreaseInTx(
	ctx context.Context,
	lotRepo repository.LotRepository,
	movRepo repository.LotMovementRepository,
	lot *entity.InventoryLot,
	qty decimal.Decimal,
	saleID *string,
	movType, userID string,
	now time.Time,
) error {
	if err := inventory.Decrease(lot, qty); err != nil {
		return err
	}
	return persistChange(ctx, lotRepo, movRepo, lot, qty.Neg(), saleID, movType, userID, now)
}

// IncreaseInTx devuelve qty a un lote ya bloqueado por el llamador.
func IncreaseInTx(
	ctx context.Context,
	lotRepo repository.LotRepository,
	movRepo repository.LotMovementRepository,
	lot *entity.InventoryLot,
	qty decimal.Decimal,
	saleID *string,
	movType, userID string,
	now time.Time,
) error {
	before := lot.SoldQuantity
	inventory.Increase(lot, qty)
	restored := before.Sub(lot.SoldQuantity)
	if restored.IsZero() {
		return nil
	}
	return persistChange(ctx, lotRepo, movRepo, lot, restored, saleID, movType, userID, now)
}

func persistChange(
	ctx context.Context,
	lotRepo repository.LotRepository,
	movRepo repository.LotMovementRepository,
	lot *entity.InventoryLot,
	delta decimal.Decimal,
	saleID *string,
	movType, userID string,
	now time.Time,
) error {
	lot.UpdatedAt = now
	if err := lotRepo.Update(ctx, lot); err != nil {
		return err
	}
	return movRepo.Create(ctx, &entity.LotMovement{
		ID:        uuid.New().String(),
		LotID:     lot.ID,
		SaleID:    saleID,
		Type:      movType,
		Quantity:  delta,
		SoldAfter: lot.SoldQuantity,
		CreatedAt: now,
		CreatedBy: userID,
	})
}

// lockLot bloquea la fila del lote o devuelve ErrNotFound.
func lockLot(ctx context.Context, lotRepo repository.LotRepository, id string) (*entity.InventoryLot, error) {
	lot, err := lotRepo.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, fmt.Errorf("%w: lote %s", domain.ErrNotFound, id)
	}
	return lot, nil
}
