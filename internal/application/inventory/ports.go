package inventory

import (
	"context"

	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace rollback; si no, commit. Un fallo de serialización o deadlock
// se devuelve envuelto en domain.ErrConflict.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		lotRepo repository.LotRepository,
		saleRepo repository.SaleRepository,
		movRepo repository.LotMovementRepository,
	) error) error
}
