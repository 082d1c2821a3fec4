package inventory

import (
	"context"
	"errors"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/pkg/logger"
)

// WithRetry ejecuta fn hasta attempts veces mientras devuelva domain.ErrConflict
// (fallo de serialización o deadlock). Cualquier otro resultado se devuelve de inmediato.
func WithRetry(ctx context.Context, log *logger.Logger, attempts int, op string, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 1; i <= attempts; i++ {
		err = fn()
		if err == nil || !errors.Is(err, domain.ErrConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.Debug().Str("operacion", op).Int("intento", i).Err(err).Msg("conflicto de concurrencia, reintentando")
	}
	log.Warn().Str("operacion", op).Int("intentos", attempts).Err(err).Msg("reintentos agotados")
	return err
}
