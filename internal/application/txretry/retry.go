// Package txretry reintenta operaciones transaccionales que fallan por conflicto de concurrencia.
package txretry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jhoicas/obrador-api/internal/domain"
)

// Do ejecuta fn y la repite mientras devuelva domain.ErrTransactionConflict, hasta retries
// reintentos adicionales. Cualquier otro error corta de inmediato.
func Do(ctx context.Context, retries int, fn func() error) error {
	if retries < 0 {
		retries = 0
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
	return backoff.Retry(func() error {
		err := fn()
		if err == nil || errors.Is(err, domain.ErrTransactionConflict) {
			return err
		}
		return backoff.Permanent(err)
	}, policy)
}
