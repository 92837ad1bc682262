package firestore

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jhoicas/stock-sucursales/internal/domain"
)

var domainErrors = []error{
	domain.ErrNotFound, domain.ErrInvalidInput, domain.ErrDuplicate, domain.ErrUnauthorized,
	domain.ErrForbidden, domain.ErrConflict, domain.ErrInsufficientStock, domain.ErrPeriodClosed,
	domain.ErrBackendUnavailable,
}

// mapError traduce códigos gRPC de Firestore a errores de dominio. Los errores de dominio
// devueltos por el callback de una transacción pasan sin cambios.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return err
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case codes.Aborted, codes.AlreadyExists, codes.FailedPrecondition:
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Unauthenticated:
		return fmt.Errorf("%s: %v: %w", op, err, domain.ErrBackendUnavailable)
	case codes.Canceled:
		return fmt.Errorf("%s: %w", op, context.Canceled)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
