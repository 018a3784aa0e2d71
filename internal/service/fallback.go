package service

import (
	"context"
	"errors"
)

// Strategy is one way of producing a value; the chain moves on when it fails
type Strategy[T any] func(ctx context.Context) (T, error)

// firstSuccess runs strategies in order and returns the first result that
// did not fail. The returned error joins every failure when all of them do.
func firstSuccess[T any](ctx context.Context, strategies ...Strategy[T]) (T, error) {
	var zero T
	var errs []error
	for _, strategy := range strategies {
		if err := ctx.Err(); err != nil {
			return zero, errors.Join(append(errs, err)...)
		}
		v, err := strategy(ctx)
		if err == nil {
			return v, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return zero, errors.New("no strategies to run")
	}
	return zero, errors.Join(errs...)
}
