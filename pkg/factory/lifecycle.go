package factory

import (
	"context"
	"errors"
	"fmt"

	"github.com/zentry-ai/zentry/pkg/types"
)

// Reset clears the backend state held by instance and returns the same instance.
// instance must implement types.Resettable, otherwise an
// *types.UnsupportedOperationError is returned. Backend failures are returned as
// a *types.ProviderError naming the provider; the backend error stays reachable
// through errors.Is and errors.As. Reset does not retry.
func Reset[T any](ctx context.Context, instance T) (T, error) {
	resettable, ok := any(instance).(types.Resettable)
	if !ok || isNil(instance) {
		return instance, &types.UnsupportedOperationError{Operation: "reset", Type: fmt.Sprintf("%T", instance)}
	}

	if err := resettable.Reset(ctx); err != nil {
		code := types.ErrCodeUnknown
		var pe *types.ProviderError
		if errors.As(err, &pe) {
			code = pe.Code
		}
		return instance, &types.ProviderError{
			Code:        code,
			Provider:    identity(instance),
			Operation:   "reset",
			OriginalErr: err,
		}
	}
	return instance, nil
}

// Reset is a convenience wrapper around the package-level Reset.
func (f *VectorStoreFactory) Reset(ctx context.Context, store types.VectorStore) (types.VectorStore, error) {
	return Reset(ctx, store)
}

func identity(instance any) string {
	if named, ok := instance.(interface{ Name() string }); ok {
		return named.Name()
	}
	return fmt.Sprintf("%T", instance)
}
