package mirror

import (
	"context"
	"errors"

	"github.com/staydesk/backend/internal/domain/shared/capability"
)

var errNotRegistered = errors.New("mirror store not registered")

// HealthCheck reads the meta collection of the store registered as
// capability.MirrorStore. The store is resolved on every call.
func HealthCheck(registry *capability.Registry) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		store, ok := capability.Lookup[Store](registry, capability.MirrorStore)
		if !ok {
			return errNotRegistered
		}
		_, err := store.GetAll(ctx, CollectionMeta)
		return err
	}
}
