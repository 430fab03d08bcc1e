package cart

import (
	"context"

	"healthmall/internal/domain"
)

// UpsertInput adds quantity to the owner's line for a package, creating the
// line when absent.
type UpsertInput struct {
	PackageID      int64
	Quantity       int
	SamplerID      *int64
	SamplingMethod domain.SamplingMethod
}

// UpdateInput mutates a single line. A nil field is left unchanged; setting
// Quantity to zero or below deletes the line (deliberate policy, not an
// error).
type UpdateInput struct {
	Quantity       *int
	SamplerID      *int64
	SamplingMethod *domain.SamplingMethod
}

// Store is the cart storage contract. The owner key is a guest session
// token for the redis-backed store and a user id for the postgres-backed
// one. Reads of unknown or expired owners yield an empty cart, never an
// error.
type Store interface {
	Lines(ctx context.Context, ownerKey string) ([]domain.CartLine, error)
	Upsert(ctx context.Context, ownerKey string, in UpsertInput) error
	Update(ctx context.Context, ownerKey, lineID string, in UpdateInput) error
	Remove(ctx context.Context, ownerKey, lineID string) error
	RemoveMany(ctx context.Context, ownerKey string, lineIDs []string) error
	Clear(ctx context.Context, ownerKey string) error
	Count(ctx context.Context, ownerKey string) (int, error)
}
