package cart

import (
	"context"
	"errors"
	"fmt"

	"healthmall/internal/domain"
	"healthmall/internal/gateway/catalog"
	cartrepo "healthmall/internal/repository/cart"
)

type catalogGateway interface {
	Package(ctx context.Context, id int64) (*catalog.Package, error)
}

type locationGateway interface {
	NeedsLocation(ctx context.Context, userID int64) (bool, error)
}

// Service owns cart mutations for both guests and logged-in users. The
// actor decides which store a call lands on; guests live in the ephemeral
// token-keyed store, users in the durable one.
type Service struct {
	users        cartrepo.Store
	guests       cartrepo.Store
	catalog      catalogGateway
	location     locationGateway
	requireLogin bool
}

func New(users, guests cartrepo.Store, catalogGw catalogGateway, locationGw locationGateway, requireLogin bool) *Service {
	return &Service{
		users:        users,
		guests:       guests,
		catalog:      catalogGw,
		location:     locationGw,
		requireLogin: requireLogin,
	}
}

// AddInput adds quantity of a package to the actor's cart.
type AddInput struct {
	PackageID      int64
	Quantity       int
	SamplerID      *int64
	SamplingMethod domain.SamplingMethod
}

func (s *Service) Add(ctx context.Context, actor domain.Actor, in AddInput) error {
	if in.Quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	if in.PackageID <= 0 {
		return fmt.Errorf("package id required")
	}
	if !actor.IsUser() && s.requireLogin {
		return domain.ErrLoginRequired
	}
	store, ownerKey, err := s.storeFor(actor)
	if err != nil {
		return err
	}
	return store.Upsert(ctx, ownerKey, cartrepo.UpsertInput{
		PackageID:      in.PackageID,
		Quantity:       in.Quantity,
		SamplerID:      in.SamplerID,
		SamplingMethod: in.SamplingMethod,
	})
}

// List returns the actor's cart enriched with current catalog data. Prices
// here follow the catalog; they are frozen only at checkout. Packages that
// have dropped off the shelf stay listed so the client can prompt removal.
func (s *Service) List(ctx context.Context, actor domain.Actor) ([]domain.CartItem, error) {
	store, ownerKey, err := s.storeFor(actor)
	if err != nil {
		return nil, err
	}
	lines, err := store.Lines(ctx, ownerKey)
	if err != nil {
		return nil, err
	}

	items := make([]domain.CartItem, 0, len(lines))
	for _, line := range lines {
		item := domain.CartItem{CartLine: line}
		pkg, err := s.catalog.Package(ctx, line.PackageID)
		switch {
		case err == nil:
			item.PackageName = pkg.Name
			item.PackagePrice = pkg.Price
			item.Thumbnail = pkg.Thumbnail
			item.OnShelf = true
		case errors.Is(err, domain.ErrPackageUnavailable):
			item.OnShelf = false
		default:
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// UpdateInput mutates one cart line; a quantity of zero or below removes it.
type UpdateInput struct {
	Quantity       *int
	SamplerID      *int64
	SamplingMethod *domain.SamplingMethod
}

func (s *Service) Update(ctx context.Context, actor domain.Actor, lineID string, in UpdateInput) error {
	store, ownerKey, err := s.storeFor(actor)
	if err != nil {
		return err
	}
	return store.Update(ctx, ownerKey, lineID, cartrepo.UpdateInput{
		Quantity:       in.Quantity,
		SamplerID:      in.SamplerID,
		SamplingMethod: in.SamplingMethod,
	})
}

func (s *Service) Remove(ctx context.Context, actor domain.Actor, lineID string) error {
	store, ownerKey, err := s.storeFor(actor)
	if err != nil {
		return err
	}
	return store.Remove(ctx, ownerKey, lineID)
}

func (s *Service) RemoveMany(ctx context.Context, actor domain.Actor, lineIDs []string) error {
	if len(lineIDs) == 0 {
		return nil
	}
	store, ownerKey, err := s.storeFor(actor)
	if err != nil {
		return err
	}
	return store.RemoveMany(ctx, ownerKey, lineIDs)
}

func (s *Service) Clear(ctx context.Context, actor domain.Actor) error {
	store, ownerKey, err := s.storeFor(actor)
	if err != nil {
		return err
	}
	return store.Clear(ctx, ownerKey)
}

// MergeGuestIntoUser folds a guest cart into the user's cart at login,
// summing quantities for packages present on both sides, then deletes the
// guest cart. Calling it again with an already-cleared guest cart is a
// no-op, so a merge racing TTL expiry is benign.
func (s *Service) MergeGuestIntoUser(ctx context.Context, guestToken string, userID int64) error {
	if guestToken == "" || userID <= 0 {
		return nil
	}
	lines, err := s.guests.Lines(ctx, guestToken)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}

	userKey := domain.UserActor(userID).OwnerKey()
	for _, line := range lines {
		err := s.users.Upsert(ctx, userKey, cartrepo.UpsertInput{
			PackageID:      line.PackageID,
			Quantity:       line.Quantity,
			SamplerID:      line.SamplerID,
			SamplingMethod: line.SamplingMethod,
		})
		if err != nil {
			return err
		}
	}
	return s.guests.Clear(ctx, guestToken)
}

// Status is a side-effect-free read combining the cart count with the
// location check, telling the client what stands between it and checkout.
func (s *Service) Status(ctx context.Context, actor domain.Actor) (*domain.CartStatus, error) {
	store, ownerKey, err := s.storeFor(actor)
	if err != nil {
		return nil, err
	}
	count, err := store.Count(ctx, ownerKey)
	if err != nil {
		return nil, err
	}

	userID, isUser := actor.UserID()
	if !isUser {
		return &domain.CartStatus{
			NeedLogin:   true,
			ItemCount:   count,
			Message:     "log in to check out your cart",
			RedirectURL: "/pages/auth/login",
		}, nil
	}

	needsLocation, err := s.location.NeedsLocation(ctx, userID)
	if err != nil {
		return nil, err
	}
	status := &domain.CartStatus{
		NeedSetLocation: needsLocation,
		ItemCount:       count,
		Message:         "cart is ready for checkout",
	}
	if needsLocation {
		status.Message = "set your location so we can match a nearby testing company"
		status.RedirectURL = "/pages/user/location"
	}
	return status, nil
}

func (s *Service) storeFor(actor domain.Actor) (cartrepo.Store, string, error) {
	if actor.IsUser() {
		return s.users, actor.OwnerKey(), nil
	}
	if token, ok := actor.GuestToken(); ok {
		return s.guests, token, nil
	}
	return nil, "", domain.ErrLoginRequired
}
