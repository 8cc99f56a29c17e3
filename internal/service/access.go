package service

import (
	"context"
	"errors"
	"fmt"

	"redeemly/internal/model"
	"redeemly/internal/repository"
)

// authorizeStore checks that who may manage storeID. Admins manage every
// store; merchants only the stores they own.
func authorizeStore(ctx context.Context, stores repository.StoreRepository, who model.Identity, storeID string) error {
	if storeID == "" {
		return model.ErrStoreNotFound
	}

	store, err := stores.GetByID(ctx, storeID)
	if err != nil {
		return fmt.Errorf("failed to get store: %w", err)
	}
	if store == nil {
		return model.ErrStoreNotFound
	}

	if who.IsAdmin() {
		return nil
	}
	if who.Role == model.RoleMerchant && store.MerchantID == who.Subject {
		return nil
	}

	return model.ErrForbidden
}

func isDomainError(err error) bool {
	var domainErr *model.DomainError
	return errors.As(err, &domainErr)
}
