package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"redeemly/internal/model"
	"redeemly/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// storeService implements StoreService.
type storeService struct {
	stores repository.StoreRepository
	logger zerolog.Logger
}

// NewStoreService creates a new store service.
func NewStoreService(stores repository.StoreRepository, logger zerolog.Logger) StoreService {
	return &storeService{
		stores: stores,
		logger: logger.With().Str("service", "store").Logger(),
	}
}

// Create implements StoreService.
func (s *storeService) Create(ctx context.Context, req model.CreateStoreRequest) (*model.Store, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	}

	store := &model.Store{
		ID:         id,
		Name:       strings.TrimSpace(req.Name),
		MerchantID: strings.TrimSpace(req.MerchantID),
		IsActive:   true,
		CreatedAt:  time.Now().UTC(),
	}

	if store.Name == "" || store.MerchantID == "" {
		return nil, model.NewValidationError("name and merchantId are required")
	}

	if err := s.stores.Create(ctx, store); err != nil {
		if isDomainError(err) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("store_id", id).Msg("failed to create store")
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	s.logger.Info().Str("store_id", id).Str("merchant_id", store.MerchantID).Msg("store created")

	return store, nil
}

// GetByID implements StoreService.
func (s *storeService) GetByID(ctx context.Context, id string) (*model.Store, error) {
	store, err := s.stores.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("store_id", id).Msg("failed to get store by ID")
		return nil, fmt.Errorf("failed to get store: %w", err)
	}

	if store == nil {
		return nil, model.ErrStoreNotFound
	}

	return store, nil
}

// List implements StoreService.
func (s *storeService) List(ctx context.Context) ([]model.Store, error) {
	stores, err := s.stores.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list stores")
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}

	return stores, nil
}
