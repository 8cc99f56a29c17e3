package integration

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"redeemly/internal/coupon"
	"redeemly/internal/database"
	"redeemly/internal/model"
	"redeemly/internal/repository"
	"redeemly/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalogue(t *testing.T, dir, name string, coupons ...model.Coupon) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gz := gzip.NewWriter(f)
	enc := json.NewEncoder(gz)
	for _, c := range coupons {
		require.NoError(t, enc.Encode(c))
	}
	require.NoError(t, gz.Close())
	return path
}

func catalogueCoupon(id, storeID string) model.Coupon {
	now := time.Now().UTC()
	return model.Coupon{
		ID:        id,
		StoreID:   storeID,
		Title:     "Catalogue coupon " + id,
		Discount:  model.Discount{Type: model.DiscountFixed, Value: 3},
		ValidFrom: now.Add(-time.Hour),
		ValidTo:   now.Add(24 * time.Hour),
		IsActive:  true,
	}
}

func TestCatalogueImport_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	CleanupDB(t, testDB.Pool)
	SeedStores(t, testDB.Pool)

	logger := zerolog.Nop()
	repos := repository.NewPostgresRepositories(testDB.Pool, logger)
	catalogue := service.NewCatalogueService(coupon.NewFileLoader(logger), repos.Coupons, logger)

	dir := t.TempDir()
	first := writeCatalogue(t, dir, "one.jsonl.gz",
		catalogueCoupon("K1", "S001"),
		catalogueCoupon("K2", "S002"),
	)
	second := writeCatalogue(t, dir, "two.jsonl.gz",
		catalogueCoupon("K2", "S002"),
		catalogueCoupon("K3", "S404"),
	)

	ctx := context.Background()
	result, err := catalogue.Import(ctx, []string{first, second})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Files)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Invalid)

	k1, err := repos.Coupons.GetByID(ctx, "K1")
	require.NoError(t, err)
	require.NotNil(t, k1)
	assert.Equal(t, int64(1), k1.Version)
	assert.NotEmpty(t, k1.QRPayload)

	// A second import is a no-op.
	result, err = catalogue.Import(ctx, []string{first})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 2, result.Skipped)
}

func TestMigrations_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	logger := zerolog.Nop()
	ctx := context.Background()

	// Up is idempotent.
	require.NoError(t, database.MigrateUp(testDB.ConnStr, logger))

	require.NoError(t, database.MigrateDown(testDB.ConnStr, logger))

	var exists bool
	err := testDB.Pool.QueryRow(ctx, "SELECT to_regclass('public.coupons') IS NOT NULL").Scan(&exists)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, database.MigrateUp(testDB.ConnStr, logger))

	err = testDB.Pool.QueryRow(ctx, "SELECT to_regclass('public.redemptions') IS NOT NULL").Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists)
}
