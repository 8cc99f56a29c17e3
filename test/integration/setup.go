package integration

import (
	"context"
	"testing"
	"time"

	"redeemly/internal/database"
	"redeemly/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a migrated test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB starts a PostgreSQL container, applies the embedded migrations
// and opens a connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	if err := database.MigrateUp(connStr, zerolog.Nop()); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SeedStores inserts the stores used by the integration tests. S001 belongs
// to merchant m1 and S002 to merchant m2.
func SeedStores(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	stores := []model.Store{
		{ID: "S001", Name: "Corner Cafe", MerchantID: "m1"},
		{ID: "S002", Name: "Book Nook", MerchantID: "m2"},
	}

	for _, s := range stores {
		_, err := pool.Exec(ctx,
			"INSERT INTO stores (id, name, merchant_id, is_active) VALUES ($1, $2, $3, TRUE)",
			s.ID, s.Name, s.MerchantID,
		)
		if err != nil {
			t.Fatalf("failed to seed store %s: %v", s.ID, err)
		}
	}
}

// CleanupDB empties every table. TRUNCATE bypasses the row-level trigger
// that keeps the redemption ledger append-only.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		"TRUNCATE notifications, redemptions, coupons, stores")
	if err != nil {
		t.Fatalf("failed to clean tables: %v", err)
	}
}
