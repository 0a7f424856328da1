package store

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	pgOnce      sync.Once
	pgDB        *gorm.DB
	pgContainer *postgres.PostgresContainer
	pgSetupErr  error
)

// TestMain terminates the PostgreSQL container, if one was started
func TestMain(m *testing.M) {
	code := m.Run()

	if pgContainer != nil {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
		}
	}

	os.Exit(code)
}

// pgDSN returns an external database DSN from TEST_DB_* or starts a container
func pgDSN(ctx context.Context) (string, error) {
	if host := os.Getenv("TEST_DB_HOST"); host != "" {
		port := os.Getenv("TEST_DB_PORT")
		if port == "" {
			port = "5432"
		}
		user := os.Getenv("TEST_DB_USER")
		if user == "" {
			user = "postgres"
		}
		password := os.Getenv("TEST_DB_PASSWORD")
		if password == "" {
			password = "postgres"
		}
		name := os.Getenv("TEST_DB_NAME")
		if name == "" {
			name = "test_db"
		}
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host, port, user, password, name), nil
	}

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return "", fmt.Errorf("failed to start PostgreSQL container: %w", err)
	}
	pgContainer = container

	return container.ConnectionString(ctx, "sslmode=disable")
}

func setupPostgres() {
	ctx := context.Background()

	dsn, err := pgDSN(ctx)
	if err != nil {
		pgSetupErr = err
		return
	}

	pgDB, err = gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		pgSetupErr = fmt.Errorf("failed to connect to database: %w", err)
		return
	}

	pgSetupErr = Migrate(pgDB)
}

// initPGTestDB empties the ledger tables before each test
func initPGTestDB(t *testing.T) Store {
	err := pgDB.Exec("TRUNCATE TABLE obligations, obligation_events, key_value_store RESTART IDENTITY").Error
	require.NoError(t, err)

	return NewGormStore(pgDB)
}

// TestPostgreSQLStore runs all store tests against PostgreSQL
func TestPostgreSQLStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping PostgreSQL store tests in short mode")
	}

	pgOnce.Do(setupPostgres)
	if pgSetupErr != nil {
		t.Skipf("PostgreSQL unavailable: %v", pgSetupErr)
	}

	RunStoreTests(t, initPGTestDB)
}
