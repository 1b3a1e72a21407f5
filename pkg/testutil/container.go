// Package testutil holds the payroll test harness: a shared PostgreSQL
// testcontainer, sqlmock wrappers, HTTP helpers and fixtures.
package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresImageEnv overrides the image the integration tests run against
const PostgresImageEnv = "SHIFTPAY_TEST_POSTGRES_IMAGE"

const (
	defaultPostgresImage = "postgres:16-alpine"
	testDatabase         = "shiftpay_test"
	testRole             = "shiftpay"
)

// PostgresContainer is a throwaway database for the payroll schema
type PostgresContainer struct {
	*postgres.PostgresContainer
	DSN string
}

// StartPostgres boots a container and returns it once it accepts
// connections. Sessions run in UTC so DATE columns round-trip unchanged.
func StartPostgres(ctx context.Context) (*PostgresContainer, error) {
	image := os.Getenv(PostgresImageEnv)
	if image == "" {
		image = defaultPostgresImage
	}

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(image),
		postgres.WithDatabase(testDatabase),
		postgres.WithUsername(testRole),
		postgres.WithPassword(testRole),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres %s: %w", image, err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable", "TimeZone=UTC")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresContainer{PostgresContainer: container, DSN: dsn}, nil
}

func (c *PostgresContainer) Connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", c.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return db, nil
}

// Truncate empties tables in one statement, so foreign key order does not matter
func (c *PostgresContainer) Truncate(ctx context.Context, db *sqlx.DB, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	stmt := "TRUNCATE TABLE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE"
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to truncate payroll tables: %w", err)
	}
	return nil
}
