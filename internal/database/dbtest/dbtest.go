//go:build integration

// Package dbtest opens a migrated postgres database for integration tests.
package dbtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"orderdesk/internal/database"
)

// EnvURL points the tests at an existing database instead of a container.
const EnvURL = "ORDERDESK_TEST_DATABASE_URL"

// Open returns a migrated connection. It uses EnvURL when set and starts a
// postgres container otherwise.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	dsn := os.Getenv(EnvURL)
	if dsn == "" {
		container, err := tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("orderdesk_test"),
			tcpostgres.WithUsername("orderdesk"),
			tcpostgres.WithPassword("orderdesk"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
		if err != nil {
			t.Fatalf("start postgres container: %v", err)
		}
		t.Cleanup(func() {
			if err := container.Terminate(ctx); err != nil {
				t.Logf("terminate container: %v", err)
			}
		})

		if dsn, err = container.ConnectionString(ctx, "sslmode=disable"); err != nil {
			t.Fatalf("get connection string: %v", err)
		}
	}

	db, err := database.NewConnection(dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}
