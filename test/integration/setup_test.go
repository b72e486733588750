package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/uci-core/uci-server/internal/platform/db"
)

// pool is the package-level test database, initialized once in TestMain.
var pool *pgxpool.Pool

// TestMain connects to the database named by TEST_DATABASE_URL and applies
// the migrations. Without the variable the whole package is skipped, so the
// unit suite stays runnable anywhere.
func TestMain(m *testing.M) {
	connStr := os.Getenv("TEST_DATABASE_URL")
	if connStr == "" {
		fmt.Fprintln(os.Stderr, "TEST_DATABASE_URL not set; skipping integration tests")
		os.Exit(0)
	}

	ctx := context.Background()
	p, err := pgxpool.New(ctx, connStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create pool: %v\n", err)
		os.Exit(1)
	}
	if err := p.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ping database: %v\n", err)
		os.Exit(1)
	}

	migrator := db.NewMigrator(p, findMigrationsDir())
	if _, err := migrator.Up(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		os.Exit(1)
	}

	pool = p
	code := m.Run()
	p.Close()
	os.Exit(code)
}

func findMigrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

// resetDB wipes mutable rows between tests. Beds are seeded by migration,
// so they are reset rather than truncated.
func resetDB(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := pool.Exec(ctx, `TRUNCATE pases, cultivos, pacientes, medicos, roles`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
	_, err = pool.Exec(ctx,
		`UPDATE camas SET disponible = TRUE, fecha_asignacion = NULL, fecha_liberacion = NULL`)
	if err != nil {
		t.Fatalf("reset camas: %v", err)
	}
}
