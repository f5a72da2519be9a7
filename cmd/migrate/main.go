package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/drillmap/internal/pkg/config"
)

const migrationsDir = "migrations"

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down|status>")
	}

	cfg, err := config.Load("drillmap-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if err := ensureMigrationsTable(ctx, pool); err != nil {
		log.Fatalf("schema_migrations: %v", err)
	}

	switch os.Args[1] {
	case "up":
		runMigrations(ctx, pool)
	case "down":
		runDown(ctx, pool)
	case "status":
		printStatus(ctx, pool)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

// migrationFiles returns NNN_*.sql in lexicographic order.
func migrationFiles() []string {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "[0-9][0-9][0-9]_*.sql"))
	if err != nil {
		log.Fatalf("glob: %v", err)
	}
	sort.Strings(files)
	return files
}

func ensureMigrationsTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	return err
}

func appliedVersions(ctx context.Context, pool *pgxpool.Pool) map[string]bool {
	rows, err := pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		log.Fatalf("read applied versions: %v", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			log.Fatalf("scan version: %v", err)
		}
		seen[v] = true
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("read applied versions: %v", err)
	}
	return seen
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool) {
	applied := appliedVersions(ctx, pool)

	for _, f := range migrationFiles() {
		version := filepath.Base(f)
		if applied[version] {
			fmt.Printf("--  %s\n", f)
			continue
		}

		data, err := os.ReadFile(f)
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			log.Fatalf("begin: %v", err)
		}
		if _, err := tx.Exec(ctx, string(data)); err != nil {
			_ = tx.Rollback(ctx)
			log.Fatalf("exec %s: %v", f, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			_ = tx.Rollback(ctx)
			log.Fatalf("record %s: %v", f, err)
		}
		if err := tx.Commit(ctx); err != nil {
			log.Fatalf("commit %s: %v", f, err)
		}

		fmt.Printf("OK  %s\n", f)
	}

	log.Println("all migrations applied")
}

func runDown(ctx context.Context, pool *pgxpool.Pool) {
	f := filepath.Join(migrationsDir, "down.sql")
	data, err := os.ReadFile(f)
	if err != nil {
		log.Fatalf("read %s: %v", f, err)
	}
	if _, err := pool.Exec(ctx, string(data)); err != nil {
		log.Fatalf("exec %s: %v", f, err)
	}
	// The PostGIS extension stays; only table migrations are forgotten.
	if _, err := pool.Exec(ctx, `DELETE FROM schema_migrations WHERE version <> '001_init_extensions.sql'`); err != nil {
		log.Fatalf("reset schema_migrations: %v", err)
	}
	log.Println("tables dropped")
}

func printStatus(ctx context.Context, pool *pgxpool.Pool) {
	applied := appliedVersions(ctx, pool)
	for _, f := range migrationFiles() {
		state := "pending"
		if applied[filepath.Base(f)] {
			state = "applied"
		}
		fmt.Printf("%-8s %s\n", state, f)
	}
}
