// cmd/migrate/main.go
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"tesoreria/internal/config"
	"tesoreria/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
)

// usage: migrate [up|down|status|version]
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	db, err := sql.Open("pgx", cfg.DBConn)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		slog.Error("failed to set dialect", "error", err)
		os.Exit(1)
	}

	slog.Info("running migrations", "command", command)
	if err := goose.RunContext(context.Background(), command, db, "."); err != nil {
		slog.Error("migration failed", "command", command, "error", err)
		os.Exit(1)
	}
	slog.Info("migrations done", "command", command)
}
