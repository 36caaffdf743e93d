// Command migrations runs one SQL file from the postgres migrations directory
// against DATABASE_URL, e.g. `migrations create_accounts.up`.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/vncsmyrnk/tokenauth/internal/logger"
)

type migrationConfig struct {
	Env           string `env:"ENV" env-default:"local"`
	DatabaseURL   string `env:"DATABASE_URL" env-required:"true"`
	MigrationsDir string `env:"MIGRATIONS_DIR"`
}

func main() {
	_ = godotenv.Load()

	var cfg migrationConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env)

	if len(os.Args) < 2 {
		log.Error("a migration name is required")
		os.Exit(2)
	}
	migrationName := os.Args[1]

	basePath := cfg.MigrationsDir
	if basePath == "" {
		basePath = filepath.Join(".", "internal", "adapters", "repository", "postgres", "migrations")
	}

	fileContent, err := migrationFileContent(basePath, migrationName)
	if err != nil {
		log.Error("failed to read migration", slog.String("name", migrationName), slog.String("err", err.Error()))
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to open database", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := db.ExecContext(ctx, string(fileContent)); err != nil {
		log.Error("failed to execute migration", slog.String("name", migrationName), slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("migration executed", slog.String("name", migrationName))
}

func migrationFileContent(basePath string, migrationName string) ([]byte, error) {
	fileName, err := migrationFileName(basePath, migrationName)
	if err != nil {
		return nil, err
	}

	return os.ReadFile(filepath.Join(basePath, fileName))
}

// migrationFileName returns the first .sql file in basePath whose name ends
// with migrationName.
func migrationFileName(basePath string, migrationName string) (string, error) {
	regex := regexp.MustCompile(fmt.Sprintf(`^.*%s\.sql$`, regexp.QuoteMeta(migrationName)))

	files, err := os.ReadDir(basePath)
	if err != nil {
		return "", fmt.Errorf("failed to read migrations directory: %w", err)
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		if regex.MatchString(f.Name()) {
			return f.Name(), nil
		}
	}

	return "", fmt.Errorf("migration %q not found in %s", migrationName, basePath)
}
