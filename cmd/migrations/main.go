package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	_ "github.com/lib/pq"
	"github.com/vncsmyrnk/featurepoll/internal/config"
)

const migrationsDir = "internal/adapters/repository/postgres/migrations"

// Usage: migrations <name>   runs the single file matching name (e.g. "create_polls.up")
//
//	migrations up      runs every *.up.sql file in order
func main() {
	if len(os.Args) < 2 {
		log.Fatal("a migration name is required.")
	}
	migrationName := os.Args[1]

	if err := config.LoadEnv(); err != nil {
		log.Fatal(err)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}

	db, err := sql.Open("postgres", cfg.Postgres.ConnString())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	basePath := filepath.FromSlash(migrationsDir)

	var files []string
	if migrationName == "up" {
		files, err = upMigrations(basePath)
	} else {
		var f string
		f, err = migrationFilePath(basePath, migrationName)
		files = []string{f}
	}
	if err != nil {
		log.Fatal(err)
	}

	for _, f := range files {
		content, err := os.ReadFile(filepath.Join(basePath, f))
		if err != nil {
			log.Fatal(err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			log.Fatalf("Failed to execute SQL file %s: %v", f, err)
		}
		fmt.Printf("Migration %s executed successfully.\n", f)
	}
}

func upMigrations(basePath string) ([]string, error) {
	entries, err := os.ReadDir(basePath)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func migrationFilePath(basePath string, migrationName string) (string, error) {
	regex, err := regexp.Compile(fmt.Sprintf(`^.*%s\.sql$`, regexp.QuoteMeta(migrationName)))
	if err != nil {
		return "", fmt.Errorf("invalid pattern: %w", err)
	}

	files, err := os.ReadDir(basePath)
	if err != nil {
		return "", err
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		if regex.MatchString(f.Name()) {
			return f.Name(), nil
		}
	}

	return "", fmt.Errorf("migration file not found")
}
