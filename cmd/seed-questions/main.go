package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prepline/examroom/internal/config"
	"github.com/prepline/examroom/internal/database"
	"github.com/prepline/examroom/internal/logger"
	"github.com/prepline/examroom/internal/question"
	"github.com/prepline/examroom/internal/repository"
)

// seed-questions loads raw section payload files into the question bank.
// Each *.json file becomes one section; the file name (sans extension) is
// the section id. Payloads that do not normalize to at least one question
// are rejected.
func main() {
	var dir string
	flag.StringVar(&dir, "dir", "./seed", "Directory of section payload JSON files")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	sectionRepo := repository.NewSectionRepository(pool)

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", dir).Msg("Failed to read seed directory")
	}

	imported := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Read failed, skipping")
			continue
		}

		section, err := question.Normalize(json.RawMessage(raw), log)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Payload invalid, skipping")
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")
		name := section.Name
		if name == "" {
			name = id
		}

		if err := sectionRepo.Upsert(ctx, id, name, raw); err != nil {
			log.Error().Err(err).Str("section_id", id).Msg("Upsert failed")
			continue
		}

		fmt.Printf("Imported %s: %d questions (%d dropped)\n", id, len(section.Questions), section.Dropped)
		imported++
	}

	fmt.Printf("=== Seeded %d sections ===\n", imported)
}
