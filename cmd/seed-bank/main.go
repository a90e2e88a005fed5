package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/pablogaravito/psm1-exam-simulator/internal/bank"
	"github.com/pablogaravito/psm1-exam-simulator/internal/config"
	"github.com/pablogaravito/psm1-exam-simulator/internal/database"
	"github.com/pablogaravito/psm1-exam-simulator/internal/logger"
	"github.com/pablogaravito/psm1-exam-simulator/internal/model"
	"github.com/pablogaravito/psm1-exam-simulator/internal/repository"
)

func main() {
	var path string
	var dryRun bool
	flag.StringVar(&path, "file", "questions.json", "Question bank JSON file to import")
	flag.BoolVar(&dryRun, "dry-run", false, "Validate the file without writing to the database")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	raw, err := bank.NewFileLoader(path).Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Failed to read bank file")
	}

	// Parse decodes every record, so a bad question never reaches the table.
	parsed, err := bank.Parse(raw)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Bank file is invalid")
	}

	fmt.Printf("=== Importing %d questions from %s ===\n", len(parsed.Records), path)
	printCounts(parsed.CountByDifficulty())

	if dryRun {
		fmt.Println("\nDry run: nothing written.")
		return
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	repo := repository.NewQuestionRepository(pool)
	if err := repo.ReplaceAll(ctx, parsed.Records); err != nil {
		log.Fatal().Err(err).Msg("Failed to import questions")
	}

	// A running server would otherwise keep serving the previous bank.
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, cached bank not invalidated")
	} else if rdb != nil {
		defer rdb.Close()
		source := bank.NewStoreLoader(pool.Config().ConnConfig.Database, repo).Source()
		if err := bank.NewRedisCache(rdb).Del(ctx, config.CacheKey.BankPayloadKey(source)); err != nil {
			log.Warn().Err(err).Msg("Failed to invalidate cached bank")
		}
	}

	stored, err := repo.CountByDifficulty(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to verify import")
	}

	fmt.Println("\nStored:")
	printCounts(stored)
	fmt.Println("\nSeed completed!")
}

func printCounts(counts map[model.Difficulty]int) {
	for _, d := range []model.Difficulty{model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard} {
		fmt.Printf("  %-6s %d\n", d, counts[d])
	}
}
