package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"twilio-functions-utils/internal/config"
	"twilio-functions-utils/internal/migration"
	"twilio-functions-utils/internal/syncstore"
	"twilio-functions-utils/pkg/runtime"
)

func main() {
	var (
		dbPath   = flag.String("db", config.GetEnv("SYNC_DB_PATH", config.DefaultSyncDBPath), "Sync database file path")
		jsonPath = flag.String("json", "./seed", "Seed JSON files directory path")
		service  = flag.String("service", runtime.DefaultSyncService, "Sync service to import into")
		action   = flag.String("action", "import", "Action: import, validate, check")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	absDBPath, err := filepath.Abs(*dbPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to get absolute database path")
	}

	absJSONPath, err := filepath.Abs(*jsonPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to get absolute JSON path")
	}

	logger.WithFields(logrus.Fields{
		"db_path":   absDBPath,
		"json_path": absJSONPath,
		"service":   *service,
		"action":    *action,
	}).Info("Starting Sync import tool")

	if *action == "check" {
		if err := checkSeedFiles(migration.NewJSONImporter(nil, nil, absJSONPath, *service, logger), absJSONPath); err != nil {
			logger.WithError(err).Fatal("Failed to check seed files")
		}
		return
	}

	store, err := syncstore.Open(&syncstore.Config{Path: absDBPath, Logger: logger})
	if err != nil {
		logger.WithError(err).Fatal("Failed to open sync store")
	}
	defer store.Close()

	importer := migration.NewJSONImporter(store, nil, absJSONPath, *service, logger)
	ctx := context.Background()

	switch *action {
	case "import":
		result, err := importer.Import(ctx)
		if err != nil {
			logger.WithError(err).Fatal("Import failed")
		}
		fmt.Printf("Imported %d documents, %d map items, %d list items\n",
			result.DocumentsProcessed, result.MapItemsProcessed, result.ListItemsProcessed)
		for _, warning := range result.Warnings {
			fmt.Printf("  warning: %s\n", warning)
		}
	case "validate":
		if err := importer.Validate(ctx); err != nil {
			logger.WithError(err).Fatal("Validation failed")
		}
		fmt.Println("Every seed file has a matching Sync resource")
	default:
		logger.WithField("action", *action).Fatal("Unknown action. Use: import, validate, check")
	}
}

func checkSeedFiles(importer *migration.JSONImporter, dir string) error {
	files, err := importer.SeedFiles()
	if err != nil {
		return err
	}

	if len(files) == 0 {
		fmt.Printf("No seed files found in %s\n", dir)
		return nil
	}

	fmt.Printf("Found %d seed files:\n", len(files))
	for _, file := range files {
		fmt.Printf("  %s\n", file)
	}
	return nil
}
