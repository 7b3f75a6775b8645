package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opencaselaw/cite/internal/service"
	"github.com/opencaselaw/cite/internal/store"
)

var importDir string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import case fixture files into the database",
	Long: `Import loads case fixture files into PostgreSQL.

Each fixture is a JSON file describing one reporter volume and its cases,
including citations, redaction rules and elision rules. Redaction and
elision rules are ordered arrays; their order is preserved because it
determines the rule ids embedded in rendered pages.

Examples:
  # Import every fixture in ./fixtures
  ./cite import

  # Import from a specific directory
  ./cite import --dir /data/cases`,
	Run: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&importDir, "dir", "d", "./fixtures", "Directory containing fixture JSON files")
}

func runImport(cmd *cobra.Command, args []string) {
	// Get database URL from environment
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	// Connect to database
	log.Println("Connecting to database...")
	db, err := store.NewDB(dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	importer := service.NewImporter(store.NewIngestStore(db))

	log.Printf("Starting import from %s", importDir)
	stats, err := importer.ImportDir(ctx, importDir)
	if err != nil {
		if ctx.Err() != nil {
			log.Println("Import cancelled")
			importer.PrintSummary(stats)
			os.Exit(1)
		}
		log.Fatalf("Import failed: %v", err)
	}
	importer.PrintSummary(stats)

	if stats.Failed > 0 {
		os.Exit(1)
	}
}
