package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietddude/legacybooks/internal/control"
)

var syncCmd = &cobra.Command{
	Use:   "sync [isbn]",
	Short: "Fetch one book with its stores and print the joined listings",
	Args:  cobra.ExactArgs(1),
	Run:   runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := context.Background()

	app, err := control.NewService(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize service", "error", err)
		os.Exit(1)
	}

	listings, err := app.SyncBook(ctx, args[0])
	_ = app.Stop(ctx)
	if err != nil {
		slog.Error("Sync failed", "isbn", args[0], "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(listings)
}
