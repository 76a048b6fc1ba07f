package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/legacybooks/internal/control"
	"github.com/vietddude/legacybooks/internal/core/domain"
	"github.com/vietddude/legacybooks/internal/infra/storage"
)

var (
	rejectsEntity string
	rejectsLimit  int
)

var rejectsCmd = &cobra.Command{
	Use:   "rejects",
	Short: "List rejected legacy payloads, newest first",
	Run:   runRejects,
}

var rejectsDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a triaged rejected payload",
	Args:  cobra.ExactArgs(1),
	Run:   runRejectsDelete,
}

func init() {
	rejectsCmd.Flags().StringVar(&rejectsEntity, "entity", "", "only show listing, store or book rejects")
	rejectsCmd.Flags().IntVar(&rejectsLimit, "limit", 20, "maximum number of records")
	rejectsCmd.AddCommand(rejectsDeleteCmd)
	rootCmd.AddCommand(rejectsCmd)
}

func openRejects(ctx context.Context) storage.RejectRepository {
	cfg := loadConfig()
	repo, _, err := control.OpenRejectRepository(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open reject store", "error", err)
		os.Exit(1)
	}
	return repo
}

func runRejects(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	repo := openRejects(ctx)
	defer func() {
		_ = repo.Close()
	}()

	recs, err := repo.List(ctx, domain.Entity(rejectsEntity), rejectsLimit)
	if err != nil {
		slog.Error("Failed to list rejects", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "ID\tENTITY\tSOURCE\tKIND\tFIELD\tVALUE\tCREATED")
	for _, r := range recs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%v\t%s\n",
			r.ID, r.Entity, r.Source, r.Kind, r.Field, r.Value, r.CreatedAt.Format(time.RFC3339))
	}
	_ = w.Flush()
}

func runRejectsDelete(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	repo := openRejects(ctx)
	defer func() {
		_ = repo.Close()
	}()

	if err := repo.Delete(ctx, args[0]); err != nil {
		slog.Error("Failed to delete reject", "id", args[0], "error", err)
		os.Exit(1)
	}
	fmt.Printf("Deleted rejected record %s\n", args[0])
}
