package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietddude/legacybooks/internal/core/domain"
	"github.com/vietddude/legacybooks/internal/core/downstream"
	"github.com/vietddude/legacybooks/internal/core/transform"
)

var normalizeKind string

var normalizeCmd = &cobra.Command{
	Use:   "normalize [file|-]",
	Short: "Normalize a raw legacy payload and print the result",
	Long: `Reads a raw legacy listing, store or book payload from a file or stdin
and prints the normalized record as JSON. Invalid payloads print the
classified error and exit with status 1.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := "-"
		if len(args) == 1 {
			path = args[0]
		}
		if err := runNormalize(cmd.InOrStdin(), cmd.OutOrStdout(), domain.Entity(normalizeKind), path); err != nil {
			os.Exit(1)
		}
	},
}

func init() {
	normalizeCmd.Flags().StringVar(&normalizeKind, "kind", string(domain.EntityBook), "payload kind: listing, store or book")
	rootCmd.AddCommand(normalizeCmd)
}

// errorOutput is the printed form of a classified failure.
type errorOutput struct {
	Kind    downstream.Kind    `json:"kind"`
	Message string             `json:"message"`
	Cause   string             `json:"cause,omitempty"`
	Context downstream.Context `json:"context,omitempty"`
}

func runNormalize(stdin io.Reader, out io.Writer, entity domain.Entity, path string) error {
	var payload []byte
	var err error
	if path == "-" {
		payload, err = io.ReadAll(stdin)
	} else {
		payload, err = os.ReadFile(path)
	}
	if err != nil {
		_, _ = fmt.Fprintf(out, "failed to read payload: %v\n", err)
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	result, err := transform.Normalize(entity, payload)
	if err != nil {
		de, ok := downstream.As(err)
		if !ok {
			_, _ = fmt.Fprintln(out, err)
			return err
		}
		o := errorOutput{Kind: de.Kind(), Message: de.Message(), Context: de.Context()}
		if cause := de.Unwrap(); cause != nil {
			o.Cause = cause.Error()
		}
		_ = enc.Encode(o)
		return err
	}
	return enc.Encode(result)
}
