package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/knowbase/internal/ingest"
	"github.com/ziadkadry99/knowbase/internal/progress"
)

var (
	ingestInclude []string
	ingestExclude []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Add documents to the knowledge base",
	Long: `Chunks, embeds and indexes the given files. A directory argument is
scanned recursively for supported file types (pdf, docx, md, txt).
Files that fail to process are reported and skipped; the rest are
still added.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(progress.NewReporter())
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		var outcomes []ingest.FileOutcome
		for _, arg := range args {
			info, err := os.Stat(arg)
			if err != nil {
				return err
			}
			if info.IsDir() {
				dirOutcomes, err := a.pipeline.IngestDirectory(ctx, arg, ingestInclude, ingestExclude)
				if err != nil {
					return fmt.Errorf("scanning %s: %w", arg, err)
				}
				outcomes = append(outcomes, dirOutcomes...)
			} else {
				outcomes = append(outcomes, a.pipeline.IngestFiles(ctx, []string{arg})...)
			}
		}

		var added, failed int
		for _, o := range outcomes {
			if o.Err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "  skipped %s: %v\n", o.Path, o.Err)
				continue
			}
			added++
			if verbose {
				fmt.Printf("  added %s (%d chunks)\n", o.Path, o.ChunkCount)
			}
		}

		fmt.Printf("\nIngested %d document(s)", added)
		if failed > 0 {
			fmt.Printf(", %d failed", failed)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringSliceVar(&ingestInclude, "include", nil, "glob patterns of files to include")
	ingestCmd.Flags().StringSliceVar(&ingestExclude, "exclude", nil, "glob patterns of files to exclude")
	rootCmd.AddCommand(ingestCmd)
}
