package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/knowbase/internal/progress"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <fact>",
	Short: "Record a fact in the manual ledger",
	Long: `Appends a fact to the manual information ledger and indexes it, making
it retrievable for future questions.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(progress.SilentReporter{})
		if err != nil {
			return err
		}
		defer a.Close()

		statement := strings.Join(args, " ")
		res, err := a.recorder.Record(cmd.Context(), statement, "")
		if err != nil {
			return fmt.Errorf("recording fact: %w", err)
		}

		fmt.Printf("Recorded in %s (chunk %d)\n", res.Filename, res.ChunkIndex)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enrichCmd)
}
