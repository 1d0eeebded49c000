package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/knowbase/internal/progress"
)

var askShowRetrieval bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the knowledge base a single question",
	Long: `Retrieves the most relevant passages and composes a grounded answer.
The answer reports its confidence, the information it could not find
and the documents it drew from.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(progress.SilentReporter{})
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		question := strings.Join(args, " ")

		result, err := a.engine.Retrieve(ctx, question)
		if err != nil {
			return fmt.Errorf("retrieving context: %w", err)
		}
		if askShowRetrieval {
			fmt.Printf("Retrieved %d chunk(s) from %d document(s), max similarity %.3f\n\n",
				result.NumChunks, len(result.TopDocuments), result.MaxSimilarity)
		}

		ans := a.composer.Compose(ctx, question, result.Chunks, nil)
		printAnswer(ans)
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVar(&askShowRetrieval, "show-retrieval", false, "print retrieval statistics before the answer")
	rootCmd.AddCommand(askCmd)
}
