package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/knowbase/internal/progress"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage knowledge base documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all documents in the knowledge base",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(progress.SilentReporter{})
		if err != nil {
			return err
		}
		defer a.Close()

		docs, err := a.kbStore.ListDocuments(cmd.Context())
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Println("The knowledge base contains no documents.")
			return nil
		}

		for _, d := range docs {
			marker := ""
			if d.IsManualInput {
				marker = " [manual ledger]"
			}
			fmt.Printf("%4d  %-10s %s  %s%s\n",
				d.ID, d.FileType, d.UploadTimestamp.Format("2006-01-02 15:04"), d.Filename, marker)
		}
		return nil
	},
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a document and its chunks from the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid document id %q", args[0])
		}

		a, err := openApp(progress.SilentReporter{})
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.pipeline.DeleteDocument(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Deleted document %d\n", id)
		return nil
	},
}

func init() {
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsDeleteCmd)
	rootCmd.AddCommand(docsCmd)
}
