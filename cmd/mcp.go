package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/knowbase/internal/mcp"
	"github.com/ziadkadry99/knowbase/internal/progress"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol (MCP) server on stdio, exposing the
knowledge base to AI agents: semantic search, grounded question
answering, fact recording and document listing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(progress.SilentReporter{})
		if err != nil {
			return err
		}
		defer a.Close()

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "knowbase MCP server started on stdio (entries=%d)\n", a.vectors.Count())

		srv := mcpserver.NewServer(a.engine, a.composer, a.recorder, a.kbStore)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
