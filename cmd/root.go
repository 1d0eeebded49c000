package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "knowbase",
	Short: "Personal knowledge base with grounded question answering",
	Long: `Knowbase ingests your documents into a searchable knowledge base and
answers questions strictly from what they contain. Every answer carries
a confidence level, names its sources and lists the information it
could not find. Facts can be added conversationally and the whole
system is available over HTTP and MCP.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".knowbase.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
