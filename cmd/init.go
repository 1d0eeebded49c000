package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/knowbase/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize knowbase configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure knowbase and generates a .knowbase.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
