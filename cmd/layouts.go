package cmd

import (
	"github.com/spf13/cobra"

	"github.com/GeowazM/calcSpectralIndices/internal/ui"
)

var layoutsCmd = &cobra.Command{
	Use:   "layouts",
	Short: "List the built-in sensor layouts",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ui.PrintLayouts()
	},
}

func init() {
	rootCmd.AddCommand(layoutsCmd)
}
