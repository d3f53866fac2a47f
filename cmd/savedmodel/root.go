package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "savedmodel",
	Short: "Inspect exported model directories",
	Long: `savedmodel works with self-contained model directories produced by
the export API: a saved_model.pb container plus a variables checkpoint.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
