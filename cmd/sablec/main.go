package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sablec",
	Short: "Sable language compiler",
	Long:  `Sablec lowers Sable source units to LLVM IR.`,
}

func main() {
	rootCmd.AddCommand(buildCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
