package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/benvon/postpilot/cmd/genposts/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "postpilot-genposts",
		Short: "Synthetic post dataset generator",
		Long:  "CLI tool for generating synthetic engagement datasets for fixtures and demos",
	}

	rootCmd.AddCommand(commands.NewGenerateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
