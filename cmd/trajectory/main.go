package main

import (
	"fmt"
	"os"

	"github.com/benvon/trajectory/cmd/trajectory/commands"
)

func main() {
	rootCmd := commands.NewRootCmd(commands.OpenEnv)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
