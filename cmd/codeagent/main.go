package main

import (
	"context"
	"fmt"
	"os"

	"github.com/CodedAgent/codeagent/internal/cmd"
)

// version is overridden at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cmd.Version = version
	rootCmd := cmd.NewRootCommand()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
