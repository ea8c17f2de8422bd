package main

import (
	"runtime"

	"github.com/spf13/cobra"
)

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("pipecost %s\n", version)
			cmd.Printf("go: %s\n", runtime.Version())
			cmd.Printf("platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
