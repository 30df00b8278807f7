package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf(`confdiff %s
Built: %s
Go:    %s
OS:    %s/%s
`, version, buildDate, goVersion, runtime.GOOS, runtime.GOARCH)
		},
	}
}
