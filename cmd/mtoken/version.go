package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MYJ-GOD/M-Language-Core/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the mtoken CLI version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("mtoken %s [%s, %s]", version.Version, version.ABI, version.TraceSchema)
		if version.GitCommit != "" {
			fmt.Printf(" (%s)", version.GitCommit)
		}
		fmt.Println()
		return nil
	},
}
