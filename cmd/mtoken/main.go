package main

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/MYJ-GOD/M-Language-Core/internal/version"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mtoken",
	Short: "M-Token bytecode toolchain",
	Long:  `mtoken loads, validates, disassembles, and runs M-Token programs.`,
}

// main registers every subcommand and global flag, then executes the
// root command; a returned error exits with status 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(disasmCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().String("config", "", "path to a session.toml (limits + pre-authorized capabilities)")
	rootCmd.PersistentFlags().Bool("core-only", false, "reject extension opcodes (100-199) during validation")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		switch mode, _ := cmd.Flags().GetString("color"); mode {
		case "on":
			color.NoColor = false
		case "off":
			color.NoColor = true
		}
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
