package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/MYJ-GOD/M-Language-Core/internal/mvalidate"
)

var validateCmd = &cobra.Command{
	Use:   "validate <program.mtok>",
	Short: "Run the static validator over an M-Token program",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	program, err := loadFile(args[0])
	if err != nil {
		return err
	}

	if err := mvalidate.Validate(program, validatePolicy(cmd)); err != nil {
		color.New(color.FgRed, color.Bold).Println("invalid")
		fmt.Println(err)
		return nil
	}
	color.New(color.FgGreen, color.Bold).Printf("valid  (%d tokens)\n", program.TokenCount())
	return nil
}
