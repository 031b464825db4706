package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/MYJ-GOD/M-Language-Core/internal/mdisasm"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm <program.mtok>",
	Short: "Disassemble an M-Token program to readable text",
	Args:  cobra.ExactArgs(1),
	RunE:  runDisasm,
}

var (
	mnemonicStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	offsetStyle   = lipgloss.NewStyle().Faint(true)
)

func runDisasm(cmd *cobra.Command, args []string) error {
	program, err := loadFile(args[0])
	if err != nil {
		return err
	}

	useColor, _ := cmd.Flags().GetString("color")
	colorize := useColor == "on" || (useColor == "auto" && isTerminal(os.Stdout))

	for _, line := range mdisasm.Disassemble(program) {
		if !colorize {
			fmt.Println(line.String())
			continue
		}
		offset := offsetStyle.Render(fmt.Sprintf("%4d  %6d", line.TokenIndex, line.ByteOffset))
		mnemonic := mnemonicStyle.Render(line.Mnemonic)
		if line.Operand == "" {
			fmt.Printf("%s  %s\n", offset, mnemonic)
		} else {
			fmt.Printf("%s  %s  %s\n", offset, mnemonic, line.Operand)
		}
	}
	return nil
}
