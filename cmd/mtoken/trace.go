package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/MYJ-GOD/M-Language-Core/internal/mtrace"
	"github.com/MYJ-GOD/M-Language-Core/internal/mvalidate"
	"github.com/MYJ-GOD/M-Language-Core/internal/mvm"
)

var traceCmd = &cobra.Command{
	Use:   "trace <program.mtok>",
	Short: "Simulate an M-Token program and print its trace",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrace,
}

func init() {
	traceCmd.Flags().String("archive", "", "write the trace archive to this path (msgpack)")
}

func runTrace(cmd *cobra.Command, args []string) error {
	program, err := loadFile(args[0])
	if err != nil {
		return err
	}
	if err := mvalidate.Validate(program, validatePolicy(cmd)); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	session, err := loadSession(cmd)
	if err != nil {
		return err
	}

	vm, err := mvm.New(program, mvm.Callbacks{})
	if err != nil {
		return err
	}
	defer vm.Close()
	if err := session.Apply(vm); err != nil {
		return err
	}

	result := vm.Simulate()

	bold := color.New(color.Bold)
	bold.Println("=== Execution Trace Summary ===")
	fmt.Printf("completed: %v\n", result.Completed)
	fmt.Printf("halted:    %v\n", result.Halted)
	fmt.Printf("steps:     %d\n", result.Steps)
	if result.Fault != nil {
		color.New(color.FgRed).Printf("fault:     %s\n", result.Fault.Kind)
	}
	if result.HasTop {
		fmt.Printf("top:       %d\n", result.TopValue)
	}

	caps := vm.Capabilities()
	var granted []int
	for i, ok := range caps {
		if ok {
			granted = append(granted, i)
		}
	}
	fmt.Printf("capabilities granted: %v\n", granted)

	shown := result.Trace
	if len(shown) > 15 {
		shown = shown[:15]
	}
	fmt.Println("\nstep  pc    op      sp  top")
	for _, row := range shown {
		fmt.Printf("%-4d  %-4d  %-6s  %-2d  %d\n", row.Step, row.PCBefore, vm.OpcodeName(row.Opcode), row.SPAfter, row.TopAfter)
	}
	if len(result.Trace) > 15 {
		fmt.Printf("... and %d more entries\n", len(result.Trace)-15)
	}

	if archivePath, _ := cmd.Flags().GetString("archive"); archivePath != "" {
		f, err := os.Create(archivePath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := mtrace.EncodeArchive(f, program.ByteLen(), result); err != nil {
			return err
		}
	}
	return nil
}
