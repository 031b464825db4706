package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/MYJ-GOD/M-Language-Core/internal/mvalidate"
	"github.com/MYJ-GOD/M-Language-Core/internal/mvalue"
	"github.com/MYJ-GOD/M-Language-Core/internal/mvm"
)

var runCmd = &cobra.Command{
	Use:   "run <program.mtok>",
	Short: "Validate and run an M-Token program to completion",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().Bool("skip-validate", false, "run without validating first (unsafe)")
}

func runRun(cmd *cobra.Command, args []string) error {
	program, err := loadFile(args[0])
	if err != nil {
		return err
	}

	if skip, _ := cmd.Flags().GetBool("skip-validate"); !skip {
		if err := mvalidate.Validate(program, validatePolicy(cmd)); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	session, err := loadSession(cmd)
	if err != nil {
		return err
	}

	stdinReader := bufio.NewReader(os.Stdin)
	cb := mvm.Callbacks{
		IOWrite: func(device uint8, v mvalue.Value) {
			fmt.Printf("io[%d] <- %s\n", device, v.String())
		},
		IORead: func(device uint8) mvalue.Value {
			var n int64
			fmt.Fscan(stdinReader, &n)
			return mvalue.Int(n)
		},
		Trace: func(level uint32, msg string) {
			fmt.Fprintf(os.Stderr, "trace[%d] %s\n", level, msg)
		},
	}

	vm, err := mvm.New(program, cb)
	if err != nil {
		return err
	}
	defer vm.Close()
	if err := session.Apply(vm); err != nil {
		return err
	}

	fault := vm.Run()
	if fault != nil && !fault.Kind.Debug() {
		color.New(color.FgRed, color.Bold).Printf("fault: %s\n", fault.Error())
		return nil
	}
	top := vm.StackSnapshot()
	if len(top) > 0 {
		fmt.Printf("result: %s\n", top[len(top)-1].String())
	}
	fmt.Printf("steps: %d\n", vm.Steps())
	return nil
}
