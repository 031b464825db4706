package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MYJ-GOD/M-Language-Core/internal/mconfig"
	"github.com/MYJ-GOD/M-Language-Core/internal/mload"
	"github.com/MYJ-GOD/M-Language-Core/internal/mprogram"
	"github.com/MYJ-GOD/M-Language-Core/internal/mvalidate"
)

// loadFile reads path and runs the loader's tokenize+lower pass.
func loadFile(path string) (*mprogram.Program, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	result, err := mload.Load(raw)
	if err != nil {
		return nil, err
	}
	return result.Program, nil
}

func validatePolicy(cmd *cobra.Command) mvalidate.Policy {
	coreOnly, _ := cmd.Flags().GetBool("core-only")
	if coreOnly {
		return mvalidate.PolicyCoreOnly
	}
	return mvalidate.PolicyFull
}

// loadSession reads the --config flag, if set, otherwise returns the
// defaults session.
func loadSession(cmd *cobra.Command) (*mconfig.Session, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return mconfig.Default(), nil
	}
	return mconfig.Load(path)
}
