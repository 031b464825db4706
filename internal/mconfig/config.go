// Package mconfig loads the host CLI's session configuration: resource
// limits and pre-authorized capabilities for a run, parsed from TOML with
// github.com/BurntSushi/toml. The core mvm.VM has no notion of this file;
// it is tooling convenience layered on top of SetStepLimit etc.
package mconfig

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/MYJ-GOD/M-Language-Core/internal/mvm"
)

// Limits mirrors the VM's four resource knobs. A zero value leaves the
// VM's own default in place.
type Limits struct {
	StepLimit      int `toml:"step_limit"`
	GasLimit       int `toml:"gas_limit"`
	CallDepthLimit int `toml:"call_depth_limit"`
	StackLimit     int `toml:"stack_limit"`
}

// Capabilities lists device ids to pre-authorize via synthetic GTWAY
// calls before the program's own tokens run.
type Capabilities struct {
	Devices []int `toml:"devices"`
}

// Session is the decoded contents of a session.toml file.
type Session struct {
	Limits       Limits       `toml:"limits"`
	Capabilities Capabilities `toml:"capabilities"`
	AutoGC       bool         `toml:"auto_gc"`
}

// Load reads and parses a session config file at path.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mconfig: read %s: %w", path, err)
	}
	var s Session
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("mconfig: parse %s: %w", path, err)
	}
	for _, d := range s.Capabilities.Devices {
		if d < 0 || d > 255 {
			return nil, fmt.Errorf("mconfig: %s: device id %d out of range [0,255]", path, d)
		}
	}
	return &s, nil
}

// Default returns an empty session carrying only the VM's own defaults.
func Default() *Session {
	return &Session{}
}

// Apply pushes this session's limits and pre-authorized capabilities
// onto vm, equivalent to - not a replacement for - in-program GTWAY.
func (s *Session) Apply(vm *mvm.VM) error {
	if s.Limits.StepLimit > 0 {
		vm.SetStepLimit(s.Limits.StepLimit)
	}
	if s.Limits.GasLimit > 0 {
		vm.SetGasLimit(s.Limits.GasLimit)
	}
	if s.Limits.CallDepthLimit > 0 {
		vm.SetCallDepthLimit(s.Limits.CallDepthLimit)
	}
	if s.Limits.StackLimit > 0 {
		vm.SetStackLimit(s.Limits.StackLimit)
	}
	vm.EnableAutoGC(s.AutoGC)
	for _, d := range s.Capabilities.Devices {
		if err := vm.AuthorizeCapability(uint32(d)); err != nil {
			return err
		}
	}
	return nil
}
