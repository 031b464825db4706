package mconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MYJ-GOD/M-Language-Core/internal/mfault"
	"github.com/MYJ-GOD/M-Language-Core/internal/misa"
	"github.com/MYJ-GOD/M-Language-Core/internal/mprogram"
	"github.com/MYJ-GOD/M-Language-Core/internal/mvm"
)

func writeTOML(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "session.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadParsesLimitsAndCapabilities(t *testing.T) {
	path := writeTOML(t, `
auto_gc = true

[limits]
step_limit = 5
call_depth_limit = 8

[capabilities]
devices = [3, 9]
`)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Limits.StepLimit != 5 || s.Limits.CallDepthLimit != 8 {
		t.Fatalf("limits = %+v, want StepLimit=5, CallDepthLimit=8", s.Limits)
	}
	if !s.AutoGC {
		t.Fatalf("AutoGC = false, want true")
	}
	if len(s.Capabilities.Devices) != 2 || s.Capabilities.Devices[0] != 3 || s.Capabilities.Devices[1] != 9 {
		t.Fatalf("devices = %v, want [3 9]", s.Capabilities.Devices)
	}
}

func TestLoadRejectsOutOfRangeDevice(t *testing.T) {
	path := writeTOML(t, `
[capabilities]
devices = [256]
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an out-of-range device id to be rejected")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected an error reading a missing file")
	}
}

func TestDefaultIsEmpty(t *testing.T) {
	s := Default()
	if s.Limits.StepLimit != 0 || len(s.Capabilities.Devices) != 0 || s.AutoGC {
		t.Fatalf("Default() = %+v, want a zero session", s)
	}
}

func TestApplyPushesStepLimitAndCapabilities(t *testing.T) {
	raw := mprogram.Encode([]mprogram.Token{{Op: misa.OpJMP, JumpOffset: -1}})
	p, err := mprogram.Tokenize(raw)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	vm, err := mvm.New(p, mvm.Callbacks{})
	if err != nil {
		t.Fatalf("mvm.New: %v", err)
	}

	s := &Session{
		Limits:       Limits{StepLimit: 5},
		Capabilities: Capabilities{Devices: []int{3}},
	}
	if err := s.Apply(vm); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if caps := vm.Capabilities(); !caps[3] {
		t.Fatalf("capability 3 not authorized after Apply")
	}

	f := vm.Run()
	if f == nil || f.Kind != mfault.StepLimit {
		t.Fatalf("fault = %v, want StepLimit", f)
	}
	if vm.Steps() != 6 {
		t.Fatalf("steps = %d, want 6 (step_limit 5 + 1)", vm.Steps())
	}
}
