// Package mhost implements the host-side "many VM instances in parallel"
// model: each program in a batch gets its own fresh mvm.VM, run on its
// own goroutine, coordinated with golang.org/x/sync/errgroup. No state is
// shared between instances.
package mhost

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/MYJ-GOD/M-Language-Core/internal/mfault"
	"github.com/MYJ-GOD/M-Language-Core/internal/mprogram"
	"github.com/MYJ-GOD/M-Language-Core/internal/mvm"
)

// Limits mirrors the VM's four resource knobs, applied uniformly to every
// program in a RunMany batch.
type Limits struct {
	StepLimit      int
	GasLimit       int
	CallDepthLimit int
	StackLimit     int
}

// Job pairs one loaded program with the callbacks its own VM instance
// should invoke for side effects.
type Job struct {
	Program *mprogram.Program
	Cb      mvm.Callbacks
}

// Outcome is one job's result alongside the index it was submitted at.
type Outcome struct {
	Index  int
	Result mvm.Result
	Err    error
}

// RunMany loads one VM per job and runs them concurrently. A context
// cancellation stops issuing new dispatch loops to jobs that have not yet
// started running Simulate but does not reach inside one already
// in-flight - the errgroup's derived context is checked only between
// jobs, not between opcodes.
func RunMany(ctx context.Context, jobs []Job, limits Limits) ([]Outcome, error) {
	outcomes := make([]Outcome, len(jobs))
	g, gctx := errgroup.WithContext(ctx)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			select {
			case <-gctx.Done():
				outcomes[i] = Outcome{Index: i, Err: gctx.Err()}
				return nil
			default:
			}

			vm, err := mvm.New(job.Program, job.Cb)
			if err != nil {
				outcomes[i] = Outcome{Index: i, Err: err}
				return nil
			}
			defer vm.Close()

			if limits.StepLimit > 0 {
				vm.SetStepLimit(limits.StepLimit)
			}
			if limits.GasLimit > 0 {
				vm.SetGasLimit(limits.GasLimit)
			}
			if limits.CallDepthLimit > 0 {
				vm.SetCallDepthLimit(limits.CallDepthLimit)
			}
			if limits.StackLimit > 0 {
				vm.SetStackLimit(limits.StackLimit)
			}

			outcomes[i] = Outcome{Index: i, Result: vm.Simulate()}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

// FirstFault returns the first faulting outcome's fault, or nil if every
// job completed cleanly. Convenience for callers that just want a
// pass/fail signal over a batch.
func FirstFault(outcomes []Outcome) *mfault.Fault {
	for _, o := range outcomes {
		if o.Result.Fault != nil {
			return o.Result.Fault
		}
	}
	return nil
}
