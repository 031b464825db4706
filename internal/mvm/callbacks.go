package mvm

import "github.com/MYJ-GOD/M-Language-Core/internal/mvalue"

// IOWriter is invoked by IOW. It must not fault the VM; failures on the
// host side are out of band.
type IOWriter func(device uint8, v mvalue.Value)

// IOReader is invoked by IOR and must return a Value (typically Int); it
// has no failure mode across the boundary.
type IOReader func(device uint8) mvalue.Value

// Sleeper is invoked by WAIT. The host may no-op it or truncate the delay.
type Sleeper func(ms int32)

// Tracer is invoked by TRACE only; GC and other internal paths do not
// call it. It must not block meaningfully and must not re-enter the VM it
// was called from.
type Tracer func(level uint32, msg string)

// Callbacks bundles the four host-side hooks a VM invokes for side
// effects. A nil hook is treated as a no-op (IORead returns Int(0)).
type Callbacks struct {
	IOWrite IOWriter
	IORead  IOReader
	Sleep   Sleeper
	Trace   Tracer
}
