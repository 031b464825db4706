// Package version holds build-time identifying information for the
// mtoken CLI, plus the two wire-compatibility numbers that actually
// determine whether a program or archive produced by another build can
// be loaded here. These variables may be overridden at build time via
// -ldflags.
package version

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/MYJ-GOD/M-Language-Core/internal/misa"
	"github.com/MYJ-GOD/M-Language-Core/internal/mtrace"
)

var (
	cliColor    = color.New(color.FgGreen, color.Bold)
	abiColor    = color.New(color.FgYellow, color.Bold)
	schemaColor = color.New(color.FgBlue, color.Bold)

	// Version is the semantic version of the CLI binary itself.
	Version = cliColor.Sprint("0.1.0") + "-dev"

	// ABI reports the frozen opcode/operand-shape contract this build
	// accepts - bump misa.ABIVersion, not this string, when that changes.
	ABI = abiColor.Sprint(fmt.Sprintf("abi%d", misa.ABIVersion))

	// TraceSchema reports the on-disk Simulate-archive layout this build
	// writes and reads, per mtrace.SchemaVersion.
	TraceSchema = schemaColor.Sprint(fmt.Sprintf("schema%d", mtrace.SchemaVersion))

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)
