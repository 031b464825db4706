package version

import (
	"strconv"
	"strings"
	"testing"

	"github.com/MYJ-GOD/M-Language-Core/internal/misa"
	"github.com/MYJ-GOD/M-Language-Core/internal/mtrace"
)

func TestABIReportsCurrentOpcodeContract(t *testing.T) {
	want := "abi" + strconv.Itoa(misa.ABIVersion)
	if !strings.Contains(ABI, want) {
		t.Fatalf("ABI = %q, want it to contain %q", ABI, want)
	}
}

func TestTraceSchemaReportsCurrentArchiveLayout(t *testing.T) {
	want := "schema" + strconv.Itoa(int(mtrace.SchemaVersion))
	if !strings.Contains(TraceSchema, want) {
		t.Fatalf("TraceSchema = %q, want it to contain %q", TraceSchema, want)
	}
}
