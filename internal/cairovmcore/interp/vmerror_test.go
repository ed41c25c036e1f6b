package interp

import (
	"errors"
	"strings"
	"testing"

	"github.com/vybium/cairo-vm-core/internal/cairovmcore/memory"
)

func TestFormatTracebackEmpty(t *testing.T) {
	if got := FormatTraceback(nil); got != "" {
		t.Errorf("FormatTraceback(nil) = %q, want empty", got)
	}
}

func TestFormatTracebackListsCallSitesMostRecentLast(t *testing.T) {
	tb := []memory.Relocatable{
		memory.NewRelocatable(0, 10),
		memory.NewRelocatable(0, 20),
	}
	got := FormatTraceback(tb)
	if !strings.HasPrefix(got, "cairo traceback:") {
		t.Fatalf("FormatTraceback = %q, want cairo traceback prefix", got)
	}
	idx10 := strings.Index(got, "pc=0:10")
	idx20 := strings.Index(got, "pc=0:20")
	if idx10 < 0 || idx20 < 0 || idx10 > idx20 {
		t.Errorf("FormatTraceback = %q, want pc=0:10 before pc=0:20", got)
	}
}

func TestVmExceptionErrorIncludesPcCauseAndHintIndex(t *testing.T) {
	cause := errors.New("boom")
	e := &VmException{
		Code:      ErrHintFailed,
		Pc:        memory.NewRelocatable(1, 5),
		Cause:     cause,
		HintIndex: 2,
	}
	msg := e.Error()
	if !strings.Contains(msg, "pc=1:5") {
		t.Errorf("Error() = %q, want pc=1:5", msg)
	}
	if !strings.Contains(msg, "boom") {
		t.Errorf("Error() = %q, want cause message", msg)
	}
	if !strings.Contains(msg, "hint 2") {
		t.Errorf("Error() = %q, want hint index", msg)
	}
}

func TestVmExceptionErrorOmitsTracebackSectionWhenEmpty(t *testing.T) {
	e := &VmException{
		Code:      ErrUnknown,
		Pc:        memory.NewRelocatable(0, 0),
		Cause:     errors.New("x"),
		HintIndex: -1,
	}
	if strings.Contains(e.Error(), "traceback") {
		t.Errorf("Error() = %q, want no traceback section", e.Error())
	}
}

func TestVmExceptionErrorIncludesTracebackAndNotes(t *testing.T) {
	e := &VmException{
		Code:      ErrInvalidJump,
		Pc:        memory.NewRelocatable(0, 0),
		Cause:     errors.New("x"),
		HintIndex: -1,
		Notes:     []string{"extra context"},
		Traceback: []memory.Relocatable{memory.NewRelocatable(0, 3)},
	}
	msg := e.Error()
	if !strings.Contains(msg, "extra context") {
		t.Errorf("Error() = %q, want note", msg)
	}
	if !strings.Contains(msg, "cairo traceback:") || !strings.Contains(msg, "pc=0:3") {
		t.Errorf("Error() = %q, want traceback section", msg)
	}
}

func TestVmExceptionUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	e := &VmException{Cause: cause}
	if !errors.Is(e, cause) {
		t.Errorf("errors.Is(e, cause) = false, want true")
	}
}
