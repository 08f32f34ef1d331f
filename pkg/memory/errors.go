package memory

import (
	"fmt"

	"github.com/raymyers/stepc/pkg/diag"
)

// Fault is a C-semantic run-time error detected by the memory model. It has
// no position; the interpreter attaches the position of the expression being
// evaluated.
type Fault struct {
	Msg string
}

func (f *Fault) Error() string {
	return f.Msg
}

// Faultf creates a Fault
func Faultf(format string, args ...any) *Fault {
	return &Fault{Msg: fmt.Sprintf(format, args...)}
}

func internalf(format string, args ...any) error {
	return diag.Internalf(format, args...)
}
