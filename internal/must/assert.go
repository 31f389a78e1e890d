package must

import (
	"log/slog"
	"os"
)

// Assert exits the program when cond is false. It guards invariants of static
// tables and must never depend on user input.
func Assert(cond bool, failMessage string, args ...any) {
	if !cond {
		slog.Error(failMessage, args...)
		os.Exit(1)
	}
}
