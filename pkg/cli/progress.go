package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/Fepozopo/timpcore/pkg/resample"
)

// isTerminal reports whether w is a terminal. Anything that is not an
// *os.File is treated as a pipe.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// progressLine returns a callback that redraws "label: n/total" on w. It
// returns nil when w is not a terminal so no callback is installed.
func progressLine(w io.Writer, label string) resample.ProgressFunc {
	if !isTerminal(w) {
		return nil
	}
	return func(done, total int) bool {
		fmt.Fprintf(w, "\r%s: %d/%d rows", label, done, total)
		if done == total {
			fmt.Fprintln(w)
		}
		return true
	}
}
