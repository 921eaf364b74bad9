//go:build linux

package progress

import (
	"os"

	"golang.org/x/sys/unix"
)

// terminalWidth returns the column count of f, or 0 if f is not a terminal.
func terminalWidth(f *os.File) int {
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return 0
	}
	return int(ws.Col)
}
