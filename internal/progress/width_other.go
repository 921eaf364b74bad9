//go:build !linux

package progress

import "os"

func terminalWidth(*os.File) int { return 0 }
