//go:build !linux
// +build !linux

package format

func isTerminal(fd uintptr) bool {
	return false
}
