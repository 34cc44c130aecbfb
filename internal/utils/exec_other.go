//go:build !windows

package utils

import "os/exec"

// Command is a plain exec.Command outside Windows.
func Command(name string, args ...string) *exec.Cmd {
	return exec.Command(name, args...)
}
