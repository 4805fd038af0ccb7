//go:build !windows

package supervisor

import (
	"os/exec"
	"syscall"
)

// Children run in their own process group so termination reaches any
// grandchildren (browser renderer processes in particular).
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killGroup(pid int) {
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
