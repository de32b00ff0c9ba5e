//go:build !unix

package phpmd

import "os/exec"

func configureProcess(cmd *exec.Cmd) {}
