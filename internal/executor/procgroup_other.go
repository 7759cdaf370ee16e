//go:build !unix

package executor

import (
	"os/exec"
	"time"
)

const waitDelay = 3 * time.Second

// setupProcessGroup only bounds pipe draining; without process groups the
// default Cancel kills the direct child.
func setupProcessGroup(cmd *exec.Cmd) {
	cmd.WaitDelay = waitDelay
}
