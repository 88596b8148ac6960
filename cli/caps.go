package main

import (
	"github.com/syndtr/gocapability/capability"
)

// checkPtrace warns when reading pid's memory is likely to be refused. A
// missing capability is not fatal: ptrace_scope may still allow the read.
func checkPtrace(pid int) {
	self, err := capability.NewPid2(0)
	if err != nil {
		log.Debugw("cannot inspect capabilities", "error", err)
		return
	}
	if err := self.Load(); err != nil {
		log.Debugw("cannot inspect capabilities", "error", err)
		return
	}
	if !self.Get(capability.EFFECTIVE, capability.CAP_SYS_PTRACE) {
		log.Warnw("CAP_SYS_PTRACE not in effective set, memory reads may be denied", "pid", pid)
	}
}
