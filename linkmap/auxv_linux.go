package linkmap

import (
	"fmt"
	"os"
)

// ProcessAuxv reads /proc/<pid>/auxv. The target is assumed to share the
// class of p.
func ProcessAuxv(pid int, p Platform) (AuxvPhdr, error) {
	raw, err := os.ReadFile(fmt.Sprintf("/proc/%d/auxv", pid))
	if err != nil {
		return AuxvPhdr{}, fmt.Errorf("linkmap: %w", err)
	}
	return ParseAuxv(raw, p.Class)
}
