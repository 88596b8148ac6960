//go:build !linux

package elfmem

import "fmt"

type ProcessMemory struct{}

func OpenProcess(pid int) (*ProcessMemory, error) {
	return nil, fmt.Errorf("elfmem: %w: process memory for pid %d is only readable on linux", ErrUnsupportedPlatform, pid)
}

func OpenSelf() (*ProcessMemory, error) {
	return nil, fmt.Errorf("elfmem: %w: process memory is only readable on linux", ErrUnsupportedPlatform)
}

func (m *ProcessMemory) Pid() int { return 0 }

func (m *ProcessMemory) ReadAt(p []byte, off int64) (int, error) {
	_, _ = p, off
	return 0, fmt.Errorf("elfmem: %w", ErrUnsupportedPlatform)
}

func (m *ProcessMemory) Close() error { return nil }

type ProcessVM struct {
	Pid int
}

func (m ProcessVM) ReadAt(p []byte, off int64) (int, error) {
	_, _ = p, off
	return 0, fmt.Errorf("elfmem: %w: process_vm_readv is linux only", ErrUnsupportedPlatform)
}
