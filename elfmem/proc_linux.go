//go:build linux

package elfmem

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ProcessMemory reads another (or the current) process's address space
// through /proc/<pid>/mem. Unmapped pages come back as EIO instead of a
// segmentation fault.
type ProcessMemory struct {
	mu     sync.RWMutex
	fd     int
	pid    int
	closed bool
}

// OpenProcess opens /proc/<pid>/mem for reading.
func OpenProcess(pid int) (*ProcessMemory, error) {
	path := fmt.Sprintf("/proc/%d/mem", pid)
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &ProcessMemory{fd: fd, pid: pid}, nil
}

// OpenSelf opens the current process's memory.
func OpenSelf() (*ProcessMemory, error) {
	return OpenProcess(os.Getpid())
}

// Pid returns the process being read.
func (m *ProcessMemory) Pid() int { return m.pid }

func (m *ProcessMemory) ReadAt(p []byte, off int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, errors.New("process memory is closed")
	}
	read := 0
	for read < len(p) {
		n, err := unix.Pread(m.fd, p[read:], off+int64(read))
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return read, fmt.Errorf("pread pid %d at 0x%x: %w", m.pid, off+int64(read), err)
		}
		if n <= 0 {
			return read, fmt.Errorf("pread pid %d at 0x%x: short read (%d/%d)", m.pid, off, read, len(p))
		}
		read += n
	}
	return read, nil
}

// Close releases the file descriptor.
func (m *ProcessMemory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	return unix.Close(m.fd)
}

// ProcessVM reads a process's memory with process_vm_readv. It needs no file
// descriptor but the same ptrace access rights as /proc/<pid>/mem.
type ProcessVM struct {
	Pid int
}

func (m ProcessVM) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	read := 0
	for read < len(p) {
		local := []unix.Iovec{{Base: (*byte)(unsafe.Pointer(&p[read]))}}
		local[0].SetLen(len(p) - read)
		remote := []unix.RemoteIovec{{Base: uintptr(off) + uintptr(read), Len: len(p) - read}}
		n, err := unix.ProcessVMReadv(m.Pid, local, remote, 0)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return read, fmt.Errorf("process_vm_readv pid %d at 0x%x: %w", m.Pid, off+int64(read), err)
		}
		if n <= 0 {
			return read, fmt.Errorf("process_vm_readv pid %d at 0x%x: short read (%d/%d)", m.Pid, off, read, len(p))
		}
		read += n
	}
	return read, nil
}
