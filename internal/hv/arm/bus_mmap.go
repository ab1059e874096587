//go:build !windows

package arm

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// MappedMemoryRegion backs RAM with an mmap'd file instead of a Go slice,
// mirroring how the teacher's internal/hv/kvm maps guest RAM with
// unix.Mmap so host tooling can inspect or snapshot physical memory out of
// band. cmd/armconform does not use it: its checks run on the slice-backed
// RAM that NewBus creates.
type MappedMemoryRegion struct {
	Data []byte
	file *os.File
}

// NewMappedMemoryRegion creates an anonymous (if path=="") or file-backed
// mmap of size bytes.
func NewMappedMemoryRegion(path string, size uint64) (*MappedMemoryRegion, error) {
	prot := unix.PROT_READ | unix.PROT_WRITE
	if path == "" {
		data, err := unix.Mmap(-1, 0, int(size), prot, unix.MAP_ANON|unix.MAP_PRIVATE)
		if err != nil {
			return nil, fmt.Errorf("arm: anonymous mmap: %w", err)
		}
		return &MappedMemoryRegion{Data: data}, nil
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("arm: open backing file: %w", err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, fmt.Errorf("arm: truncate backing file: %w", err)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), prot, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("arm: mmap backing file: %w", err)
	}
	return &MappedMemoryRegion{Data: data, file: f}, nil
}

func (m *MappedMemoryRegion) Close() error {
	err := unix.Munmap(m.Data)
	if m.file != nil {
		if cerr := m.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (m *MappedMemoryRegion) Read(offset uint64, size int) (uint64, error) {
	return (&MemoryRegion{Data: m.Data}).Read(offset, size)
}

func (m *MappedMemoryRegion) Write(offset uint64, size int, value uint64) error {
	return (&MemoryRegion{Data: m.Data}).Write(offset, size, value)
}

func (m *MappedMemoryRegion) Size() uint64 { return uint64(len(m.Data)) }
