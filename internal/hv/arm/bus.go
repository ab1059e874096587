package arm

import (
	"encoding/binary"
	"fmt"
)

// Bus models the host-provided physical memory space behind the §6.5
// ldub/lduw/ldl/ldq_phys and stb/stw/stl/stq_phys callouts. This is adapted
// from the teacher's rv64.Bus/rv64.MemoryRegion (internal/hv/riscv/rv64/bus.go):
// same RAM-plus-mapped-devices structure, renamed to the ARM physical address
// callouts and widened to optionally back RAM with an mmap'd file instead of
// a Go slice (see NewMappedMemoryRegion), mirroring how the teacher's
// internal/hv/kvm maps guest RAM with unix.Mmap.
type Device interface {
	Read(offset uint64, size int) (uint64, error)
	Write(offset uint64, size int, value uint64) error
	Size() uint64
}

var byteOrder = binary.LittleEndian

// MemoryRegion is a flat, slice-backed physical memory range.
type MemoryRegion struct {
	Data []byte
}

func NewMemoryRegion(size uint64) *MemoryRegion {
	return &MemoryRegion{Data: make([]byte, size)}
}

func (m *MemoryRegion) Read(offset uint64, size int) (uint64, error) {
	if offset+uint64(size) > uint64(len(m.Data)) {
		return 0, fmt.Errorf("arm: physical read out of bounds: offset=%#x size=%d len=%d", offset, size, len(m.Data))
	}
	switch size {
	case 1:
		return uint64(m.Data[offset]), nil
	case 2:
		return uint64(byteOrder.Uint16(m.Data[offset:])), nil
	case 4:
		return uint64(byteOrder.Uint32(m.Data[offset:])), nil
	case 8:
		return byteOrder.Uint64(m.Data[offset:]), nil
	default:
		return 0, fmt.Errorf("arm: invalid physical read size %d", size)
	}
}

func (m *MemoryRegion) Write(offset uint64, size int, value uint64) error {
	if offset+uint64(size) > uint64(len(m.Data)) {
		return fmt.Errorf("arm: physical write out of bounds: offset=%#x size=%d len=%d", offset, size, len(m.Data))
	}
	switch size {
	case 1:
		m.Data[offset] = byte(value)
	case 2:
		byteOrder.PutUint16(m.Data[offset:], uint16(value))
	case 4:
		byteOrder.PutUint32(m.Data[offset:], uint32(value))
	case 8:
		byteOrder.PutUint64(m.Data[offset:], value)
	default:
		return fmt.Errorf("arm: invalid physical write size %d", size)
	}
	return nil
}

func (m *MemoryRegion) Size() uint64 { return uint64(len(m.Data)) }

// deviceMapping maps a Device into the physical address space.
type deviceMapping struct {
	Base   uint64
	Size   uint64
	Device Device
}

// Bus is the physical address space: RAM plus mapped devices (NVIC, generic
// timer, GIC CPU interface backing registers, etc. all live behind Host
// instead, per spec §6.5 — Bus only models byte-addressable physical memory).
type Bus struct {
	RAM     *MemoryRegion
	RAMBase uint64
	devices []deviceMapping
}

func NewBus(ramBase, ramSize uint64) *Bus {
	return &Bus{RAM: NewMemoryRegion(ramSize), RAMBase: ramBase}
}

func (b *Bus) AddDevice(base uint64, dev Device) {
	b.devices = append(b.devices, deviceMapping{Base: base, Size: dev.Size(), Device: dev})
}

func (b *Bus) find(addr uint64) (Device, uint64, error) {
	if addr >= b.RAMBase && addr < b.RAMBase+b.RAM.Size() {
		return b.RAM, addr - b.RAMBase, nil
	}
	for _, m := range b.devices {
		if addr >= m.Base && addr < m.Base+m.Size {
			return m.Device, addr - m.Base, nil
		}
	}
	return nil, 0, fmt.Errorf("arm: no device at physical address %#x", addr)
}

func (b *Bus) read(addr uint64, size int) (uint64, error) {
	dev, off, err := b.find(addr)
	if err != nil {
		return 0, err
	}
	return dev.Read(off, size)
}

func (b *Bus) write(addr uint64, size int, val uint64) error {
	dev, off, err := b.find(addr)
	if err != nil {
		return err
	}
	return dev.Write(off, size, val)
}

// LdubPhys / LduwPhys / LdlPhys / LdqPhys are the host memory read callouts
// named in spec §6.5.
func (b *Bus) LdubPhys(addr uint64) (uint8, error) { v, err := b.read(addr, 1); return uint8(v), err }
func (b *Bus) LduwPhys(addr uint64) (uint16, error) {
	v, err := b.read(addr, 2)
	return uint16(v), err
}
func (b *Bus) LdlPhys(addr uint64) (uint32, error) {
	v, err := b.read(addr, 4)
	return uint32(v), err
}
func (b *Bus) LdqPhys(addr uint64) (uint64, error) { return b.read(addr, 8) }

// StbPhys / StwPhys / StlPhys / StqPhys are the host memory write callouts.
func (b *Bus) StbPhys(addr uint64, v uint8) error  { return b.write(addr, 1, uint64(v)) }
func (b *Bus) StwPhys(addr uint64, v uint16) error { return b.write(addr, 2, uint64(v)) }
func (b *Bus) StlPhys(addr uint64, v uint32) error { return b.write(addr, 4, uint64(v)) }
func (b *Bus) StqPhys(addr uint64, v uint64) error { return b.write(addr, 8, v) }

// LdlCode / LduwCode read an instruction word directly, bypassing any
// side-effecting device (spec §6.5 ldl_code/lduw_code, used for semihosting
// instruction inspection).
func (b *Bus) LdlCode(addr uint64) (uint32, error) { return b.LdlPhys(addr) }
func (b *Bus) LduwCode(addr uint64) (uint16, error) { return b.LduwPhys(addr) }
