package arm

import (
	"context"
	"fmt"
)

// Machine wires a CPUState to a Bus and Host for demonstration and testing,
// adapted from the teacher's rv64.Machine. Unlike rv64.Machine, this package
// has no instruction decoder of its own (spec §1 scope: a translator front
// end owns fetch/decode/execute and calls into CPUState directly), so RunUntil
// here only drives the interrupt-delivery and wait-state machinery — useful
// for conformance harnesses that want to script a sequence of
// InterruptPending assertions and exception entries without a full
// instruction-level translator attached.
type Machine struct {
	CPU  *CPUState
	Bus  *Bus
	Host Host

	halted bool
}

// NewMachine builds a Machine for the named CPU model with ramSize bytes of
// RAM at physical address 0.
func NewMachine(name string, ramSize uint64, host Host) (*Machine, error) {
	if host == nil {
		host = &EmptyHost{}
	}
	bus := NewBus(0, ramSize)
	cpu, err := NewCPUState(name, bus, host)
	if err != nil {
		return nil, err
	}
	return &Machine{CPU: cpu, Bus: bus, Host: host}, nil
}

// Reset resets the CPU to its power-on state.
func (m *Machine) Reset() {
	m.CPU.Reset()
	m.halted = false
}

// LoadBytes loads data into RAM at the given physical address.
func (m *Machine) LoadBytes(addr uint64, data []byte) error {
	for i, b := range data {
		if err := m.Bus.StbPhys(addr+uint64(i), b); err != nil {
			return err
		}
	}
	return nil
}

// ReadAt/WriteAt let tests and cmd/armconform treat guest physical memory as
// an io.ReaderAt/io.WriterAt.
func (m *Machine) ReadAt(p []byte, off int64) (int, error) {
	for i := range p {
		v, err := m.Bus.LdubPhys(uint64(off) + uint64(i))
		if err != nil {
			return i, err
		}
		p[i] = v
	}
	return len(p), nil
}

func (m *Machine) WriteAt(p []byte, off int64) (int, error) {
	for i, b := range p {
		if err := m.Bus.StbPhys(uint64(off)+uint64(i), b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// AddDevice maps a device onto the bus.
func (m *Machine) AddDevice(base uint64, dev Device) { m.Bus.AddDevice(base, dev) }

// Halt stops RunUntil.
func (m *Machine) Halt() { m.halted = true }

func (m *Machine) IsHalted() bool { return m.halted }

// RunUntil drives interrupt delivery: on every iteration it asks pendingFn
// for the current interrupt line state, passes it to StepInterrupts so a
// pending exception can be taken, and then calls stepFn to let the caller
// advance the guest. It returns when ctx is cancelled, the machine halts, or
// stepFn returns an error.
func (m *Machine) RunUntil(ctx context.Context, pendingFn func() InterruptPending, stepFn func() error) error {
	for !m.halted {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.CPU.StepInterrupts(pendingFn(), m.CPU.PC)
		if err := stepFn(); err != nil {
			return fmt.Errorf("arm: machine step at pc=%#x: %w", m.CPU.PC, err)
		}
	}
	return nil
}
