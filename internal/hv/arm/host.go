package arm

import "log/slog"

// Host groups the external collaborators spec §6.5 requires the core to call
// into: the interrupt controller, the generic timer backing store, and the
// miscellaneous host utilities. Memory callouts live on *Bus instead, since
// they are keyed by physical address rather than being a single service.
//
// A translator front end supplies a concrete Host; EmptyHost below is a
// minimal implementation suitable for unit tests and for embedding this core
// without NVIC/GIC/timer modeling (its callout methods do nothing).
type Host interface {
	NVIC
	GenericTimer
	InterruptCPUInterface
	Logger() *slog.Logger
}

// NVIC is the interrupt-controller interface (spec §6.5 tlib_nvic_*).
type NVIC interface {
	NVICAcknowledgeIRQ() uint32
	NVICCompleteIRQ(irq uint32)
	NVICSetPendingIRQ(irq uint32, set bool)
	NVICGetPendingMaskedIRQ() (uint32, bool)
	NVICFindPendingIRQ() int32
	NVICWriteBasePri(val uint32)
}

// GenericTimer is the generic-timer backing store (spec §6.5
// tlib_{read,write}_system_register_generic_timer_{32,64}).
type GenericTimer interface {
	ReadGenericTimerRegister32(op0, op1, crn, crm, op2 uint8) (uint32, bool)
	WriteGenericTimerRegister32(op0, op1, crn, crm, op2 uint8, val uint32) bool
	ReadGenericTimerRegister64(op0, op1, crm uint8) (uint64, bool)
	WriteGenericTimerRegister64(op0, op1, crm uint8, val uint64) bool
}

// InterruptCPUInterface is the GIC CPU-interface system-register surface
// (spec §6.5 tlib_{read,write}_system_register_interrupt_cpu_interface).
type InterruptCPUInterface interface {
	ReadInterruptCPUInterfaceRegister(op0, op1, crn, crm, op2 uint8) (uint64, bool)
	WriteInterruptCPUInterfaceRegister(op0, op1, crn, crm, op2 uint8, val uint64) bool
}

// EmptyHost is a Host that has no interrupt controller or timer: NVIC queries
// report nothing pending, generic-timer/GIC sysreg access reports "not
// handled" (so the caller falls through to the default table behavior).
// None of its methods log anything; Logger returns Log, or slog.Default()
// when Log is nil.
type EmptyHost struct {
	Log *slog.Logger
}

func (h *EmptyHost) Logger() *slog.Logger {
	if h.Log != nil {
		return h.Log
	}
	return slog.Default()
}

func (h *EmptyHost) NVICAcknowledgeIRQ() uint32                     { return 0 }
func (h *EmptyHost) NVICCompleteIRQ(uint32)                         {}
func (h *EmptyHost) NVICSetPendingIRQ(uint32, bool)                  {}
func (h *EmptyHost) NVICGetPendingMaskedIRQ() (uint32, bool)         { return 0, false }
func (h *EmptyHost) NVICFindPendingIRQ() int32                       { return -1 }
func (h *EmptyHost) NVICWriteBasePri(uint32)                         {}
func (h *EmptyHost) ReadGenericTimerRegister32(_, _, _, _, _ uint8) (uint32, bool) {
	return 0, false
}
func (h *EmptyHost) WriteGenericTimerRegister32(_, _, _, _, _ uint8, _ uint32) bool { return false }
func (h *EmptyHost) ReadGenericTimerRegister64(_, _, _ uint8) (uint64, bool)        { return 0, false }
func (h *EmptyHost) WriteGenericTimerRegister64(_, _, _ uint8, _ uint64) bool       { return false }
func (h *EmptyHost) ReadInterruptCPUInterfaceRegister(_, _, _, _, _ uint8) (uint64, bool) {
	return 0, false
}
func (h *EmptyHost) WriteInterruptCPUInterfaceRegister(_, _, _, _, _ uint8, _ uint64) bool {
	return false
}
