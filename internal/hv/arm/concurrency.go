package arm

// Concurrency and wait-state model (spec §5). A single CPUState is never
// touched from more than one goroutine concurrently; the translator front end
// owns the run loop and calls these from that same goroutine between guest
// instructions, so none of this package takes locks of its own.

// WaitReason distinguishes why a core is not currently executing guest code.
type WaitReason int

const (
	WaitNone WaitReason = iota
	WaitForInterrupt
	WaitForEvent
)

// CPUHasWork reports whether an asleep core (WFI or WFE) should wake. WFI
// wakes on any set bit in pending, regardless of whether PSTATE or HCR/SCR
// routing would currently mask it — a masked interrupt still needs to wake
// the core so it can be taken once unmasked, or simply observed. WFE wakes on
// a pending event (SEV/SEV-on-pending, surfaced by the caller as
// eventPending) or an unmasked SError (spec §5).
func (cpu *CPUState) CPUHasWork(reason WaitReason, pending InterruptPending, eventPending bool) bool {
	switch reason {
	case WaitForInterrupt:
		return cpu.anyPending(pending)
	case WaitForEvent:
		return eventPending || (pending.SError && !cpu.serrorMasked())
	default:
		return true
	}
}

func (cpu *CPUState) anyPending(pending InterruptPending) bool {
	return pending.FIQ || pending.IRQ || pending.SError || pending.VFIQ || pending.VIRQ || pending.VSError
}

// SendEvent implements the SEV/SEVL side effect: any WFE sleeper becomes
// runnable. Modeled as a pure query (CPUHasWork's eventPending parameter)
// rather than state on CPUState, since the translator's run loop is the
// natural owner of "is there an event pending" scheduling state across
// multiple cores; a single-core embedding can pass eventPending=true for one
// CPUHasWork call after a local SEV and false thereafter.
func (cpu *CPUState) SendEvent() {
	cpu.clearExclusive()
}

// StepInterrupts is the per-instruction-boundary orchestrator a translator's
// run loop calls. On an AArch64 core it asks ProcessInterrupt for the
// highest-priority deliverable interrupt, dispatches straight to
// TakeAArch64Exception and reports whether one was taken. On an AArch32 core
// it returns false without consulting ProcessInterrupt, and the translator
// itself calls RaiseAArch32Exception (AArch32 needs the
// instruction's own preferred-return-address semantics, which vary by
// exception in a way the AArch64 path does not).
func (cpu *CPUState) StepInterrupts(pending InterruptPending, pc uint64) (delivered bool) {
	if !cpu.Features.Has(FeatureAArch64) {
		return false // AArch32 interrupt delivery goes through RaiseAArch32Exception directly
	}

	targetEL, vectorOff, ok := cpu.ProcessInterrupt(pending)
	if !ok {
		return false
	}

	var esr uint64
	cpu.TakeAArch64Exception(targetEL, pc, vectorOff, esr, 0, false)
	return true
}
