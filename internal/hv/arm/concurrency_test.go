package arm

import "testing"

// TestWFIWakesOnMaskedInterrupt is spec §5's WFI wake condition: any set bit
// in the pending interrupt snapshot wakes WFI, even one that PSTATE.I/F/A
// would currently mask from being taken as an exception.
func TestWFIWakesOnMaskedInterrupt(t *testing.T) {
	cpu := newTestCPU(t, "cortex-a53")
	cpu.PSTATESetEL(EL1, true)
	cpu.PState |= PStateI | PStateF | PStateA

	if !cpu.CPUHasWork(WaitForInterrupt, InterruptPending{IRQ: true}, false) {
		t.Error("WFI did not wake on a masked pending IRQ, want woken")
	}
	if !cpu.CPUHasWork(WaitForInterrupt, InterruptPending{FIQ: true}, false) {
		t.Error("WFI did not wake on a masked pending FIQ, want woken")
	}
	if !cpu.CPUHasWork(WaitForInterrupt, InterruptPending{SError: true}, false) {
		t.Error("WFI did not wake on a masked pending SError, want woken")
	}
}

func TestWFINoWorkWithNothingPending(t *testing.T) {
	cpu := newTestCPU(t, "cortex-a53")
	if cpu.CPUHasWork(WaitForInterrupt, InterruptPending{}, false) {
		t.Error("WFI reported work with nothing pending and no event")
	}
}

// TestWFEWakesOnEventOrUnmaskedSError checks WFE's narrower wake set: a
// caller-supplied event always wakes it, and an SError wakes it only when not
// masked by PSTATE.A.
func TestWFEWakesOnEventOrUnmaskedSError(t *testing.T) {
	cpu := newTestCPU(t, "cortex-a53")
	cpu.PSTATESetEL(EL1, true)

	if !cpu.CPUHasWork(WaitForEvent, InterruptPending{}, true) {
		t.Error("WFE did not wake on eventPending=true")
	}
	if !cpu.CPUHasWork(WaitForEvent, InterruptPending{SError: true}, false) {
		t.Error("WFE did not wake on an unmasked pending SError")
	}

	cpu.PState |= PStateA
	if cpu.CPUHasWork(WaitForEvent, InterruptPending{SError: true}, false) {
		t.Error("WFE woke on a masked SError with no other event pending, want asleep")
	}
}

func TestWFEIgnoresMaskedIRQWithNoEvent(t *testing.T) {
	cpu := newTestCPU(t, "cortex-a53")
	cpu.PSTATESetEL(EL1, true)
	cpu.PState |= PStateI

	if cpu.CPUHasWork(WaitForEvent, InterruptPending{IRQ: true}, false) {
		t.Error("WFE woke on a masked IRQ with no event pending, want asleep (IRQ alone isn't a WFE wake event)")
	}
}
