package arm

// AArch64 exception entry (spec §4.E.3) and the interrupt-delivery ordering
// and target-EL resolution (spec §4.E.5).

// SCR_EL3 and HCR_EL2 routing bits this core consults.
const (
	scrIRQ = 1 << 1
	scrFIQ = 1 << 2
	scrEA  = 1 << 3
	scrRW  = 1 << 10
	scrHCE = 1 << 8

	hcrIMO = 1 << 4
	hcrFMO = 1 << 3
	hcrAMO = 1 << 5
	hcrTGE = 1 << 27
	hcrE2H = 1 << 34
)

// TakeAArch64Exception performs entry to targetEL: save SPSR/ELR, set ESR and
// FAR, mask interrupts per the target's fixed mask set, clear SS/exclusive,
// switch PSTATE (through the SP-change bracket), and load PC from the
// VBAR_ELx-relative vector appropriate to the source (spec §4.E.3). offset
// selects which of the four 0x80-aligned vector slots (current EL SP0,
// current EL SPx, lower EL AArch64, lower EL AArch32) the caller has already
// determined from source/target EL and execution state.
func (cpu *CPUState) TakeAArch64Exception(targetEL ExceptionLevel, preferredReturnAddr, vectorOffset uint64, esr uint64, far uint64, farValid bool) {
	oldPState := cpu.pstateRead()
	cpu.BankedSpsrEL[targetEL] = oldPState
	cpu.Sys.Elr[targetEL] = preferredReturnAddr
	cpu.Sys.Esr[targetEL] = esr
	if farValid {
		cpu.Sys.Far[targetEL] = far
	}

	newPState := oldPState &^ uint64(PStateEL|PStateSP|PStateSS|PStateIL)
	newPState |= uint64(targetEL) << 2
	newPState |= PStateSP // exception entry always selects SPx, never SP0
	newPState |= PStateD | PStateA | PStateI | PStateF
	newPState &^= PStateSSBS

	cpu.pstateWriteWithSPChange(newPState)
	cpu.clearExclusive()

	base := cpu.Sys.Vbar[targetEL]
	cpu.PC = base + vectorOffset
}

// AArch64ExceptionReturn implements ERET: restore PSTATE from
// SPSR_ELx[currentEL] (through the SP-change bracket) and set PC from
// ELR_ELx[currentEL].
func (cpu *CPUState) AArch64ExceptionReturn() {
	el := cpu.currentEL()
	spsr := cpu.BankedSpsrEL[el]
	newPC := cpu.Sys.Elr[el]
	cpu.pstateWriteWithSPChange(spsr)
	cpu.PC = newPC
	cpu.clearExclusive()
}

// VBAR vector-table slot offsets (ARM ARM D1.10.2), selected by the caller
// based on source EL/SP and execution state relative to targetEL.
const (
	VectorCurrentELSP0Sync  = 0x000
	VectorCurrentELSP0IRQ   = 0x080
	VectorCurrentELSP0FIQ   = 0x100
	VectorCurrentELSP0SErr  = 0x180
	VectorCurrentELSPxSync  = 0x200
	VectorCurrentELSPxIRQ   = 0x280
	VectorCurrentELSPxFIQ   = 0x300
	VectorCurrentELSPxSErr  = 0x380
	VectorLowerAA64Sync     = 0x400
	VectorLowerAA64IRQ      = 0x480
	VectorLowerAA64FIQ      = 0x500
	VectorLowerAA64SErr     = 0x580
	VectorLowerAA32Sync     = 0x600
	VectorLowerAA32IRQ      = 0x680
	VectorLowerAA32FIQ      = 0x700
	VectorLowerAA32SErr     = 0x780
)

// InterruptPending is the snapshot of host-reported interrupt lines consulted
// by ProcessInterrupt, in spec §4.E.5's priority order.
type InterruptPending struct {
	FIQ     bool
	IRQ     bool
	VFIQ    bool
	VIRQ    bool
	VSError bool
	SError  bool
}

// targetELForPhysical resolves the target EL for a physical FIQ/IRQ/SError
// per the SCR_EL3/HCR_EL2 truth table (spec §4.E.5): EL3 if the SCR routing
// bit is set, else EL2 if the HCR routing bit is set and EL2 is implemented,
// else EL1.
func (cpu *CPUState) targetELForPhysical(scrBit, hcrBit uint64) ExceptionLevel {
	if cpu.AvailableEL3 && cpu.Sys.ScrEl3&scrBit != 0 {
		return EL3
	}
	if cpu.AvailableEL2 && cpu.Sys.HcrEl2&hcrBit != 0 {
		return EL2
	}
	return EL1
}

// irqMasked/fiqMasked/serrorMasked report whether a physical interrupt
// routed to targetEL is currently masked at the CPU's present state: masked
// if the CPU is already executing at a higher EL than the route, or at
// exactly the route with the corresponding PSTATE mask bit set; never masked
// when the route is to a strictly higher EL than the current one.
func (cpu *CPUState) maskedFor(targetEL ExceptionLevel, pstateMaskBit uint64) bool {
	cur := cpu.currentEL()
	if cur > targetEL {
		return true
	}
	if cur == targetEL {
		return cpu.PState&pstateMaskBit != 0
	}
	return false
}

func (cpu *CPUState) irqMasked() bool {
	return cpu.maskedFor(cpu.targetELForPhysical(scrIRQ, hcrIMO), PStateI)
}

func (cpu *CPUState) fiqMasked() bool {
	return cpu.maskedFor(cpu.targetELForPhysical(scrFIQ, hcrFMO), PStateF)
}

func (cpu *CPUState) serrorMasked() bool {
	return cpu.maskedFor(cpu.targetELForPhysical(scrEA, hcrAMO), PStateA)
}

// ProcessInterrupt inspects pending, in the fixed priority order the
// original's main loop uses (EXITTB is a translator-internal control-flow
// event with no CPU-state effect and is not represented here), and returns
// the first unmasked interrupt's target EL and vector offset, or ok=false if
// nothing is currently deliverable.
func (cpu *CPUState) ProcessInterrupt(pending InterruptPending) (targetEL ExceptionLevel, vectorOffset uint64, ok bool) {
	check := func(active bool, masked bool, el ExceptionLevel) (ExceptionLevel, bool) {
		if active && !masked {
			return el, true
		}
		return 0, false
	}

	if el, yes := check(pending.FIQ, cpu.fiqMasked(), cpu.targetELForPhysical(scrFIQ, hcrFMO)); yes {
		return el, cpu.vectorFor(el, VectorLowerAA64FIQ, VectorCurrentELSPxFIQ), true
	}
	if el, yes := check(pending.IRQ, cpu.irqMasked(), cpu.targetELForPhysical(scrIRQ, hcrIMO)); yes {
		return el, cpu.vectorFor(el, VectorLowerAA64IRQ, VectorCurrentELSPxIRQ), true
	}
	// Virtual interrupts always target EL1 and are deliverable while running
	// at EL0 or EL1 with HCR_EL2 set up for virtualization, not in the TGE
	// "trap general exceptions to EL2" mode, and never while E2H merges EL2
	// into the host regime. From EL0 they're never masked by PSTATE (EL0
	// can't mask an EL1-targeted exception); from EL1, maskedFor applies the
	// usual DAIF check since current==target.
	virtOK := cpu.AvailableEL2 && cpu.Sys.HcrEl2&hcrTGE == 0 && cpu.Sys.HcrEl2&hcrE2H == 0 && cpu.currentEL() <= EL1
	if el, yes := check(pending.VFIQ && virtOK, cpu.maskedFor(EL1, PStateF), EL1); yes {
		return el, cpu.vectorFor(el, VectorLowerAA64FIQ, VectorCurrentELSPxFIQ), true
	}
	if el, yes := check(pending.VIRQ && virtOK, cpu.maskedFor(EL1, PStateI), EL1); yes {
		return el, cpu.vectorFor(el, VectorLowerAA64IRQ, VectorCurrentELSPxIRQ), true
	}
	if el, yes := check(pending.VSError && virtOK, cpu.maskedFor(EL1, PStateA), EL1); yes {
		return el, cpu.vectorFor(el, VectorLowerAA64SErr, VectorCurrentELSPxSErr), true
	}
	if el, yes := check(pending.SError, cpu.serrorMasked(), cpu.targetELForPhysical(scrEA, hcrAMO)); yes {
		return el, cpu.vectorFor(el, VectorLowerAA64SErr, VectorCurrentELSPxSErr), true
	}

	return 0, 0, false
}

// vectorFor picks the "lower EL, same execution state" vector when the
// interrupt crosses from a lower EL, or the "current EL, SPx" vector when it
// fires while already executing at targetEL.
func (cpu *CPUState) vectorFor(targetEL ExceptionLevel, lowerVec, currentVec uint64) uint64 {
	if cpu.currentEL() == targetEL {
		return currentVec
	}
	return lowerVec
}
