package arm

// AArch32 (non-M) exception entry (spec §4.E.1). Vector offsets and the
// per-exception LR adjustment mirror the ARM ARM's "B1.8.1 Exception
// vectors" and "B1.8.3 Return from exception" tables.

// ExceptionType enumerates the AArch32 non-M exception classes, in vector
// order.
type ExceptionType int

const (
	ExceptionReset ExceptionType = iota
	ExceptionUndef
	ExceptionSWI
	ExceptionPrefetchAbort
	ExceptionDataAbort
	ExceptionIRQ
	ExceptionFIQ
	ExceptionHVC
	ExceptionSMC
)

// vectorOffset is the byte offset of each exception's entry in the vector
// table (ARM ARM Table B1-3).
var vectorOffset = map[ExceptionType]uint32{
	ExceptionReset:         0x00,
	ExceptionUndef:         0x04,
	ExceptionSWI:           0x08,
	ExceptionPrefetchAbort: 0x0c,
	ExceptionDataAbort:     0x10,
	ExceptionIRQ:           0x18,
	ExceptionFIQ:           0x1c,
	ExceptionHVC:           0x08, // HVC traps to HYP at the SWI-numbered slot when VBAR_EL2 is selected
	ExceptionSMC:           0x08,
}

// lrOffset is the value added to the preferred return address to form the
// banked LR on entry (ARM ARM Table B1-7); negative offsets mean "subtract".
var lrOffset = map[ExceptionType]int32{
	ExceptionUndef:         0,
	ExceptionSWI:           0,
	ExceptionPrefetchAbort: 4,
	ExceptionDataAbort:     8,
	ExceptionIRQ:           4,
	ExceptionFIQ:           4,
	ExceptionHVC:           0,
	ExceptionSMC:           0,
}

// targetMode is which banked mode each exception enters (HYP/MON routing
// decided by the caller when SCR/HCR indicate a trap, not modeled here since
// it depends on translator-tracked secure state; this table covers the
// common, non-virtualized case).
var targetMode = map[ExceptionType]Mode{
	ExceptionUndef:         ModeUND,
	ExceptionSWI:           ModeSVC,
	ExceptionPrefetchAbort: ModeABT,
	ExceptionDataAbort:     ModeABT,
	ExceptionIRQ:           ModeIRQ,
	ExceptionFIQ:           ModeFIQ,
	ExceptionHVC:           ModeHYP,
	ExceptionSMC:           ModeMON,
}

// RaiseAArch32Exception performs the non-M exception-entry algorithm: bank
// SPSR, compute and bank LR, switch mode, mask interrupts appropriately, set
// CPSR.{T,E,IT}=0, and load PC from VBAR+vector (or the legacy high-vector
// address 0xffff0000 when SCTLR.V is set and VBAR is unavailable).
func (cpu *CPUState) RaiseAArch32Exception(exc ExceptionType, returnAddr uint32) {
	mode, ok := targetMode[exc]
	if !ok {
		panic("arm: RaiseAArch32Exception: no target mode for exception")
	}

	spsrVal := cpu.cpsrRead()
	cpu.switchMode(mode)
	*cpu.spsrBank() = spsrVal

	cpu.Regs[14] = uint32(int32(returnAddr) + lrOffset[exc])

	mask := uint32(CPSRI)
	if exc == ExceptionFIQ || exc == ExceptionReset {
		mask |= CPSRF
	}
	if mode == ModeMON || mode == ModeHYP {
		mask |= CPSRA
	}
	cpu.UncachedCPSR |= mask
	cpu.cpsrWrite(0, CPSRT|CPSRE|CPSRIT, WriteRaw)

	base := cpu.Sys.Vbar[EL1]
	if cpu.HighVectors && base == 0 {
		base = 0xffff0000
	}
	cpu.Regs[15] = base + vectorOffset[exc]
	cpu.clearExclusive()
}

// AArch32ExceptionReturn implements the exception-return sequence used by
// movs pc,lr / subs pc,lr,#n / rfe: restoring CPSR from the current mode's
// SPSR (cpsrWrite switches mode itself when the restored CPSR.M differs).
func (cpu *CPUState) AArch32ExceptionReturn(newPC uint32) {
	spsr := *cpu.spsrBank()
	cpu.cpsrWrite(spsr, 0xffffffff, WriteException)
	cpu.Regs[15] = newPC
	cpu.clearExclusive()
}
