package arm

// Mode and Exception Level state machine (spec §4.C).

// bankNumber maps an AArch32 mode to its r13/SPSR bank index. USR and SYS
// share bank 0. HYP is bank 6. An unrecognized mode is a fatal assertion in
// the original; here it panics, since it indicates a translator bug rather
// than a guest-recoverable condition.
func bankNumber(mode Mode) int {
	switch mode {
	case ModeUSR, ModeSYS:
		return bankUSR
	case ModeSVC:
		return bankSVC
	case ModeABT:
		return bankABT
	case ModeUND:
		return bankUND
	case ModeIRQ:
		return bankIRQ
	case ModeFIQ:
		return bankFIQ
	case ModeHYP:
		return bankHYP
	case ModeMON:
		return bankMON
	default:
		panic("arm: bankNumber: unknown mode")
	}
}

// r14BankNumber is like bankNumber but HYP shares its LR bank with USR/SYS,
// since HYP mode has no banked LR of its own (spec §4.C).
func r14BankNumber(mode Mode) int {
	if mode == ModeHYP {
		return bankUSR
	}
	return bankNumber(mode)
}

// SwitchMode exposes switchMode to callers outside the package (debuggers,
// conformance harnesses).
func (cpu *CPUState) SwitchMode(newMode Mode) { cpu.switchMode(newMode) }

// switchMode implements the AArch32 mode-change algorithm (spec §4.C):
// banking the r8-r12 FIQ shadow, saving r13/r14/SPSR of the old mode, and
// loading the new mode's bank. A no-op when old==new.
func (cpu *CPUState) switchMode(newMode Mode) {
	oldMode := cpu.Mode
	if oldMode == newMode {
		return
	}

	if oldMode == ModeFIQ || newMode == ModeFIQ {
		// Swap regs[8..13] with usr_regs/fiq_regs as appropriate.
		if oldMode == ModeFIQ {
			for i := 0; i < 6; i++ {
				cpu.FiqRegs[i] = cpu.Regs[8+i]
				cpu.Regs[8+i] = cpu.UsrRegs[i]
			}
		} else {
			for i := 0; i < 6; i++ {
				cpu.UsrRegs[i] = cpu.Regs[8+i]
			}
			if newMode == ModeFIQ {
				for i := 0; i < 6; i++ {
					cpu.Regs[8+i] = cpu.FiqRegs[i]
				}
			}
		}
	}

	// SPSR is always accessed through spsrBank(), which indexes by the
	// current mode, so there is nothing to copy here: banked_spsr[bank(old)]
	// already holds whatever the guest last wrote to SPSR in oldMode.
	cpu.BankedR13[bankNumber(oldMode)] = cpu.Regs[13]
	cpu.BankedR14[r14BankNumber(oldMode)] = cpu.Regs[14]

	cpu.Regs[13] = cpu.BankedR13[bankNumber(newMode)]
	cpu.Regs[14] = cpu.BankedR14[r14BankNumber(newMode)]

	cpu.Mode = newMode
	cpu.clearExclusive()
}

// spsrBank returns a pointer to the banked SPSR slot for the current mode,
// so callers can read/write "the SPSR" without re-deriving the bank index.
func (cpu *CPUState) spsrBank() *uint32 {
	return &cpu.BankedSpsr[bankNumber(cpu.Mode)]
}

// CurrentEL exposes currentEL to callers outside the package (debuggers,
// conformance harnesses).
func (cpu *CPUState) CurrentEL() ExceptionLevel { return cpu.currentEL() }

// currentEL returns PSTATE.EL for AArch64 state, or the EL implied by CPSR.M
// otherwise (spec §4.C).
func (cpu *CPUState) currentEL() ExceptionLevel {
	if cpu.Features.Has(FeatureAArch64) {
		return ExceptionLevel((cpu.PState & PStateEL) >> 2)
	}
	return armCPUModeToEL(cpu, cpu.Mode)
}

// armCPUModeToEL computes the EL implied by an AArch32 mode (spec §4.C).
func armCPUModeToEL(cpu *CPUState, mode Mode) ExceptionLevel {
	switch mode {
	case ModeUSR:
		return EL0
	case ModeHYP:
		return EL2
	case ModeMON:
		return EL3
	default:
		return EL1
	}
}

// aarch64SpIndex returns which sp_el[] slot is architecturally visible,
// computed from PSTATE.SP and the current EL ("sp = 0 always selects
// sp_el0", spec §4.C).
func aarch64SPIndex(pstate uint64, el ExceptionLevel) uint8 {
	if pstate&PStateSP != 0 {
		return uint8(el)
	}
	return 0
}

// aarch64SaveSP and aarch64RestoreSP bracket every EL change, moving the
// architecturally-visible SP (xregs[31]) into/out of sp_el[idx] (spec §3,
// §4.C PSTATE/SP coupling invariant).
func (cpu *CPUState) aarch64SaveSP() {
	idx := aarch64SPIndex(cpu.PState, cpu.currentEL())
	cpu.SPEL[idx] = cpu.XRegs[31]
}

func (cpu *CPUState) aarch64RestoreSP(newPState uint64) {
	newEL := ExceptionLevel((newPState & PStateEL) >> 2)
	idx := aarch64SPIndex(newPState, newEL)
	cpu.XRegs[31] = cpu.SPEL[idx]
	cpu.CurrentSPEL = idx
}

// aarch64PstateMode packs an EL and SP-selector bit into the low 5 bits of
// PSTATE the way M[4:0] would appear in CPSR, used when constructing a fresh
// PSTATE for reset or exception entry.
func aarch64PstateMode(el ExceptionLevel, useSP bool) uint64 {
	v := uint64(el) << 2
	if useSP && el != EL0 {
		v |= PStateSP
	}
	return v
}

// pstateWriteWithSPChange implements the AArch64 analogue of switch_mode: if
// the new M (SP selector + EL) differs from the old, the SP is saved, the new
// PSTATE is committed, the SP is restored from the new bank, and hidden flags
// are rebuilt (spec §4.C).
func (cpu *CPUState) pstateWriteWithSPChange(newPState uint64) {
	oldM := cpu.PState & (PStateSP | PStateEL)
	newM := newPState & (PStateSP | PStateEL)

	if oldM != newM {
		cpu.aarch64SaveSP()
		cpu.PState = newPState
		cpu.aarch64RestoreSP(newPState)
	} else {
		cpu.PState = newPState
	}
	cpu.rebuildHiddenFlags()
	cpu.clearExclusive()
}

// pstateSetEL moves PSTATE.EL, going through the SP-change bracket so the SP
// banking invariant is preserved, then sets the SP-selector bit appropriately
// for "handler" (SPx) vs "thread" (SP0) semantics.
func (cpu *CPUState) pstateSetEL(el ExceptionLevel, useSP bool) {
	newPState := cpu.PState &^ (PStateSP | PStateEL)
	newPState |= uint64(el) << 2
	if useSP && el != EL0 {
		newPState |= PStateSP
	}
	cpu.pstateWriteWithSPChange(newPState)
}

// rebuildHiddenFlags is the hook triggered whenever a mode/EL/HCR_EL2.E2H
// change could affect the cached translation regime or NZCV/Q/GE
// presentation. The teacher's rv64 core has no equivalent (RISC-V has no
// hidden-flag cache); this is grounded directly on spec §4.C "hidden-flag
// rebuild trigger" and §9's TranslationRegime-recompute note.
func (cpu *CPUState) rebuildHiddenFlags() {
	cpu.cachedRegime = regimeUnknown
}

// clearExclusive drops any outstanding load-exclusive reservation. Must be
// called on mode change, EL change, exception entry/exit, and external
// aborts (spec §5).
func (cpu *CPUState) clearExclusive() {
	cpu.ExclusiveAddr = ^uint64(0)
}
