package arm

// Register file & flags (spec §4.B). CPSR is reconstructed from the cached
// NF/ZF/CF/VF/QF/GE/IT/T fields on every read and decomposed back into them
// on every write; this representation is load-bearing (spec §9 "undefined
// behavior by design" flag cache) so that translator-emitted arithmetic can
// write NF/ZF/VF directly without masking: NF holds the N bit unshifted in
// bit 31, ZF==0 means Z is set, VF holds V in bit 31, CF is 0 or 1.

// cpsrRead reassembles CPSR from uncachedCPSR plus the denormalized flag
// cache (spec §3 invariant: cpsr_read = uncached_cpsr | reassembled(...)).
func (cpu *CPUState) cpsrRead() uint32 {
	v := (cpu.UncachedCPSR &^ CPSRM) | uint32(cpu.Mode)
	if cpu.NF&0x80000000 != 0 {
		v |= CPSRN
	}
	if cpu.ZF == 0 {
		v |= CPSRZ
	}
	if cpu.CF != 0 {
		v |= CPSRC
	}
	if cpu.VF&0x80000000 != 0 {
		v |= CPSRV
	}
	if cpu.QF != 0 {
		v |= CPSRQ
	}
	v |= (cpu.GE << 16) & CPSRGE
	v |= (cpu.CondexecBits << 8) & CPSRIT2_7
	v |= (cpu.CondexecBits << 25) & CPSRIT0_1
	if cpu.Thumb {
		v |= CPSRT
	}
	return v
}

// cpsrWrite updates the flag caches (only where mask selects those bits),
// the mode (invoking switchMode first), and uncachedCPSR. writeType governs
// what happens when the requested mode is invalid for the current state
// (spec §4.B): a ByInstr write into an unreachable mode drops CPSR.M from the
// mask, so the mode stays unchanged, and sets IL instead of switching.
func (cpu *CPUState) cpsrWrite(val, mask uint32, wt WriteType) {
	if mask&CPSRN != 0 {
		if val&CPSRN != 0 {
			cpu.NF = 0x80000000
		} else {
			cpu.NF = 0
		}
	}
	if mask&CPSRZ != 0 {
		if val&CPSRZ != 0 {
			cpu.ZF = 0
		} else {
			cpu.ZF = 1
		}
	}
	if mask&CPSRC != 0 {
		if val&CPSRC != 0 {
			cpu.CF = 1
		} else {
			cpu.CF = 0
		}
	}
	if mask&CPSRV != 0 {
		if val&CPSRV != 0 {
			cpu.VF = 0x80000000
		} else {
			cpu.VF = 0
		}
	}
	if mask&CPSRQ != 0 {
		if val&CPSRQ != 0 {
			cpu.QF = 1
		} else {
			cpu.QF = 0
		}
	}
	if mask&CPSRGE != 0 {
		cpu.GE = (val & CPSRGE) >> 16
	}
	if mask&CPSRIT != 0 {
		cpu.CondexecBits = ((val & CPSRIT2_7) >> 8) | ((val & CPSRIT0_1) >> 25)
	}
	if mask&CPSRT != 0 {
		cpu.Thumb = val&CPSRT != 0
	}

	if mask&CPSRM != 0 {
		newMode := Mode(val & CPSRM)
		if wt == WriteByInstr && !cpu.modeReachable(newMode) {
			mask &^= CPSRM
			val |= CPSRIL
			cpu.UncachedCPSR |= CPSRIL
		} else {
			cpu.switchMode(newMode)
		}
	}

	keepMask := ^uint32(CPSRNZCV | CPSRQ | CPSRGE | CPSRIT | CPSRT | CPSRM)
	cpu.UncachedCPSR = (cpu.UncachedCPSR &^ (mask & keepMask)) | (val & mask & keepMask)
}

// modeReachable reports whether mode may be entered by an ordinary guest
// CPSR write from the current state (e.g. entering HYP or MON from software
// requires a dedicated instruction/trap, not a plain MSR CPSR_c).
func (cpu *CPUState) modeReachable(mode Mode) bool {
	switch mode {
	case ModeUSR, ModeFIQ, ModeIRQ, ModeSVC, ModeABT, ModeUND, ModeSYS:
		return true
	case ModeHYP:
		return cpu.Mode == ModeHYP
	case ModeMON:
		return cpu.Features.Has(FeatureEL3)
	default:
		return false
	}
}

// CPSRRead/CPSRWrite are the exported forms used by the translator and tests.
func (cpu *CPUState) CPSRRead() uint32 { return cpu.cpsrRead() }

func (cpu *CPUState) CPSRWrite(val, mask uint32, wt WriteType) {
	cpu.cpsrWrite(val, mask, wt)
}

// xPSR packs IPSR (exception number), EPSR (T, IT, ICI) and APSR (NZCVQ)
// for ARMv7-M, which has no CPSR.M/mode concept (spec §4.B).
func (cpu *CPUState) XPSRRead() uint32 {
	v := cpu.V7M.Exception & 0x1ff
	if cpu.NF&0x80000000 != 0 {
		v |= CPSRN
	}
	if cpu.ZF == 0 {
		v |= CPSRZ
	}
	if cpu.CF != 0 {
		v |= CPSRC
	}
	if cpu.VF&0x80000000 != 0 {
		v |= CPSRV
	}
	if cpu.QF != 0 {
		v |= CPSRQ
	}
	v |= (cpu.CondexecBits << 8) & CPSRIT2_7
	v |= (cpu.CondexecBits << 25) & CPSRIT0_1
	if cpu.Thumb {
		v |= CPSRT
	}
	return v
}

func (cpu *CPUState) XPSRWrite(val, mask uint32) {
	if mask&CPSRN != 0 {
		if val&CPSRN != 0 {
			cpu.NF = 0x80000000
		} else {
			cpu.NF = 0
		}
	}
	if mask&CPSRZ != 0 {
		if val&CPSRZ != 0 {
			cpu.ZF = 0
		} else {
			cpu.ZF = 1
		}
	}
	if mask&CPSRC != 0 {
		if val&CPSRC != 0 {
			cpu.CF = 1
		} else {
			cpu.CF = 0
		}
	}
	if mask&CPSRV != 0 {
		if val&CPSRV != 0 {
			cpu.VF = 0x80000000
		} else {
			cpu.VF = 0
		}
	}
	if mask&CPSRQ != 0 {
		if val&CPSRQ != 0 {
			cpu.QF = 1
		} else {
			cpu.QF = 0
		}
	}
	if mask&CPSRIT != 0 {
		cpu.CondexecBits = ((val & CPSRIT2_7) >> 8) | ((val & CPSRIT0_1) >> 25)
	}
	if mask&CPSRT != 0 {
		cpu.Thumb = val&CPSRT != 0
	}
	if mask&0x1ff != 0 {
		cpu.V7M.Exception = val & 0x1ff
	}
}

// pstateRead reassembles PSTATE (AArch64) the same way cpsrRead reassembles
// CPSR: NF/ZF/CF/VF are mirrored through the same cache (spec §3).
func (cpu *CPUState) pstateRead() uint64 {
	v := cpu.PState &^ uint64(PStateN|PStateZ|PStateC|PStateV)
	if cpu.NF&0x80000000 != 0 {
		v |= PStateN
	}
	if cpu.ZF == 0 {
		v |= PStateZ
	}
	if cpu.CF != 0 {
		v |= PStateC
	}
	if cpu.VF&0x80000000 != 0 {
		v |= PStateV
	}
	return v
}

func (cpu *CPUState) pstateWrite(val uint64) {
	cpu.PState = val &^ uint64(PStateN|PStateZ|PStateC|PStateV)
	if val&PStateN != 0 {
		cpu.NF = 0x80000000
	} else {
		cpu.NF = 0
	}
	if val&PStateZ != 0 {
		cpu.ZF = 0
	} else {
		cpu.ZF = 1
	}
	if val&PStateC != 0 {
		cpu.CF = 1
	} else {
		cpu.CF = 0
	}
	if val&PStateV != 0 {
		cpu.VF = 0x80000000
	} else {
		cpu.VF = 0
	}
	cpu.DAIF = uint32(val & (PStateD | PStateA | PStateI | PStateF))
}

func (cpu *CPUState) pstateWriteMasked(val, mask uint64) {
	cur := cpu.pstateRead()
	cpu.pstateWrite((cur &^ mask) | (val & mask))
}

// PSTATERead/PSTATEWrite/PSTATEWriteMasked are the exported AArch64 forms.
func (cpu *CPUState) PSTATERead() uint64 { return cpu.pstateRead() }

func (cpu *CPUState) PSTATEWrite(val uint64) { cpu.pstateWrite(val) }

func (cpu *CPUState) PSTATEWriteMasked(val, mask uint64) { cpu.pstateWriteMasked(val, mask) }

// PSTATEWriteWithSPChange is the exported form of pstateWriteWithSPChange,
// used whenever an EL change accompanies the PSTATE write (exception entry,
// ERET, MSR SPSel).
func (cpu *CPUState) PSTATEWriteWithSPChange(val uint64) { cpu.pstateWriteWithSPChange(val) }

// PSTATESetEL is the exported form of pstateSetEL.
func (cpu *CPUState) PSTATESetEL(el ExceptionLevel, useSP bool) { cpu.pstateSetEL(el, useSP) }
