package arm

// RaiseDataAbort/RaiseInstructionAbort are the "on failure" half of the
// GetPhysAddr contract (spec §4.D: "On failure it records DFSR/DFAR (or
// IFSR/IFAR), sets exception_index, and returns FAIL"). A translator calls
// GetPhysAddr itself and, on error, passes the returned *TranslationFault
// here to populate the guest-visible fault registers and perform exception
// entry, instead of this package reaching into Bus/decode state it doesn't
// own.

// dfsrStatus encodes a TranslationFault into the AArch32 short-descriptor
// FSR status field. PMSAv7 and PMSAv8 always report Level 0 (spec §4.D.2's
// literal 0b1101/0b0000 codes, and §8 scenario 3's literal 0b000100 for a
// PMSAv8 overlap); the v5/v6 walk reports its real table level so the
// classic section-vs-page status split is preserved.
func dfsrStatus(f *TranslationFault) uint32 {
	switch f.Kind {
	case FaultBackground:
		return 0b0000
	case FaultPermission:
		switch f.Level {
		case 0:
			return 0b1101
		case 1:
			return 0b01101
		default:
			return 0b01111
		}
	case FaultDomain:
		if f.Level == 1 {
			return 0b01001
		}
		return 0b01011
	case FaultTranslation:
		switch f.Level {
		case 0:
			return 0b000100
		case 1:
			return 0b00101
		default:
			return 0b00111
		}
	case FaultAccessFlag:
		if f.Level == 1 {
			return 0b00011
		}
		return 0b00110
	case FaultAlignment:
		return 0b00001
	default:
		return 0b00000
	}
}

// aarch64FaultStatus encodes a TranslationFault into the ESR_ELx DFSC/IFSC
// field (ARM ARM D13.2.37), used for both data and instruction aborts.
func aarch64FaultStatus(f *TranslationFault) uint32 {
	level := uint32(f.Level)
	if f.Level < 0 {
		level = 0
	}
	switch f.Kind {
	case FaultAccessFlag:
		return 0b001000 | level
	case FaultPermission:
		return 0b001100 | level
	case FaultAlignment:
		return 0b100001
	default: // FaultTranslation, FaultBackground, FaultDomain have no AArch64 analogue
		return 0b000100 | level
	}
}

// RaiseDataAbort fills DFSR/DFAR (AArch32) or ESR_ELx/FAR_ELx (AArch64) from
// a failed GetPhysAddr call and performs Data Abort exception entry.
func (cpu *CPUState) RaiseDataAbort(vaddr uint64, returnAddr uint64, fault *TranslationFault) {
	if cpu.Features.Has(FeatureAArch64) {
		cpu.raiseAArch64Abort(vaddr, returnAddr, fault, false)
		return
	}
	status := dfsrStatus(fault)
	if fault.Write {
		status |= 1 << 11
	}
	cpu.Sys.Dfar = uint32(vaddr)
	cpu.Sys.Dfsr = status
	cpu.RaiseAArch32Exception(ExceptionDataAbort, uint32(returnAddr))
}

// RaiseInstructionAbort fills IFSR/IFAR (AArch32) or ESR_ELx/FAR_ELx
// (AArch64) from a failed GetPhysAddr call and performs Prefetch
// Abort/Instruction Abort exception entry.
func (cpu *CPUState) RaiseInstructionAbort(vaddr uint64, returnAddr uint64, fault *TranslationFault) {
	if cpu.Features.Has(FeatureAArch64) {
		cpu.raiseAArch64Abort(vaddr, returnAddr, fault, true)
		return
	}
	cpu.Sys.Ifar = uint32(vaddr)
	cpu.Sys.Ifsr = dfsrStatus(fault)
	cpu.RaiseAArch32Exception(ExceptionPrefetchAbort, uint32(returnAddr))
}

func (cpu *CPUState) raiseAArch64Abort(vaddr, returnAddr uint64, fault *TranslationFault, isInst bool) {
	targetEL := cpu.currentEL()
	if targetEL == EL0 {
		targetEL = EL1
	}
	lowerEL := cpu.currentEL() < targetEL
	dfsc := aarch64FaultStatus(fault)

	var esr uint64
	if isInst {
		esr = synInstructionAbort(lowerEL, dfsc)
	} else {
		esr = synDataAbortWithISS(lowerEL, fault.Write, dfsc)
	}
	vecOff := cpu.vectorFor(targetEL, VectorLowerAA64Sync, VectorCurrentELSPxSync)
	cpu.TakeAArch64Exception(targetEL, returnAddr, vecOff, esr, vaddr, true)
}
