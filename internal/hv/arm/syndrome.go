package arm

// ESR_ELx syndrome construction (spec §4.E.4). Each syn_* helper packs an EC
// (bits 31:26) and an exception-class-specific ISS, mirroring the ARM ARM's
// "Exception Syndrome Register" encoding tables.

// Exception classes (ESR_ELx.EC), the subset this core's trap paths raise.
const (
	ecUnknown       = 0x00
	ecWFxTrap       = 0x01
	ecBTITrap       = 0x0d
	ecSVC64         = 0x15
	ecHVC64         = 0x16
	ecSMC64         = 0x17
	ecSysRegTrap64  = 0x18
	ecInstAbortLow  = 0x20
	ecInstAbort     = 0x21
	ecPCAlignment   = 0x22
	ecDataAbortLow  = 0x24
	ecDataAbort     = 0x25
	ecSPAlignment   = 0x26
	ecSoftwareStep  = 0x32
	ecSoftwareStep1 = 0x33
	ecBreakpoint    = 0x3c
)

func syndrome64Create(ec uint32, il bool, iss uint32) uint64 {
	v := uint64(ec) << 26
	if il {
		v |= 1 << 25
	}
	v |= uint64(iss) & 0x1ffffff
	return v
}

// synDataAbortNoISS builds ESR for a data abort where no valid ISS
// information is available (e.g. a stage-1 walk aborted by the host Bus
// itself, spec §4.E.4).
func synDataAbortNoISS(lowerEL bool, dfsc uint32) uint64 {
	ec := uint32(ecDataAbort)
	if lowerEL {
		ec = ecDataAbortLow
	}
	return syndrome64Create(ec, true, dfsc&0x3f)
}

// synDataAbortWithISS builds a full data-abort ISS: ISV=0 (no decoded
// access-size/register info, since this core has no instruction decoder),
// WnR, and the DFSC fault code.
func synDataAbortWithISS(lowerEL bool, wnr bool, dfsc uint32) uint64 {
	ec := uint32(ecDataAbort)
	if lowerEL {
		ec = ecDataAbortLow
	}
	iss := dfsc & 0x3f
	if wnr {
		iss |= 1 << 6
	}
	return syndrome64Create(ec, true, iss)
}

func synInstructionAbort(lowerEL bool, ifsc uint32) uint64 {
	ec := uint32(ecInstAbort)
	if lowerEL {
		ec = ecInstAbortLow
	}
	return syndrome64Create(ec, true, ifsc&0x3f)
}

func synUncategorized() uint64 {
	return syndrome64Create(ecUnknown, true, 0)
}

// synWFx encodes a trapped WFI/WFE: bit0 selects WFE vs WFI, bit24 (TI) is
// reserved 0 here since this core does not model WFIT/WFET.
func synWFx(isWFE bool) uint64 {
	iss := uint32(0)
	if isWFE {
		iss = 1
	}
	return syndrome64Create(ecWFxTrap, true, iss)
}

func synAA64SVC(imm16 uint16) uint64 {
	return syndrome64Create(ecSVC64, true, uint32(imm16))
}

func synAA64HVC(imm16 uint16) uint64 {
	return syndrome64Create(ecHVC64, true, uint32(imm16))
}

func synAA64SMC(imm16 uint16) uint64 {
	return syndrome64Create(ecSMC64, true, uint32(imm16)<<5)
}

func synAA64BKPT(imm16 uint16) uint64 {
	return syndrome64Create(ecBreakpoint, true, uint32(imm16))
}

func synSWStep(isv bool, ex, iss2 uint32) uint64 {
	iss := iss2 & 0x3f
	if isv {
		iss |= 1 << 24
		iss |= (ex & 1) << 6
	}
	return syndrome64Create(ecSoftwareStep, true, iss)
}

func synBTITrap(btype uint32) uint64 {
	return syndrome64Create(ecBTITrap, true, btype&3)
}

// synAA64SysRegTrap encodes a trapped MRS/MSR (system register access) per
// the Op0/Op2/Op1/CRn/Rt/CRm/Direction ISS layout.
func synAA64SysRegTrap(op0, op2, op1, crn, rt, crm uint8, isRead bool) uint64 {
	iss := uint32(op2&7)<<17 | uint32(op1&7)<<14 | uint32(crn&15)<<10 |
		uint32(rt&31)<<5 | uint32(crm&15)<<1 | uint32(op0&3)<<20
	if isRead {
		iss |= 1
	}
	return syndrome64Create(ecSysRegTrap64, true, iss)
}
