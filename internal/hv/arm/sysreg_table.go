package arm

import "fmt"

// buildTTable constructs this CPU instance's system-register dispatch table
// (spec §4.F). Each entry's Get/Set closures bind directly to a field of
// cpu.Sys (or a computed quantity like MIDR), captured over this specific
// *CPUState — the Go realization of spec §9's pointer-based Field redesign.
// The table is built once, in initCPUModel, and never rebuilt.
func (cpu *CPUState) buildTTable() {
	t := newTTable()

	reg := func(r CPRegInfo, cp int, is64 bool, crn, opc1, crm, opc2 uint8, aa64 bool, op0 uint8) {
		cpy := r
		if r.State == StateAA32 || r.State == StateBoth {
			must(t.insert(encodeAA32Key(cp, is64, crn, opc1, crm, opc2), false, &cpy))
		}
		if r.State == StateAA64 || r.State == StateBoth {
			must(t.insert(encodeAA64Key(op0, opc1, crn, crm, opc2), true, &cpy))
		}
	}

	// regSplit is reg's more general form, for the handful of registers whose
	// AArch32 and AArch64 encodings genuinely disagree (not just a renaming):
	// the generic timer's MRRC-style 64-bit AArch32 accesses (CNTx_CVAL) carry
	// no CRn/Opc2 of their own, and the CTL registers keep Opc1=0 in the
	// legacy CP15 encoding while their AArch64 Op1 is 3 (EL1) or 4 (EL2),
	// per the ARM ARM's "Generic Timer registers" summary table.
	regSplit := func(r CPRegInfo, cp int, is64AA32 bool, crnAA32, opc1AA32, crmAA32, opc2AA32 uint8, op0, op1AA64, crnAA64, crmAA64, opc2AA64 uint8) {
		cpy := r
		if r.State == StateAA32 || r.State == StateBoth {
			must(t.insert(encodeAA32Key(cp, is64AA32, crnAA32, opc1AA32, crmAA32, opc2AA32), false, &cpy))
		}
		if r.State == StateAA64 || r.State == StateBoth {
			must(t.insert(encodeAA64Key(op0, op1AA64, crnAA64, crmAA64, opc2AA64), true, &cpy))
		}
	}

	// --- Identification registers (read-only, mostly constant) ---
	reg(CPRegInfo{Name: "MIDR_EL1", MinEL: EL1, Access: AccessRO, State: StateBoth,
		Get: func(c *CPUState) uint64 { return uint64(c.Sys.Midr) }},
		15, false, 0, 0, 0, 0, true, 3)

	reg(CPRegInfo{Name: "MPIDR_EL1", MinEL: EL1, Access: AccessRO, State: StateBoth,
		Get: func(c *CPUState) uint64 { return c.Sys.Mpidr }},
		15, false, 0, 0, 0, 5, true, 3)

	reg(CPRegInfo{Name: "VMPIDR_EL2", MinEL: EL2, Access: AccessRW, State: StateBoth,
		Get: func(c *CPUState) uint64 { return c.Sys.VMpidrEl2 },
		Set: func(c *CPUState, v uint64) { c.Sys.VMpidrEl2 = v }},
		0, false, 0, 4, 0, 5, true, 3)

	reg(CPRegInfo{Name: "MVFR0_EL1", MinEL: EL1, Access: AccessRO, State: StateBoth,
		Get: func(c *CPUState) uint64 { return uint64(c.Sys.Mvfr0) }},
		15, false, 0, 0, 3, 0, true, 3)

	reg(CPRegInfo{Name: "MVFR1_EL1", MinEL: EL1, Access: AccessRO, State: StateBoth,
		Get: func(c *CPUState) uint64 { return uint64(c.Sys.Mvfr1) }},
		15, false, 0, 0, 3, 1, true, 3)

	reg(CPRegInfo{Name: "CTR_EL0", MinEL: EL0, Access: AccessRO, State: StateBoth,
		Get: func(c *CPUState) uint64 { return uint64(c.Sys.CTR) }},
		15, false, 0, 3, 0, 1, true, 3)

	reg(CPRegInfo{Name: "CCSIDR_EL1", MinEL: EL1, Access: AccessRO, State: StateBoth,
		Get: func(c *CPUState) uint64 { return uint64(c.Sys.CCSIDR) }},
		15, false, 0, 1, 0, 0, true, 3)

	reg(CPRegInfo{Name: "CSSELR_EL1", MinEL: EL1, Access: AccessRW, State: StateBoth,
		Get: func(c *CPUState) uint64 { return uint64(c.Sys.CSSELR) },
		Set: func(c *CPUState, v uint64) { c.Sys.CSSELR = uint32(v) }},
		15, false, 0, 2, 0, 0, true, 3)

	reg(CPRegInfo{Name: "CLIDR_EL1", MinEL: EL1, Access: AccessRO, State: StateBoth,
		Get: func(c *CPUState) uint64 { return uint64(c.Sys.CLIDR) }},
		15, false, 1, 1, 0, 1, true, 3)

	// --- AArch32 VMSA (short-descriptor) ---
	reg(CPRegInfo{Name: "TTBR0", MinEL: EL1, Access: AccessRW, State: StateAA32,
		Get: func(c *CPUState) uint64 { return c.Sys.TTBR0 },
		Set: func(c *CPUState, v uint64) { c.Sys.TTBR0 = v; c.rebuildHiddenFlags() }},
		15, false, 2, 0, 0, 0, false, 0)

	reg(CPRegInfo{Name: "TTBR1", MinEL: EL1, Access: AccessRW, State: StateAA32,
		Get: func(c *CPUState) uint64 { return c.Sys.TTBR1 },
		Set: func(c *CPUState, v uint64) { c.Sys.TTBR1 = v; c.rebuildHiddenFlags() }},
		15, false, 2, 0, 0, 1, false, 0)

	reg(CPRegInfo{Name: "TTBCR", MinEL: EL1, Access: AccessRW, State: StateAA32,
		Get: func(c *CPUState) uint64 { return uint64(c.Sys.C2Ctrl) },
		Set: func(c *CPUState, v uint64) { c.Sys.C2Ctrl = uint32(v); c.rebuildHiddenFlags() }},
		15, false, 2, 0, 0, 2, false, 0)

	reg(CPRegInfo{Name: "DACR", MinEL: EL1, Access: AccessRW, State: StateAA32,
		Get: func(c *CPUState) uint64 { return uint64(c.Sys.DACR) },
		Set: func(c *CPUState, v uint64) { c.Sys.DACR = uint32(v) }},
		15, false, 3, 0, 0, 0, false, 0)

	reg(CPRegInfo{Name: "DFSR", MinEL: EL1, Access: AccessRW, State: StateAA32,
		Get: func(c *CPUState) uint64 { return uint64(c.Sys.Dfsr) },
		Set: func(c *CPUState, v uint64) { c.Sys.Dfsr = uint32(v) }},
		15, false, 5, 0, 0, 0, false, 0)

	reg(CPRegInfo{Name: "IFSR", MinEL: EL1, Access: AccessRW, State: StateAA32,
		Get: func(c *CPUState) uint64 { return uint64(c.Sys.Ifsr) },
		Set: func(c *CPUState, v uint64) { c.Sys.Ifsr = uint32(v) }},
		15, false, 5, 0, 0, 1, false, 0)

	reg(CPRegInfo{Name: "DFAR", MinEL: EL1, Access: AccessRW, State: StateAA32,
		Get: func(c *CPUState) uint64 { return uint64(c.Sys.Dfar) },
		Set: func(c *CPUState, v uint64) { c.Sys.Dfar = uint32(v) }},
		15, false, 6, 0, 0, 0, false, 0)

	reg(CPRegInfo{Name: "IFAR", MinEL: EL1, Access: AccessRW, State: StateAA32,
		Get: func(c *CPUState) uint64 { return uint64(c.Sys.Ifar) },
		Set: func(c *CPUState, v uint64) { c.Sys.Ifar = uint32(v) }},
		15, false, 6, 0, 0, 2, false, 0)

	reg(CPRegInfo{Name: "FCSEIDR", MinEL: EL1, Access: AccessRW, State: StateAA32,
		Get: func(c *CPUState) uint64 { return uint64(c.Sys.C13FCSE) },
		Set: func(c *CPUState, v uint64) { c.Sys.C13FCSE = uint32(v); c.rebuildHiddenFlags() }},
		15, false, 13, 0, 0, 0, false, 0)

	reg(CPRegInfo{Name: "CONTEXTIDR_EL1", MinEL: EL1, Access: AccessRW, State: StateBoth,
		Get: func(c *CPUState) uint64 { return c.Sys.ContextidrEl1 },
		Set: func(c *CPUState, v uint64) { c.Sys.ContextidrEl1 = v }},
		15, false, 13, 0, 0, 1, true, 3)

	reg(CPRegInfo{Name: "CBAR", MinEL: EL1, Access: AccessRO, State: StateAA32, Flags: FlagConst,
		Get: func(c *CPUState) uint64 { return uint64(c.Sys.Cbar) }},
		15, false, 15, 4, 0, 0, false, 0)

	// --- SCTLR/VBAR/FAR/ESR/ELR/MAIR/TCR/TTBR per EL ---
	for _, spec := range []struct {
		name string
		el   ExceptionLevel
		crn  uint8
		opc1 uint8
	}{{"SCTLR_EL1", EL1, 1, 0}, {"SCTLR_EL2", EL2, 1, 4}, {"SCTLR_EL3", EL3, 1, 6}} {
		el := spec.el
		reg(CPRegInfo{Name: spec.name, MinEL: el, Access: AccessRW, State: StateBoth,
			Get: func(c *CPUState) uint64 { return uint64(c.Sys.Sctlr[el]) },
			Set: func(c *CPUState, v uint64) { c.Sys.Sctlr[el] = uint32(v); c.rebuildHiddenFlags() }},
			15, false, spec.crn, spec.opc1, 0, 0, true, 3)
	}

	for _, spec := range []struct {
		name string
		el   ExceptionLevel
		opc1 uint8
	}{{"VBAR_EL1", EL1, 0}, {"VBAR_EL2", EL2, 4}, {"VBAR_EL3", EL3, 6}} {
		el := spec.el
		reg(CPRegInfo{Name: spec.name, MinEL: el, Access: AccessRW, State: StateBoth,
			Get: func(c *CPUState) uint64 { return c.Sys.Vbar[el] },
			Set: func(c *CPUState, v uint64) { c.Sys.Vbar[el] = v &^ 0x7ff }},
			15, false, 12, spec.opc1, 0, 0, true, 3)
	}

	for _, spec := range []struct {
		name string
		el   ExceptionLevel
		opc1 uint8
	}{{"FAR_EL1", EL1, 0}, {"FAR_EL2", EL2, 4}, {"FAR_EL3", EL3, 6}} {
		el := spec.el
		reg(CPRegInfo{Name: spec.name, MinEL: el, Access: AccessRW, State: StateBoth,
			Get: func(c *CPUState) uint64 { return c.Sys.Far[el] },
			Set: func(c *CPUState, v uint64) { c.Sys.Far[el] = v }},
			15, true, 6, spec.opc1, 0, 0, true, 3)
	}

	for _, spec := range []struct {
		name string
		el   ExceptionLevel
		opc1 uint8
	}{{"ESR_EL1", EL1, 0}, {"ESR_EL2", EL2, 4}, {"ESR_EL3", EL3, 6}} {
		el := spec.el
		reg(CPRegInfo{Name: spec.name, MinEL: el, Access: AccessRW, State: StateBoth,
			Get: func(c *CPUState) uint64 { return c.Sys.Esr[el] },
			Set: func(c *CPUState, v uint64) { c.Sys.Esr[el] = v }},
			15, false, 5, spec.opc1, 2, 0, true, 3)
	}

	for _, spec := range []struct {
		name string
		el   ExceptionLevel
		opc1 uint8
	}{{"ELR_EL1", EL1, 0}, {"ELR_EL2", EL2, 4}, {"ELR_EL3", EL3, 6}} {
		el := spec.el
		reg(CPRegInfo{Name: spec.name, MinEL: el, Access: AccessRW, State: StateAA64,
			Get: func(c *CPUState) uint64 { return c.Sys.Elr[el] },
			Set: func(c *CPUState, v uint64) { c.Sys.Elr[el] = v }},
			0, false, 0, spec.opc1, 0, 1, true, 3)
	}

	for _, spec := range []struct {
		name string
		el   ExceptionLevel
		opc1 uint8
	}{{"MAIR_EL1", EL1, 0}, {"MAIR_EL2", EL2, 4}, {"MAIR_EL3", EL3, 6}} {
		el := spec.el
		reg(CPRegInfo{Name: spec.name, MinEL: el, Access: AccessRW, State: StateAA64,
			Get: func(c *CPUState) uint64 { return c.Sys.Mair[el] },
			Set: func(c *CPUState, v uint64) { c.Sys.Mair[el] = v }},
			0, false, 10, spec.opc1, 2, 0, true, 3)
	}

	for _, spec := range []struct {
		name string
		el   ExceptionLevel
		opc1 uint8
	}{{"TCR_EL1", EL1, 0}, {"TCR_EL2", EL2, 4}, {"TCR_EL3", EL3, 6}} {
		el := spec.el
		reg(CPRegInfo{Name: spec.name, MinEL: el, Access: AccessRW, State: StateAA64,
			Get: func(c *CPUState) uint64 { return c.Sys.Tcr[el] },
			Set: func(c *CPUState, v uint64) { c.Sys.Tcr[el] = v; c.rebuildHiddenFlags() }},
			0, false, 2, spec.opc1, 0, 2, true, 3)
	}

	for _, spec := range []struct {
		name string
		el   ExceptionLevel
		opc1 uint8
	}{{"TTBR0_EL1", EL1, 0}, {"TTBR0_EL2", EL2, 4}, {"TTBR0_EL3", EL3, 6}} {
		el := spec.el
		reg(CPRegInfo{Name: spec.name, MinEL: el, Access: AccessRW, State: StateAA64,
			Get: func(c *CPUState) uint64 { return c.Sys.Ttbr0El[el] },
			Set: func(c *CPUState, v uint64) { c.Sys.Ttbr0El[el] = v; c.rebuildHiddenFlags() }},
			0, false, 2, spec.opc1, 0, 0, true, 3)
	}

	reg(CPRegInfo{Name: "TTBR1_EL1", MinEL: EL1, Access: AccessRW, State: StateAA64,
		Get: func(c *CPUState) uint64 { return c.Sys.Ttbr1El[EL1] },
		Set: func(c *CPUState, v uint64) { c.Sys.Ttbr1El[EL1] = v; c.rebuildHiddenFlags() }},
		0, false, 2, 0, 0, 1, true, 3)

	// --- EL2/EL3 control registers ---
	reg(CPRegInfo{Name: "HCR_EL2", MinEL: EL2, Access: AccessRW, State: StateBoth,
		Get: func(c *CPUState) uint64 { return c.Sys.HcrEl2 },
		Set: func(c *CPUState, v uint64) { c.Sys.HcrEl2 = v; c.rebuildHiddenFlags() }},
		15, true, 1, 4, 1, 0, true, 3)

	reg(CPRegInfo{Name: "SCR_EL3", MinEL: EL3, Access: AccessRW, State: StateBoth,
		Get: func(c *CPUState) uint64 { return c.Sys.ScrEl3 },
		Set: func(c *CPUState, v uint64) { c.Sys.ScrEl3 = v; c.rebuildHiddenFlags() }},
		15, false, 1, 6, 1, 0, true, 3)

	reg(CPRegInfo{Name: "CPTR_EL2", MinEL: EL2, Access: AccessRW, State: StateBoth,
		Get: func(c *CPUState) uint64 { return c.Sys.CptrEl2 },
		Set: func(c *CPUState, v uint64) { c.Sys.CptrEl2 = v }},
		15, false, 1, 4, 1, 2, true, 3)

	reg(CPRegInfo{Name: "CPACR_EL1", MinEL: EL1, Access: AccessRW, State: StateBoth,
		Get: func(c *CPUState) uint64 { return c.Sys.CpacrEl1 },
		Set: func(c *CPUState, v uint64) { c.Sys.CpacrEl1 = v }},
		15, false, 1, 0, 0, 2, true, 3)

	// --- Generic timer (spec §6.5 delegates to Host when present) ---
	reg(CPRegInfo{Name: "CNTFRQ_EL0", MinEL: EL1, Access: AccessRW, State: StateBoth,
		Get: func(c *CPUState) uint64 { return c.Sys.CntfrqEl0 },
		Set: func(c *CPUState, v uint64) { c.Sys.CntfrqEl0 = v }},
		15, false, 14, 0, 0, 0, true, 3)

	regSplit(CPRegInfo{Name: "CNTP_CTL_EL0", MinEL: EL1, Access: AccessRW, State: StateBoth,
		Get: func(c *CPUState) uint64 {
			if v, ok := c.host.ReadGenericTimerRegister64(3, 3, 14); ok {
				return v
			}
			return c.Sys.CntpCtlEl0
		},
		Set: func(c *CPUState, v uint64) {
			if c.host.WriteGenericTimerRegister64(3, 3, 14, v) {
				return
			}
			c.Sys.CntpCtlEl0 = v
		}},
		15, false /*32-bit MRC*/, 14, 0 /*opc1 AArch32*/, 2, 1,
		3 /*op0*/, 3 /*op1 AArch64*/, 14, 2, 1)

	regSplit(CPRegInfo{Name: "CNTP_CVAL_EL0", MinEL: EL1, Access: AccessRW, State: StateBoth,
		Get: func(c *CPUState) uint64 { return c.Sys.CntpCvalEl0 },
		Set: func(c *CPUState, v uint64) { c.Sys.CntpCvalEl0 = v }},
		15, true /*64-bit MRRC*/, 0, 2 /*opc1 AArch32, MRRC p15,2*/, 14, 0,
		3, 3 /*op1 AArch64*/, 14, 2, 2)

	regSplit(CPRegInfo{Name: "CNTHP_CTL_EL2", MinEL: EL2, Access: AccessRW, State: StateBoth,
		Get: func(c *CPUState) uint64 {
			if v, ok := c.host.ReadGenericTimerRegister64(3, 4, 14); ok {
				return v
			}
			return c.Sys.CnthpCtlEl2
		},
		Set: func(c *CPUState, v uint64) {
			if c.host.WriteGenericTimerRegister64(3, 4, 14, v) {
				return
			}
			c.Sys.CnthpCtlEl2 = v
		}},
		15, false, 14, 4, 2, 1,
		3, 4, 14, 2, 1)

	regSplit(CPRegInfo{Name: "CNTHP_CVAL_EL2", MinEL: EL2, Access: AccessRW, State: StateBoth,
		Get: func(c *CPUState) uint64 {
			if v, ok := c.host.ReadGenericTimerRegister64(3, 4, 14); ok {
				return v
			}
			return c.Sys.CnthpCvalEl2
		},
		Set: func(c *CPUState, v uint64) {
			if c.host.WriteGenericTimerRegister64(3, 4, 14, v) {
				return
			}
			c.Sys.CnthpCvalEl2 = v
		}},
		15, true, 0, 6 /*opc1 AArch32, MRRC p15,6*/, 14, 0,
		3, 4 /*op1 AArch64*/, 14, 2, 2)

	regSplit(CPRegInfo{Name: "CNTV_CTL_EL0", MinEL: EL1, Access: AccessRW, State: StateBoth,
		Get: func(c *CPUState) uint64 { return c.Sys.CntvCtlEl0 },
		Set: func(c *CPUState, v uint64) { c.Sys.CntvCtlEl0 = v }},
		15, false, 14, 0 /*opc1 AArch32*/, 3, 1,
		3, 3 /*op1 AArch64*/, 14, 3, 1)

	regSplit(CPRegInfo{Name: "CNTV_CVAL_EL0", MinEL: EL1, Access: AccessRW, State: StateBoth,
		Get: func(c *CPUState) uint64 { return c.Sys.CntvCvalEl0 },
		Set: func(c *CPUState, v uint64) { c.Sys.CntvCvalEl0 = v }},
		15, true, 0, 3 /*opc1 AArch32, MRRC p15,3*/, 14, 0,
		3, 3 /*op1 AArch64*/, 14, 3, 2)

	// --- PMSAv8 MPU registers (shared AArch32/AArch64 encodings) ---
	reg(CPRegInfo{Name: "PMSAv8_MPU_CTRL", MinEL: EL1, Access: AccessRW, State: StateBoth,
		Get: func(c *CPUState) uint64 { return uint64(c.Pmsav8.Ctrl) },
		Set: func(c *CPUState, v uint64) { c.Pmsav8.Ctrl = uint32(v); c.rebuildHiddenFlags() }},
		15, false, 6, 0, 1, 0, true, 3)

	reg(CPRegInfo{Name: "PMSAv8_MPU_RNR", MinEL: EL1, Access: AccessRW, State: StateBoth,
		Get: func(c *CPUState) uint64 { return uint64(c.Pmsav8.RNR) },
		Set: func(c *CPUState, v uint64) { c.Pmsav8.RNR = uint32(v) }},
		15, false, 6, 0, 2, 0, true, 3)

	reg(CPRegInfo{Name: "PMSAv8_MPU_MAIR0", MinEL: EL1, Access: AccessRW, State: StateBoth,
		Get: func(c *CPUState) uint64 { return uint64(c.Pmsav8.MAIR[0]) },
		Set: func(c *CPUState, v uint64) { c.Pmsav8.MAIR[0] = uint32(v) }},
		15, false, 10, 0, 2, 4, true, 3)

	reg(CPRegInfo{Name: "PMSAv8_MPU_MAIR1", MinEL: EL1, Access: AccessRW, State: StateBoth,
		Get: func(c *CPUState) uint64 { return uint64(c.Pmsav8.MAIR[1]) },
		Set: func(c *CPUState, v uint64) { c.Pmsav8.MAIR[1] = uint32(v) }},
		15, false, 10, 0, 2, 5, true, 3)

	// --- PMSAv7 MPU registers ---
	reg(CPRegInfo{Name: "PMSAv7_NUMBER", MinEL: EL1, Access: AccessRO, Flags: FlagConst,
		Get: func(c *CPUState) uint64 { return uint64(c.NumMPURegions) }},
		15, false, 0, 0, 0, 4, false, 0)

	// --- AArch64 ID feature registers (spec §4.A supplement, grounded on
	// system_registers.c's ID_AA64* block). Read-only, constant per instance;
	// ID_AA64PFR0_EL1's EL2/EL3 fields are the one part that actually varies
	// with this CPU model, the rest report the fixed feature floor this core
	// implements (VMSAv8-64, no SVE/pointer-auth/RAS).
	idAa64Pfr0 := uint64(0x1) // EL0: AArch64 only
	idAa64Pfr0 |= 0x1 << 4    // EL1: AArch64 only
	if cpu.AvailableEL2 {
		idAa64Pfr0 |= 0x1 << 8
	}
	if cpu.AvailableEL3 {
		idAa64Pfr0 |= 0x1 << 12
	}
	// PARange=0b0010 (40-bit, bits[3:0]); TGran16=0x1 (supported, bits[23:20]);
	// TGran64=0x0 (supported, bits[27:24]); TGran4=0x0 (supported, bits[31:28]) —
	// granuleFor (mmu_aarch64.go) implements all three page sizes.
	idAa64Mmfr0 := uint64(0x2) | uint64(0x1)<<20

	for _, spec := range []struct {
		name  string
		crm   uint8
		op2   uint8
		value uint64
	}{
		{"ID_AA64PFR0_EL1", 4, 0, idAa64Pfr0},
		{"ID_AA64PFR1_EL1", 4, 1, 0},
		{"ID_AA64DFR0_EL1", 5, 0, uint64(numBreakpoints-1)<<12 | uint64(numWatchpoints-1)<<20 | 0x6},
		{"ID_AA64ISAR0_EL1", 6, 0, 0},
		{"ID_AA64ISAR1_EL1", 6, 1, 0},
		{"ID_AA64MMFR0_EL1", 7, 0, idAa64Mmfr0},
		{"ID_AA64MMFR1_EL1", 7, 1, 0},
		{"ID_AA64MMFR2_EL1", 7, 2, 0},
	} {
		value := spec.value
		reg(CPRegInfo{Name: spec.name, MinEL: EL1, Access: AccessRO, State: StateAA64,
			Flags: FlagConst, ResetValue: value},
			0, false, 0, 0, spec.crm, spec.op2, true, 3)
	}

	// --- Debug breakpoint/watchpoint registers (spec §4.A supplement,
	// grounded on system_registers.c's DBGBVR<n>/DBGBCR<n>/DBGWVR<n>/
	// DBGWCR<n> blocks). Stored but not evaluated against the instruction
	// stream: this core has no single-step/watchpoint trap path.
	for n := 0; n < numBreakpoints; n++ {
		i := n
		reg(CPRegInfo{Name: fmt.Sprintf("DBGBVR%d_EL1", i), MinEL: EL1, Access: AccessRW, State: StateAA64,
			Get: func(c *CPUState) uint64 { return c.Sys.DbgBvr[i] },
			Set: func(c *CPUState, v uint64) { c.Sys.DbgBvr[i] = v }},
			0, false, 0, 0, uint8(i), 4, true, 2)
		reg(CPRegInfo{Name: fmt.Sprintf("DBGBCR%d_EL1", i), MinEL: EL1, Access: AccessRW, State: StateAA64,
			Get: func(c *CPUState) uint64 { return uint64(c.Sys.DbgBcr[i]) },
			Set: func(c *CPUState, v uint64) { c.Sys.DbgBcr[i] = uint32(v) }},
			0, false, 0, 0, uint8(i), 5, true, 2)
	}
	for n := 0; n < numWatchpoints; n++ {
		i := n
		reg(CPRegInfo{Name: fmt.Sprintf("DBGWVR%d_EL1", i), MinEL: EL1, Access: AccessRW, State: StateAA64,
			Get: func(c *CPUState) uint64 { return c.Sys.DbgWvr[i] },
			Set: func(c *CPUState, v uint64) { c.Sys.DbgWvr[i] = v }},
			0, false, 0, 0, uint8(i), 6, true, 2)
		reg(CPRegInfo{Name: fmt.Sprintf("DBGWCR%d_EL1", i), MinEL: EL1, Access: AccessRW, State: StateAA64,
			Get: func(c *CPUState) uint64 { return uint64(c.Sys.DbgWcr[i]) },
			Set: func(c *CPUState, v uint64) { c.Sys.DbgWcr[i] = uint32(v) }},
			0, false, 0, 0, uint8(i), 7, true, 2)
	}
	reg(CPRegInfo{Name: "MDSCR_EL1", MinEL: EL1, Access: AccessRW, State: StateAA64,
		Get: func(c *CPUState) uint64 { return c.Sys.Mdscr },
		Set: func(c *CPUState, v uint64) { c.Sys.Mdscr = v }},
		0, false, 0, 0, 2, 2, true, 2)

	// --- PMU administrative registers (spec §4.A supplement, grounded on
	// system_registers.c's PMCR_EL0/PMCNTENSET_EL0/PMCCNTR_EL0/PMOVSCLR_EL0/
	// PMUSERENR_EL0/PMEVCNTR<n>_EL0/PMEVTYPER<n>_EL0 group). Plain storage,
	// like CNTFRQ_EL0: no cycle/event counter is actually driven forward.
	reg(CPRegInfo{Name: "PMCR_EL0", MinEL: EL0, Access: AccessRW, State: StateAA64,
		Get: func(c *CPUState) uint64 { return c.Sys.PmcrEl0 },
		Set: func(c *CPUState, v uint64) { c.Sys.PmcrEl0 = v }},
		0, false, 9, 3, 12, 0, true, 3)

	reg(CPRegInfo{Name: "PMCNTENSET_EL0", MinEL: EL0, Access: AccessRW, State: StateAA64,
		Get: func(c *CPUState) uint64 { return c.Sys.PmcntensetEl0 },
		Set: func(c *CPUState, v uint64) { c.Sys.PmcntensetEl0 |= v }},
		0, false, 9, 3, 12, 1, true, 3)

	reg(CPRegInfo{Name: "PMOVSCLR_EL0", MinEL: EL0, Access: AccessRW, State: StateAA64,
		Get: func(c *CPUState) uint64 { return c.Sys.PmovsclrEl0 },
		Set: func(c *CPUState, v uint64) { c.Sys.PmovsclrEl0 &^= v }},
		0, false, 9, 3, 12, 3, true, 3)

	reg(CPRegInfo{Name: "PMUSERENR_EL0", MinEL: EL0, Access: AccessRW, State: StateAA64,
		Get: func(c *CPUState) uint64 { return c.Sys.PmuserenrEl0 },
		Set: func(c *CPUState, v uint64) { c.Sys.PmuserenrEl0 = v }},
		0, false, 9, 3, 14, 0, true, 3)

	reg(CPRegInfo{Name: "PMCCNTR_EL0", MinEL: EL0, Access: AccessRW, State: StateAA64,
		Get: func(c *CPUState) uint64 { return c.Sys.PmccntrEl0 },
		Set: func(c *CPUState, v uint64) { c.Sys.PmccntrEl0 = v }},
		0, false, 9, 3, 13, 0, true, 3)

	for n := 0; n < numPMUEventCounters; n++ {
		i := n
		reg(CPRegInfo{Name: fmt.Sprintf("PMEVCNTR%d_EL0", i), MinEL: EL0, Access: AccessRW, State: StateAA64,
			Get: func(c *CPUState) uint64 { return c.Sys.PmevcntrEl0[i] },
			Set: func(c *CPUState, v uint64) { c.Sys.PmevcntrEl0[i] = v }},
			0, false, 14, 3, 8, uint8(i), true, 3)
		reg(CPRegInfo{Name: fmt.Sprintf("PMEVTYPER%d_EL0", i), MinEL: EL0, Access: AccessRW, State: StateAA64,
			Get: func(c *CPUState) uint64 { return c.Sys.PmevtyperEl0[i] },
			Set: func(c *CPUState, v uint64) { c.Sys.PmevtyperEl0[i] = v }},
			0, false, 14, 3, 12, uint8(i), true, 3)
	}

	cpu.regTable = t
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
