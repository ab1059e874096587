package arm

import "fmt"

// Access gating and dispatch (spec §4.F). cpAccessOk decides whether the
// current privilege state may reach a descriptor at all before Get/Set ever
// runs; the helper_* entry points are what a translator calls for every
// MRC/MCR/MRRC/MCRR (AArch32) or MRS/MSR (AArch64) instruction.

var errUndefinedInstruction = fmt.Errorf("arm: undefined instruction (no matching system register)")
var errAccessTrap = fmt.Errorf("arm: system register access trapped")

// cpAccessOk reports whether the current EL may access reg at all, ignoring
// whether the access is a read or a write.
func (cpu *CPUState) cpAccessOk(reg *CPRegInfo) bool {
	return cpu.currentEL() >= reg.MinEL
}

// accessCheckCPReg validates a decoded access against both MinEL and the
// Access direction gate, returning errAccessTrap (which the caller turns
// into a trap to a higher EL with syn_aa64_sysregtrap / syn_uncategorized)
// on failure.
func (cpu *CPUState) accessCheckCPReg(reg *CPRegInfo, isRead bool) error {
	if !cpu.cpAccessOk(reg) {
		return errAccessTrap
	}
	switch reg.Access {
	case AccessRO:
		if !isRead {
			return errAccessTrap
		}
	case AccessWO:
		if isRead {
			return errAccessTrap
		}
	}
	return nil
}

// redirect resolves a descriptor that is a pure alias of another register
// under some condition (EL1&0 vs EL2 CNTP/CNTHP, mpidr_el1/vmpidr_el2,
// cpacr_el1/cptr_el2) to the concrete register that should actually service
// the access, per spec §4.F redirection table.
func (cpu *CPUState) redirect(reg *CPRegInfo) *CPRegInfo {
	if cpu.regTable == nil {
		return reg
	}
	switch reg.Name {
	case "CNTP_CTL_EL0", "CNTP_CVAL_EL0":
		if cpu.currentEL() == EL2 && cpu.Sys.HcrEl2&hcrE2H != 0 {
			if target, ok := cpu.regTable.lookupByName(hypTimerAlias[reg.Name]); ok {
				return target
			}
		}
	case "MPIDR_EL1":
		if cpu.currentEL() == EL2 {
			if target, ok := cpu.regTable.lookupByName("VMPIDR_EL2"); ok {
				return target
			}
		}
	case "CPACR_EL1":
		if cpu.currentEL() == EL2 && cpu.Sys.HcrEl2&hcrE2H != 0 {
			if target, ok := cpu.regTable.lookupByName("CPTR_EL2"); ok {
				return target
			}
		}
	}
	return reg
}

// hypTimerAlias maps EL1-view generic timer register names to their EL2
// (CNTHP_*) counterparts, consulted only when HCR_EL2.E2H routes EL1&0's
// "physical timer" view onto the hypervisor's own timer (spec §4.F).
var hypTimerAlias = map[string]string{
	"CNTP_CTL_EL0":  "CNTHP_CTL_EL2",
	"CNTP_CVAL_EL0": "CNTHP_CVAL_EL2",
}

// HelperGetCPReg32/HelperSetCPReg32 service a 32-bit AArch32 MRC/MCR.
func (cpu *CPUState) HelperGetCPReg32(cp int, crn, opc1, crm, opc2 uint8) (uint32, error) {
	reg, ok := cpu.regTable.lookupAA32(cp, false, crn, opc1, crm, opc2)
	if !ok {
		return 0, errUndefinedInstruction
	}
	reg = cpu.redirect(reg)
	if err := cpu.accessCheckCPReg(reg, true); err != nil {
		return 0, err
	}
	return uint32(reg.read(cpu)), nil
}

func (cpu *CPUState) HelperSetCPReg32(cp int, crn, opc1, crm, opc2 uint8, val uint32) error {
	reg, ok := cpu.regTable.lookupAA32(cp, false, crn, opc1, crm, opc2)
	if !ok {
		return errUndefinedInstruction
	}
	reg = cpu.redirect(reg)
	if err := cpu.accessCheckCPReg(reg, false); err != nil {
		return err
	}
	reg.write(cpu, uint64(val))
	if reg.Flags&FlagSuppressTBFlush == 0 {
		cpu.rebuildHiddenFlags()
	}
	return nil
}

// HelperGetCPReg64/HelperSetCPReg64 service a 64-bit AArch32 MRRC/MCRR.
func (cpu *CPUState) HelperGetCPReg64(cp int, opc1, crm uint8) (uint64, error) {
	reg, ok := cpu.regTable.lookupAA32(cp, true, 0, opc1, crm, 0)
	if !ok {
		return 0, errUndefinedInstruction
	}
	reg = cpu.redirect(reg)
	if err := cpu.accessCheckCPReg(reg, true); err != nil {
		return 0, err
	}
	return reg.read(cpu), nil
}

func (cpu *CPUState) HelperSetCPReg64(cp int, opc1, crm uint8, val uint64) error {
	reg, ok := cpu.regTable.lookupAA32(cp, true, 0, opc1, crm, 0)
	if !ok {
		return errUndefinedInstruction
	}
	reg = cpu.redirect(reg)
	if err := cpu.accessCheckCPReg(reg, false); err != nil {
		return err
	}
	reg.write(cpu, val)
	if reg.Flags&FlagSuppressTBFlush == 0 {
		cpu.rebuildHiddenFlags()
	}
	return nil
}

// HelperGetAA64CPReg/HelperSetAA64CPReg service an AArch64 MRS/MSR.
func (cpu *CPUState) HelperGetAA64CPReg(op0, op1, crn, crm, op2 uint8) (uint64, error) {
	reg, ok := cpu.regTable.lookupAA64(op0, op1, crn, crm, op2)
	if !ok {
		return 0, errUndefinedInstruction
	}
	reg = cpu.redirect(reg)
	if err := cpu.accessCheckCPReg(reg, true); err != nil {
		return 0, err
	}
	return reg.read(cpu), nil
}

func (cpu *CPUState) HelperSetAA64CPReg(op0, op1, crn, crm, op2 uint8, val uint64) error {
	reg, ok := cpu.regTable.lookupAA64(op0, op1, crn, crm, op2)
	if !ok {
		return errUndefinedInstruction
	}
	reg = cpu.redirect(reg)
	if err := cpu.accessCheckCPReg(reg, false); err != nil {
		return err
	}
	reg.write(cpu, val)
	if reg.Flags&FlagSuppressTBFlush == 0 {
		cpu.rebuildHiddenFlags()
	}
	return nil
}

// TLBIFlushAll services any of the TLBI-family AArch64 instructions this
// core is asked to emulate. Every TLBI variant (VAE1, VAE2, ALLE1, VALE1IS,
// ...) collapses to a single full-flush, since this core has no TLB of its
// own to selectively invalidate — it re-walks on every access. It clears the
// exclusive monitor and writes one debug line ("variant", "el") through
// Host.Logger(); it makes no other host call (spec §4.F "TLBI full-flush stub
// with debug log").
func (cpu *CPUState) TLBIFlushAll(variant string) {
	cpu.clearExclusive()
	cpu.host.Logger().Debug("tlbi: full flush", "variant", variant, "el", cpu.currentEL())
}
