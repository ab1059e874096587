package arm

import "fmt"

// Memory translation (spec §4.D). get_phys_addr dispatches to one of five
// regimes based on features and SCTLR.M; the regime choice is memoized on
// CPUState and invalidated by rebuildHiddenFlags (spec §9's "convert the
// cascade of if(feature_X) ... into an enum TranslationRegime ... recomputed
// on every SCTLR.M / feature / EL / HCR_E2H / number-of-regions change"
// redesign note — implemented literally here rather than left as a TODO).
type translationRegime int

const (
	regimeUnknown translationRegime = iota
	regimeIdentity
	regimeShortV5
	regimeShortV6
	regimePmsav7
	regimePmsav8
	regimeLongAArch64
)

// SCTLR bit positions referenced by regime selection and the short-descriptor
// walk.
const (
	SctlrM  = 1 << 0  // MMU enable
	SctlrA  = 1 << 1  // alignment fault checking
	SctlrC  = 1 << 2  // cache enable (architecturally visible only, no content modeled)
	SctlrXP = 1 << 23 // extended page table format (v6 walk vs v5)
	SctlrBR = 1 << 17 // PMSAv7 background region enable for privileged accesses
)

// AccessType distinguishes the three kinds of guest memory access that drive
// translation (spec §4.D entry point signature).
type AccessType int

const (
	AccessLoad AccessType = iota
	AccessStore
	AccessInstFetch
)

// Protection bits (spec §4.D TranslationOutcome).
const (
	PageRead  = 1 << 0
	PageWrite = 1 << 1
	PageExec  = 1 << 2
)

// FaultKind enumerates the guest-visible fault categories spec §7 lists.
type FaultKind int

const (
	FaultNone FaultKind = iota
	FaultAlignment
	FaultBackground
	FaultPermission
	FaultTranslation
	FaultDomain
	FaultAccessFlag
)

// TranslationFault carries enough information to populate DFSR/IFSR (AArch32)
// or ESR_ELx (AArch64) for a failed translation.
type TranslationFault struct {
	Kind    FaultKind
	Level   int  // translation table level at which the fault was detected, -1 if N/A
	Domain  uint8
	Write   bool
	Address uint64
}

func (f *TranslationFault) Error() string {
	return fmt.Sprintf("arm: translation fault kind=%d level=%d addr=%#x", f.Kind, f.Level, f.Address)
}

// TranslationOutcome is the result of a successful get_phys_addr call.
type TranslationOutcome struct {
	PhysAddr uint64
	PageSize uint64
	Prot     uint8
}

// selectRegime implements the dispatch cascade of spec §4.D steps 3-7. Step
// 2, the FCSE legacy remap, is applied inside the v5/v6 walk; there is no
// external-MMU hook, so translation is never delegated outside this package.
func (cpu *CPUState) selectRegime() translationRegime {
	if cpu.cachedRegime != regimeUnknown {
		return cpu.cachedRegime
	}

	var r translationRegime
	switch {
	case cpu.Features.Has(FeatureAArch64):
		if cpu.Features.Has(FeaturePMSA) {
			if cpu.NumMPURegions == 0 {
				r = regimeIdentity
			} else {
				r = regimePmsav8
			}
		} else if cpu.Sys.Sctlr[EL1]&SctlrM == 0 {
			r = regimeIdentity
		} else {
			r = regimeLongAArch64
		}
	case cpu.Features.Has(FeaturePMSA) && cpu.Features.Has(FeatureV8):
		if cpu.NumMPURegions == 0 {
			r = regimeIdentity
		} else {
			r = regimePmsav8
		}
	case cpu.Sys.Sctlr[EL1]&SctlrM == 0:
		r = regimeIdentity
	case cpu.Features.Has(FeatureMPU):
		r = regimePmsav7
	case cpu.Sys.Sctlr[EL1]&SctlrXP != 0:
		r = regimeShortV6
	default:
		r = regimeShortV5
	}

	cpu.cachedRegime = r
	return r
}

// GetPhysAddr is the translation entry point (spec §4.D). suppressFaults has
// no effect: whether it is true or false, a failing translation only returns
// the TranslationFault as an error and never records DFSR/FAR or
// exception_index. Callers that want the guest-visible abort check the
// returned error and, on a real access, call
// RaiseDataAbort/RaiseInstructionAbort themselves.
func (cpu *CPUState) GetPhysAddr(vaddr uint64, access AccessType, suppressFaults bool) (TranslationOutcome, error) {
	switch cpu.selectRegime() {
	case regimeIdentity:
		return TranslationOutcome{PhysAddr: vaddr, PageSize: 4096, Prot: PageRead | PageWrite | PageExec}, nil
	case regimeShortV5:
		return cpu.walkShortDescriptor(vaddr, access, false)
	case regimeShortV6:
		return cpu.walkShortDescriptor(vaddr, access, true)
	case regimePmsav7:
		return cpu.walkPmsav7(vaddr, access)
	case regimePmsav8:
		return cpu.walkPmsav8(vaddr, access)
	case regimeLongAArch64:
		return cpu.walkAArch64(vaddr, access)
	default:
		return TranslationOutcome{}, fmt.Errorf("arm: unknown translation regime")
	}
}

// --- §4.D.1 v5/v6 short-descriptor walk ---

// descriptor types, low 2 bits of a level-1/level-2 short descriptor.
const (
	descFault   = 0
	descCoarse  = 1 // L1: coarse page table; L2 "large page" marker when seen at L2
	descSection = 2 // L1: section (or supersection when bit18 set, v6 only)
	descFine    = 3 // L1 fine page table (legacy); L2: small page when seen at L2
)

func (cpu *CPUState) walkShortDescriptor(vaddr uint64, access AccessType, v6 bool) (TranslationOutcome, error) {
	addr := uint32(vaddr)

	// Step 2 of the §4.D cascade: ARMv5 FCSE legacy process remap.
	if addr < 0x02000000 && cpu.Sys.C13FCSE != 0 {
		addr += cpu.Sys.C13FCSE
	}

	cMask := uint32(0x3FFF) // TTBR0 vs TTBR1 boundary is controlled by N in TTBCR; default N=0 => always TTBR0
	n := extract32(cpu.Sys.C2Ctrl, 0, 3)
	boundary := uint32(0xFFFFFFFF) << (32 - n)
	var tableBase uint32
	if n != 0 && addr < boundary {
		tableBase = uint32(cpu.Sys.TTBR1) &^ 0x3FFF
	} else {
		mask := uint32(0xFFFFFFFF) << (14 - n)
		tableBase = uint32(cpu.Sys.TTBR0) & mask
	}
	_ = cMask

	l1Index := (addr >> 18) & 0x3FFC
	l1Addr := uint64(tableBase) | uint64(l1Index)
	l1Desc, err := cpu.bus.LdlPhys(l1Addr)
	if err != nil {
		return TranslationOutcome{}, err
	}

	domain := uint8(extract32(l1Desc, 5, 4))

	switch l1Desc & 3 {
	case descFault:
		return TranslationOutcome{}, cpu.pageFault(FaultTranslation, 1, domain, access, uint64(addr))

	case descSection:
		if v6 && l1Desc&(1<<18) != 0 {
			// Supersection: 16MB, different AP/XN/domain field layout.
			return cpu.finishShort(addr, l1Desc, 1<<24, domain, access, v6, true)
		}
		return cpu.finishShort(addr, l1Desc, 1<<20, domain, access, v6, false)

	case descCoarse, descFine:
		var l2Base uint32
		var l2IndexShift uint
		if l1Desc&3 == descCoarse {
			l2Base = l1Desc &^ 0x3FF
			l2IndexShift = 12
		} else {
			l2Base = l1Desc &^ 0xFFF
			l2IndexShift = 10
		}
		l2Index := (addr >> l2IndexShift) & ((1 << (20 - l2IndexShift)) - 1) << 2
		l2Desc, err := cpu.bus.LdlPhys(uint64(l2Base) | uint64(l2Index))
		if err != nil {
			return TranslationOutcome{}, err
		}
		switch l2Desc & 3 {
		case descFault:
			return TranslationOutcome{}, cpu.pageFault(FaultTranslation, 2, domain, access, uint64(addr))
		case descCoarse: // "large page", 64KB
			return cpu.finishShort(addr, l2Desc, 1<<16, domain, access, v6, false)
		default: // small page, 4KB (descFine/descSection bit patterns both mean "small page" at L2)
			return cpu.finishShort(addr, l2Desc, 1<<12, domain, access, v6, false)
		}
	}
	return TranslationOutcome{}, cpu.pageFault(FaultTranslation, 1, domain, access, uint64(addr))
}

func (cpu *CPUState) finishShort(addr uint32, desc uint32, pageSize uint32, domain uint8, access AccessType, v6, supersection bool) (TranslationOutcome, error) {
	// Domain check against DACR: 0b11 (Manager) allows unconditionally;
	// 0b01 (Client) defers to AP; 0b00/0b10 fault (spec §4.D.1).
	level := 2
	if pageSize >= 1<<20 {
		level = 1 // section or supersection, resolved at the level-1 table
	}
	dacrField := extract32(cpu.Sys.DACR, uint(domain)*2, 2)
	if dacrField == 0 || dacrField == 2 {
		return TranslationOutcome{}, cpu.pageFault(FaultDomain, level, domain, access, uint64(addr))
	}

	ap := extract32(desc, 10, 2)
	isUser := cpu.currentPrivilegeIsUser()

	if dacrField == 1 { // Client: enforce AP
		if err := checkAP(ap, access, isUser); err != nil {
			return TranslationOutcome{}, cpu.pageFaultErr(FaultPermission, level, domain, access, uint64(addr), err)
		}
	}

	prot := uint8(PageRead | PageWrite)
	if access == AccessInstFetch {
		prot = PageRead | PageWrite | PageExec
	}
	if v6 {
		xn := desc&(1<<4) != 0
		if supersection {
			xn = desc&(1<<4) != 0
		}
		if xn {
			prot &^= PageExec
		} else {
			prot |= PageExec
		}
		// AP[0] as access flag when SCTLR bit29 (AFE) set: clear AP[0] means not-yet-accessed.
		if cpu.Sys.Sctlr[EL1]&(1<<29) != 0 && ap&1 == 0 {
			return TranslationOutcome{}, cpu.pageFault(FaultAccessFlag, level, domain, access, uint64(addr))
		}
	} else {
		prot |= PageExec
	}

	mask := uint64(pageSize) - 1
	phys := (uint64(desc) &^ mask) | (uint64(addr) & mask)
	return TranslationOutcome{PhysAddr: phys, PageSize: uint64(pageSize), Prot: prot}, nil
}

// checkAP applies the classic 2-bit AP permission table.
func checkAP(ap uint32, access AccessType, isUser bool) error {
	switch ap {
	case 0:
		return fmt.Errorf("no access")
	case 1:
		if isUser {
			return fmt.Errorf("privileged only")
		}
	case 2:
		if isUser && access == AccessStore {
			return fmt.Errorf("user read-only")
		}
	case 3:
		// RW for both.
	}
	return nil
}

func (cpu *CPUState) currentPrivilegeIsUser() bool {
	if cpu.Features.Has(FeatureAArch64) {
		return cpu.currentEL() == EL0
	}
	return cpu.Mode == ModeUSR
}

func (cpu *CPUState) pageFault(kind FaultKind, level int, domain uint8, access AccessType, addr uint64) error {
	return &TranslationFault{Kind: kind, Level: level, Domain: domain, Write: access == AccessStore, Address: addr}
}

func (cpu *CPUState) pageFaultErr(kind FaultKind, level int, domain uint8, access AccessType, addr uint64, _ error) error {
	return cpu.pageFault(kind, level, domain, access, addr)
}
