package arm

// PMSAv7 MPU translation (spec §4.D.2), adapted from the region-table
// iteration pattern used by the short-descriptor walk in mmu.go but keyed
// by region index instead of table levels. Regions are checked
// highest-index-first: the highest-numbered enabled, matching, non-disabled
// subregion wins when ranges overlap.

const (
	pmsav7RegionEnable  = 1 << 0
	pmsav7SubregionBase = 8 // RSR bits [15:8] hold the 8 subregion-disable bits
)

func pmsav7RegionSize(rsr uint32) uint64 {
	sizeField := extract32(rsr, 1, 5)
	return uint64(1) << (sizeField + 1)
}

func pmsav7SubregionDisabled(rsr uint32, base uint32, addr uint32) bool {
	size := pmsav7RegionSize(rsr)
	if size < 256 {
		return false // regions under 256 bytes have no subregions
	}
	subSize := size / 8
	idx := (uint64(addr) - uint64(base)) / subSize
	if idx > 7 {
		return false
	}
	return rsr&(1<<(pmsav7SubregionBase+idx)) != 0
}

func (cpu *CPUState) walkPmsav7(vaddr uint64, access AccessType) (TranslationOutcome, error) {
	addr := uint32(vaddr)
	isUser := cpu.currentPrivilegeIsUser()

	for i := len(cpu.Pmsav7Regions) - 1; i >= 0; i-- {
		r := cpu.Pmsav7Regions[i]
		if r.RSR&pmsav7RegionEnable == 0 {
			continue
		}
		size := pmsav7RegionSize(r.RSR)
		base := r.Base &^ uint32(size-1)
		if uint64(addr) < uint64(base) || uint64(addr) >= uint64(base)+size {
			continue
		}
		if pmsav7SubregionDisabled(r.RSR, base, addr) {
			continue
		}

		ap := extract32(r.RACR, 8, 3)
		xn := r.RACR&(1<<12) != 0
		if err := checkPmsav7AP(ap, access, isUser); err != nil {
			return TranslationOutcome{}, cpu.pageFaultErr(FaultPermission, 0, 0, access, vaddr, err)
		}

		prot := uint8(PageRead)
		if apAllowsWrite(ap) {
			prot |= PageWrite
		}
		if !xn {
			prot |= PageExec
		}
		return TranslationOutcome{PhysAddr: vaddr, PageSize: size, Prot: prot}, nil
	}

	// No region matched: background map. SCTLR.BR gates whether privileged
	// accesses fall through to a flat identity map (spec §4.D.2); unprivileged
	// accesses always fault.
	if !isUser && cpu.Sys.Sctlr[EL1]&SctlrBR != 0 {
		return TranslationOutcome{PhysAddr: vaddr, PageSize: 4096, Prot: PageRead | PageWrite | PageExec}, nil
	}
	return TranslationOutcome{}, cpu.pageFault(FaultBackground, 0, 0, access, vaddr)
}

// checkPmsav7AP applies the 3-bit PMSAv7 AP permission table. AP==7 is a
// Cortex-M3-specific alias for AP==6 (RO for both privilege levels) rather
// than the reserved encoding the architecture manual lists for R-profile
// cores; this core treats all PMSA cores uniformly as M-profile-compatible.
func checkPmsav7AP(ap uint32, access AccessType, isUser bool) error {
	switch ap {
	case 0:
		return errNoAccess
	case 1:
		if isUser {
			return errPrivOnly
		}
	case 2:
		if isUser && access == AccessStore {
			return errUserRO
		}
	case 3:
		// full access
	case 4:
		return errNoAccess // reserved, treated as no access
	case 5:
		if isUser {
			return errPrivOnly
		}
		if access == AccessStore {
			return errUserRO
		}
	case 6, 7:
		if access == AccessStore {
			return errUserRO
		}
	}
	return nil
}

func apAllowsWrite(ap uint32) bool {
	switch ap {
	case 1, 3:
		return true
	}
	return false
}

var (
	errNoAccess = &permError{"no access"}
	errPrivOnly = &permError{"privileged only"}
	errUserRO   = &permError{"read-only"}
)

type permError struct{ msg string }

func (e *permError) Error() string { return e.msg }
