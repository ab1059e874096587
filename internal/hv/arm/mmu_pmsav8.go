package arm

// PMSAv8 MPU translation (spec §4.D.3): base+limit regions (instead of
// PMSAv7's base+log2-size+subregions) with an incrementally maintained
// overlap mask, used by both ARMv8-M/R AArch32 cores and the AArch64 R-profile
// variant (both share Pmsav8Region; see state.go).

// recomputeOverlaps rebuilds region i's OverlappingRegionsMask against every
// other enabled region and updates theirs symmetrically. Called by
// SetPmsav8Region whenever a region's base/limit/enable changes, so
// walkPmsav8 can stop at the first matching region whose mask is zero; a
// match on a region with a non-zero mask still scans the remaining regions.
func recomputeOverlaps(regions []Pmsav8Region, i int) {
	regions[i].OverlappingRegionsMask = 0
	if !regions[i].Enabled {
		for j := range regions {
			if j != i {
				regions[j].OverlappingRegionsMask &^= 1 << uint(i)
			}
		}
		return
	}
	for j := range regions {
		if j == i || !regions[j].Enabled {
			continue
		}
		if regions[i].Base <= regions[j].Limit && regions[j].Base <= regions[i].Limit {
			regions[i].OverlappingRegionsMask |= 1 << uint(j)
			regions[j].OverlappingRegionsMask |= 1 << uint(i)
		} else {
			regions[j].OverlappingRegionsMask &^= 1 << uint(i)
		}
	}
}

// SetPmsav8Region updates region index idx (EL1 region set, or EL2 when
// hyp is true) and recomputes its overlap mask (spec §4.D.3
// set_pmsav8_region).
func (cpu *CPUState) SetPmsav8Region(idx int, hyp bool, base, limit uint64, ap uint8, xn, pxn, enabled bool) {
	regions := cpu.Pmsav8.Regions
	if hyp {
		regions = cpu.Pmsav8.HRegions
	}
	if idx < 0 || idx >= len(regions) {
		return
	}
	regions[idx] = Pmsav8Region{Enabled: enabled, Base: base, Limit: limit, AP: ap, XN: xn, PXN: pxn}
	recomputeOverlaps(regions, idx)
}

func (cpu *CPUState) walkPmsav8(vaddr uint64, access AccessType) (TranslationOutcome, error) {
	isUser := cpu.currentPrivilegeIsUser()
	hyp := cpu.currentEL() == EL2 && cpu.Features.Has(FeatureEL2)

	// MPU disabled (CTRL.ENABLE==0): every access uses the background map,
	// regardless of region configuration (spec §4.D.3 "use background region
	// iff (MPU disabled) OR ...").
	if cpu.Pmsav8.Ctrl&1 == 0 {
		return TranslationOutcome{PhysAddr: vaddr, PageSize: 4096, Prot: PageRead | PageWrite | PageExec}, nil
	}

	regions := cpu.Pmsav8.Regions
	if hyp {
		regions = cpu.Pmsav8.HRegions
	}

	matched := -1
	for i, r := range regions {
		if !r.Enabled || vaddr < r.Base || vaddr > r.Limit {
			continue
		}
		if matched >= 0 {
			// Two enabled regions both matching the same address is always a
			// Translation fault, regardless of either region's own permissions
			// or which was defined first.
			return TranslationOutcome{}, cpu.pageFault(FaultTranslation, 0, 0, access, vaddr)
		}
		matched = i
		if r.OverlappingRegionsMask == 0 {
			// No other enabled region's range intersects this one at all, so
			// no other region can also match vaddr. Skip the rest of the scan
			// instead of checking every remaining region for a double match.
			break
		}
	}

	if matched < 0 {
		if cpu.Pmsav8.Ctrl&(1<<3) != 0 && !isUser { // PRIVDEFENA background map
			return TranslationOutcome{PhysAddr: vaddr, PageSize: 4096, Prot: PageRead | PageWrite | PageExec}, nil
		}
		return TranslationOutcome{}, cpu.pageFault(FaultBackground, 0, 0, access, vaddr)
	}

	r := regions[matched]
	prot := uint8(PageRead)
	roForUser := r.AP&1 != 0
	userAllowed := r.AP&2 != 0
	if isUser && !userAllowed {
		return TranslationOutcome{}, cpu.pageFault(FaultPermission, 0, 0, access, vaddr)
	}
	if !roForUser || (!isUser && userAllowed) {
		prot |= PageWrite
	}
	if isUser && roForUser {
		prot &^= PageWrite
	}
	xn := r.XN || (hyp && r.PXN && !isUser)
	if !xn {
		prot |= PageExec
	}

	return TranslationOutcome{PhysAddr: vaddr, PageSize: 4096, Prot: prot}, nil
}
