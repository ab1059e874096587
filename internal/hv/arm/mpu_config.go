package arm

// MPU/TCM host configuration API (spec §6.3): the translator front end calls
// these during board/SoC setup, before the guest itself ever touches the MPU
// system registers, to fix the region count and wire any tightly-coupled
// memory the board model provides.

// SetNumberOfMPURegions resizes the PMSAv7/PMSAv8 region arrays. Only valid
// before the guest starts running (spec §6.4 "simulation already started"
// guard applies here too, since changing the region count after the guest
// has touched RNR/region registers would silently invalidate its view).
func (cpu *CPUState) SetNumberOfMPURegions(n int) error {
	if cpu.simulationStarted {
		return errSimulationStarted
	}
	cpu.NumMPURegions = n
	cpu.Pmsav7Regions = make([]Pmsav7Region, n)
	cpu.Pmsav8.Regions = make([]Pmsav8Region, n)
	cpu.Pmsav8.HRegions = make([]Pmsav8Region, n)
	cpu.rebuildHiddenFlags()
	return nil
}

// SetPmsav7Region mirrors the tlib_set_*_pmsa_region
// family: sets region idx's base, RSR (size+enable+subregion-disable) and
// RACR (AP/XN/TEX/S/C/B) as one atomic update.
func (cpu *CPUState) SetPmsav7Region(idx int, base, rsr, racr uint32) {
	if idx < 0 || idx >= len(cpu.Pmsav7Regions) {
		return
	}
	cpu.Pmsav7Regions[idx] = Pmsav7Region{Base: base, RSR: rsr, RACR: racr}
}

// EnableMPU sets or clears SCTLR.M for the given EL, the host-facing
// equivalent of tlib_enable_mpu (spec §6.3): useful for board models that
// need the MPU active before the guest has executed any code.
func (cpu *CPUState) EnableMPU(el ExceptionLevel, enable bool) {
	if enable {
		cpu.Sys.Sctlr[el] |= SctlrM
	} else {
		cpu.Sys.Sctlr[el] &^= SctlrM
	}
	cpu.rebuildHiddenFlags()
}

// TCMRegion is a tightly-coupled memory window exposed directly to the core
// outside normal translation (board-level fast local RAM, e.g. Cortex-M
// ITCM/DTCM). This core models it as an always-identity-mapped Device
// registered on the Bus rather than as separate architectural state, since
// unlike a real TCM controller it has no size/enable register of its own
// visible to the guest in this emulation.
type TCMRegion struct {
	Base uint64
	Mem  *MemoryRegion
}

// RegisterTCM maps a TCM region onto the bus at its configured base address
// (spec §6.3 "TCM region registration").
func (cpu *CPUState) RegisterTCM(bus *Bus, tcm TCMRegion) {
	bus.AddDevice(tcm.Base, tcm.Mem)
}
