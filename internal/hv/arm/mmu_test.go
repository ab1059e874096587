package arm

import "testing"

func TestShortDescriptorV5Section(t *testing.T) {
	cpu := newTestCPU(t, "arm926")

	cpu.Sys.TTBR0 = 0x00010000
	cpu.Sys.DACR = 0x1 // domain 0 = Client

	// L1 section descriptor: PA base 0x800<<20, AP=3, domain=0, type=section(2).
	l1Desc := uint32(0x80000000) | (3 << 10) | 2
	if err := cpu.bus.StlPhys(0x00011000, l1Desc); err != nil {
		t.Fatalf("StlPhys: %v", err)
	}

	cpu.Sys.Sctlr[EL1] |= SctlrM
	cpu.rebuildHiddenFlags()

	out, err := cpu.GetPhysAddr(0x40000000, AccessLoad, false)
	if err != nil {
		t.Fatalf("GetPhysAddr: %v", err)
	}
	if out.PhysAddr != 0x80000000 {
		t.Errorf("PhysAddr = %#x, want %#x", out.PhysAddr, 0x80000000)
	}
	if out.PageSize != 1<<20 {
		t.Errorf("PageSize = %#x, want 1MiB", out.PageSize)
	}
	if out.Prot&(PageRead|PageWrite|PageExec) != PageRead|PageWrite|PageExec {
		t.Errorf("Prot = %#x, want RWX", out.Prot)
	}
}

func TestShortDescriptorV6CoarseSmallPage(t *testing.T) {
	cpu := newTestCPU(t, "arm1136")

	cpu.Sys.TTBR0 = 0x00010000
	cpu.Sys.DACR = 0x1 // domain 0 = Client
	cpu.Sys.Sctlr[EL1] |= SctlrXP

	// L1 coarse descriptor pointing at an L2 table.
	l1Desc := uint32(0x00020000) | 1 // descCoarse
	if err := cpu.bus.StlPhys(0x00010004, l1Desc); err != nil {
		t.Fatalf("StlPhys l1: %v", err)
	}
	// L2 small-page descriptor: PA base 0x90000000, AP=3, XN=0.
	l2Desc := uint32(0x90000000) | (3 << 10) | 2
	if err := cpu.bus.StlPhys(0x00020000, l2Desc); err != nil {
		t.Fatalf("StlPhys l2: %v", err)
	}

	cpu.Sys.Sctlr[EL1] |= SctlrM
	cpu.rebuildHiddenFlags()

	out, err := cpu.GetPhysAddr(0x00100000, AccessLoad, false)
	if err != nil {
		t.Fatalf("GetPhysAddr: %v", err)
	}
	if out.PhysAddr != 0x90000000 {
		t.Errorf("PhysAddr = %#x, want %#x", out.PhysAddr, 0x90000000)
	}
	if out.PageSize != 1<<12 {
		t.Errorf("PageSize = %#x, want 4KiB", out.PageSize)
	}
	if out.Prot&(PageRead|PageWrite|PageExec) != PageRead|PageWrite|PageExec {
		t.Errorf("Prot = %#x, want RWX", out.Prot)
	}
}

func TestPmsav7RegionMatch(t *testing.T) {
	cpu := newTestCPU(t, "cortex-r5")

	const sizeField = 15 // 2^(15+1) = 64KiB
	cpu.Pmsav7Regions[0] = Pmsav7Region{
		Base: 0,
		RSR:  pmsav7RegionEnable | (sizeField << 1),
		RACR: 3 << 8, // AP=3, XN=0
	}

	cpu.Sys.Sctlr[EL1] |= SctlrM
	cpu.rebuildHiddenFlags()

	out, err := cpu.GetPhysAddr(0x1000, AccessLoad, false)
	if err != nil {
		t.Fatalf("GetPhysAddr: %v", err)
	}
	if out.PhysAddr != 0x1000 {
		t.Errorf("PhysAddr = %#x, want identity 0x1000", out.PhysAddr)
	}
	if out.PageSize != 1<<16 {
		t.Errorf("PageSize = %#x, want 64KiB", out.PageSize)
	}
	if out.Prot&(PageRead|PageWrite|PageExec) != PageRead|PageWrite|PageExec {
		t.Errorf("Prot = %#x, want RWX", out.Prot)
	}
}

func TestPmsav7SubregionDisabledFaultsToBackground(t *testing.T) {
	cpu := newTestCPU(t, "cortex-r5")

	const sizeField = 15 // 64KiB region, 8KiB subregions
	cpu.Pmsav7Regions[0] = Pmsav7Region{
		Base: 0,
		RSR:  pmsav7RegionEnable | (sizeField << 1) | (1 << pmsav7SubregionBase), // subregion 0 disabled
		RACR: 3 << 8,
	}

	cpu.Sys.Sctlr[EL1] |= SctlrM
	// Leave SCTLR.BR clear: privileged accesses with no matching region fault.
	cpu.rebuildHiddenFlags()

	_, err := cpu.GetPhysAddr(0x1000, AccessLoad, false) // within disabled subregion 0
	if err == nil {
		t.Fatal("GetPhysAddr succeeded, want background fault for disabled subregion")
	}
	tf, ok := err.(*TranslationFault)
	if !ok {
		t.Fatalf("error type = %T, want *TranslationFault", err)
	}
	if tf.Kind != FaultBackground {
		t.Errorf("Kind = %v, want FaultBackground", tf.Kind)
	}
}

func TestPmsav8OverlapIsTranslationFault(t *testing.T) {
	cpu := newTestCPU(t, "cortex-m33")

	cpu.Pmsav8.Ctrl = 1 // ENABLE
	cpu.SetPmsav8Region(0, false, 0x1000, 0x1fff, 3, false, false, true)
	cpu.SetPmsav8Region(1, false, 0x1000, 0x1fff, 3, false, false, true)
	cpu.rebuildHiddenFlags()

	_, err := cpu.GetPhysAddr(0x1500, AccessLoad, false)
	if err == nil {
		t.Fatal("GetPhysAddr succeeded, want overlap fault")
	}
	tf, ok := err.(*TranslationFault)
	if !ok {
		t.Fatalf("error type = %T, want *TranslationFault", err)
	}
	if tf.Kind != FaultTranslation {
		t.Errorf("Kind = %v, want FaultTranslation", tf.Kind)
	}

	cpu.RaiseDataAbort(0x1500, 0x1500, tf)
	if cpu.Sys.Dfsr != 0b000100 {
		t.Errorf("DFSR = %#b, want TRANSLATION_FAULT (0b000100)", cpu.Sys.Dfsr)
	}
	if cpu.Sys.Dfar != 0x1500 {
		t.Errorf("DFAR = %#x, want 0x1500", cpu.Sys.Dfar)
	}
}

func TestPmsav8DisabledMPUIsBackgroundEverywhere(t *testing.T) {
	cpu := newTestCPU(t, "cortex-m33")

	cpu.Pmsav8.Ctrl = 0 // ENABLE clear
	cpu.SetPmsav8Region(0, false, 0x1000, 0x1fff, 0 /* privileged-only */, false, false, true)

	out, err := cpu.GetPhysAddr(0x1500, AccessLoad, false)
	if err != nil {
		t.Fatalf("GetPhysAddr: %v, want success via disabled-MPU background map", err)
	}
	if out.PhysAddr != 0x1500 {
		t.Errorf("PhysAddr = %#x, want identity 0x1500", out.PhysAddr)
	}
	if out.Prot&(PageRead|PageWrite|PageExec) != PageRead|PageWrite|PageExec {
		t.Errorf("Prot = %#x, want RWX background map", out.Prot)
	}
}

func TestAArch64LongDescriptorPageWalk(t *testing.T) {
	cpu := newTestCPU(t, "cortex-a53")
	cpu.PSTATESetEL(EL1, true) // walk is keyed off current EL's TCR/TTBR0

	// 4KiB granule (TG0=0), T0SZ=16 -> 48-bit input range, 4-level walk
	// starting at level 0. Keep the test within a single level-3 page by
	// choosing a VA whose level-0/1/2 indices are all zero.
	cpu.Sys.Tcr[EL1] = 16 // T0SZ field in bits [5:0]
	cpu.Sys.Ttbr0El[EL1] = 0x00001000

	const descValid = 0b11  // valid + table/page
	const descAF = 1 << 10  // access flag
	const descAP = 0 << 6   // AP[2:1] = 00: RW at EL1, no EL0 access

	l0 := uint64(0x00002000) | descValid
	if err := cpu.bus.StqPhys(0x00001000, l0); err != nil {
		t.Fatalf("StqPhys l0: %v", err)
	}
	l1 := uint64(0x00003000) | descValid
	if err := cpu.bus.StqPhys(0x00002000, l1); err != nil {
		t.Fatalf("StqPhys l1: %v", err)
	}
	l2 := uint64(0x00004000) | descValid
	if err := cpu.bus.StqPhys(0x00003000, l2); err != nil {
		t.Fatalf("StqPhys l2: %v", err)
	}
	l3 := uint64(0x90000000) | descAF | descAP | descValid
	if err := cpu.bus.StqPhys(0x00004000, l3); err != nil {
		t.Fatalf("StqPhys l3: %v", err)
	}

	cpu.Sys.Sctlr[EL1] |= SctlrM
	cpu.rebuildHiddenFlags()

	out, err := cpu.GetPhysAddr(0x100, AccessLoad, false)
	if err != nil {
		t.Fatalf("GetPhysAddr: %v", err)
	}
	if out.PhysAddr != 0x90000100 {
		t.Errorf("PhysAddr = %#x, want %#x", out.PhysAddr, 0x90000100)
	}
	if out.Prot&PageRead == 0 {
		t.Errorf("Prot = %#x, want readable", out.Prot)
	}
}

// TestAArch64L3WalkEL0RWScenario is spec §8 concrete scenario 4: a three-level
// walk (T0SZ=25 starts at level 1) mapping VA 0x0040_0000 to PA 0xFFF0_0000
// with AP=0b01 (RW, EL0 allowed), UXN=0, PXN=0; at EL0 a Load must succeed
// with phys=0xFFF0_0000, prot=RWX, page_size=4096.
func TestAArch64L3WalkEL0RWScenario(t *testing.T) {
	cpu := newTestCPU(t, "cortex-a53")
	cpu.PSTATESetEL(EL1, true)

	cpu.Sys.Tcr[EL1] = 25 // T0SZ=25, TG0=0 (4KiB)
	cpu.Sys.Ttbr0El[EL1] = 0x00001000

	const descTable = 0b11
	const descPage = 0b11

	l1 := uint64(0x00002000) | descTable
	if err := cpu.bus.StqPhys(0x00001000, l1); err != nil {
		t.Fatalf("StqPhys l1: %v", err)
	}
	l2 := uint64(0x00003000) | descTable
	if err := cpu.bus.StqPhys(0x00002010, l2); err != nil { // index 2 within the L2 table
		t.Fatalf("StqPhys l2: %v", err)
	}
	// AP[2:1]=01 at descriptor bits [7:6]: AP2(bit7)=0, AP1(bit6)=1.
	l3 := uint64(0xFFF00000) | (1 << 10) /* AF */ | (1 << 6) /* AP1 */ | descPage
	if err := cpu.bus.StqPhys(0x00003000, l3); err != nil {
		t.Fatalf("StqPhys l3: %v", err)
	}

	cpu.Sys.Sctlr[EL1] |= SctlrM
	cpu.rebuildHiddenFlags()

	cpu.PSTATESetEL(EL0, true)
	out, err := cpu.GetPhysAddr(0x00400000, AccessLoad, false)
	if err != nil {
		t.Fatalf("GetPhysAddr at EL0: %v, want success (AP=0b01 allows EL0 RW)", err)
	}
	if out.PhysAddr != 0xFFF00000 {
		t.Errorf("PhysAddr = %#x, want %#x", out.PhysAddr, 0xFFF00000)
	}
	if out.PageSize != 4096 {
		t.Errorf("PageSize = %#x, want 4096", out.PageSize)
	}
	if out.Prot&(PageRead|PageWrite|PageExec) != PageRead|PageWrite|PageExec {
		t.Errorf("Prot = %#x, want RWX", out.Prot)
	}
}
