package arm

import "testing"

func TestPmsav8NonOverlappingRegionsNoFault(t *testing.T) {
	cpu := newTestCPU(t, "cortex-m33")
	cpu.Pmsav8.Ctrl = 1 // ENABLE

	cpu.SetPmsav8Region(0, false, 0x1000, 0x1fff, 3, false, false, true)
	cpu.SetPmsav8Region(1, false, 0x2000, 0x2fff, 3, false, false, true)

	if cpu.Pmsav8.Regions[0].OverlappingRegionsMask != 0 {
		t.Fatalf("region 0 mask = %#x, want 0 (disjoint ranges)", cpu.Pmsav8.Regions[0].OverlappingRegionsMask)
	}

	out, err := cpu.GetPhysAddr(0x1500, AccessLoad, false)
	if err != nil {
		t.Fatalf("GetPhysAddr(0x1500): %v", err)
	}
	if out.PhysAddr != 0x1500 {
		t.Errorf("PhysAddr = %#x, want %#x", out.PhysAddr, 0x1500)
	}
}

func TestPmsav8OverlappingRegionsFaultRegardlessOfMaskShortcut(t *testing.T) {
	cpu := newTestCPU(t, "cortex-m33")
	cpu.Pmsav8.Ctrl = 1 // ENABLE

	// Two enabled regions whose ranges overlap: OverlappingRegionsMask must
	// be set on both, so the walk's fast-path early-break never fires and
	// the double match still takes the slow per-address scan to a fault.
	cpu.SetPmsav8Region(0, false, 0x1000, 0x2fff, 3, false, false, true)
	cpu.SetPmsav8Region(1, false, 0x2000, 0x3fff, 3, false, false, true)

	if cpu.Pmsav8.Regions[0].OverlappingRegionsMask&(1<<1) == 0 {
		t.Fatalf("region 0 mask = %#x, want bit 1 set", cpu.Pmsav8.Regions[0].OverlappingRegionsMask)
	}
	if cpu.Pmsav8.Regions[1].OverlappingRegionsMask&(1<<0) == 0 {
		t.Fatalf("region 1 mask = %#x, want bit 0 set", cpu.Pmsav8.Regions[1].OverlappingRegionsMask)
	}

	if _, err := cpu.GetPhysAddr(0x2500, AccessLoad, false); err == nil {
		t.Fatal("GetPhysAddr(0x2500) in doubly-mapped range: want Translation fault, got nil error")
	}
}

func TestPmsav8DisablingRegionClearsOverlapMask(t *testing.T) {
	cpu := newTestCPU(t, "cortex-m33")
	cpu.Pmsav8.Ctrl = 1

	cpu.SetPmsav8Region(0, false, 0x1000, 0x2fff, 3, false, false, true)
	cpu.SetPmsav8Region(1, false, 0x2000, 0x3fff, 3, false, false, true)
	cpu.SetPmsav8Region(1, false, 0, 0, 0, false, false, false) // disable region 1

	if cpu.Pmsav8.Regions[0].OverlappingRegionsMask != 0 {
		t.Errorf("region 0 mask = %#x, want 0 after region 1 disabled", cpu.Pmsav8.Regions[0].OverlappingRegionsMask)
	}

	out, err := cpu.GetPhysAddr(0x2500, AccessLoad, false)
	if err != nil {
		t.Fatalf("GetPhysAddr(0x2500): %v", err)
	}
	if out.PhysAddr != 0x2500 {
		t.Errorf("PhysAddr = %#x, want %#x", out.PhysAddr, 0x2500)
	}
}

func TestPmsav8BackgroundMapWhenNoRegionMatches(t *testing.T) {
	cpu := newTestCPU(t, "cortex-m33")
	cpu.Pmsav8.Ctrl = 1 | (1 << 3) // ENABLE | PRIVDEFENA

	cpu.SetPmsav8Region(0, false, 0x1000, 0x1fff, 3, false, false, true)

	out, err := cpu.GetPhysAddr(0x50000000, AccessLoad, false)
	if err != nil {
		t.Fatalf("GetPhysAddr(background): %v", err)
	}
	if out.PhysAddr != 0x50000000 {
		t.Errorf("PhysAddr = %#x, want %#x", out.PhysAddr, 0x50000000)
	}
}
