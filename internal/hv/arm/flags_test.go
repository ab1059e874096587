package arm

import "testing"

func newTestCPU(t *testing.T, model string) *CPUState {
	t.Helper()
	bus := NewBus(0, 1<<20)
	cpu, err := NewCPUState(model, bus, &EmptyHost{})
	if err != nil {
		t.Fatalf("NewCPUState(%q): %v", model, err)
	}
	return cpu
}

func TestCPSRRoundTrip(t *testing.T) {
	cpu := newTestCPU(t, "cortex-a7")

	cases := []uint32{
		uint32(ModeSVC),
		uint32(ModeSVC) | CPSRN,
		uint32(ModeSVC) | CPSRZ,
		uint32(ModeSVC) | CPSRC,
		uint32(ModeSVC) | CPSRV,
		uint32(ModeSVC) | CPSRQ,
		uint32(ModeSVC) | CPSRT,
		uint32(ModeSVC) | CPSRI,
		uint32(ModeSVC) | CPSRF,
		uint32(ModeSVC) | CPSRA,
		uint32(ModeSVC) | CPSRGE,
		uint32(ModeSVC) | 0xF0000000,
		uint32(ModeUSR),
		uint32(ModeFIQ) | CPSRF,
		uint32(ModeIRQ) | CPSRI,
		uint32(ModeABT) | CPSRA,
		uint32(ModeUND),
		uint32(ModeSYS),
	}
	for _, v := range cases {
		cpu.CPSRWrite(v, 0xFFFFFFFF, WriteRaw)
		if got := cpu.CPSRRead(); got != v {
			t.Errorf("cpsr_write(%#x, mask=all, Raw) then cpsr_read() = %#x, want %#x", v, got, v)
		}
	}
}

func TestPSTATERoundTrip(t *testing.T) {
	cpu := newTestCPU(t, "cortex-a53")

	cases := []uint64{
		0,
		PStateN,
		PStateZ,
		PStateC,
		PStateV,
		PStateN | PStateZ | PStateC | PStateV,
		PStateD | PStateA | PStateI | PStateF,
	}
	for _, v := range cases {
		cpu.PSTATEWrite(v)
		if got := cpu.PSTATERead(); got != v {
			t.Errorf("pstate_write(%#x) then pstate_read() = %#x, want %#x", v, got, v)
		}
	}
}

func TestCPSRWriteByInstrUnreachableModeSetsIL(t *testing.T) {
	cpu := newTestCPU(t, "cortex-a7")
	cpu.SwitchMode(ModeUSR)
	cpu.UncachedCPSR = uint32(ModeUSR)

	// MON is unreachable from USR without FeatureEL3, and a ByInstr write
	// (unlike Raw) must refuse the mode switch and set CPSR.IL instead.
	cpu.CPSRWrite(uint32(ModeMON), CPSRM, WriteByInstr)

	if cpu.Mode != ModeUSR {
		t.Fatalf("mode changed to %#x on an unreachable ByInstr write, want unchanged USR", cpu.Mode)
	}
	if cpu.CPSRRead()&CPSRIL == 0 {
		t.Fatalf("CPSR.IL not set after ByInstr write to an unreachable mode")
	}
}

func TestModeSwitchIdempotence(t *testing.T) {
	cpu := newTestCPU(t, "cortex-a7")
	modes := []Mode{ModeUSR, ModeFIQ, ModeIRQ, ModeSVC, ModeABT, ModeUND, ModeSYS}

	for _, m := range modes {
		cpu.SwitchMode(m)
		r13First, r14First := cpu.Regs[13], cpu.Regs[14]
		cpu.SwitchMode(m)
		if cpu.Regs[13] != r13First || cpu.Regs[14] != r14First {
			t.Errorf("switch_mode(%#x) twice changed r13/r14: (%#x,%#x) != (%#x,%#x)",
				m, cpu.Regs[13], cpu.Regs[14], r13First, r14First)
		}
	}
}

func TestModeSwitchBankPreservation(t *testing.T) {
	cpu := newTestCPU(t, "cortex-a7")

	cpu.SwitchMode(ModeSVC)
	cpu.Regs[13] = 0xdead0000
	cpu.Regs[14] = 0xdead0004

	cpu.SwitchMode(ModeIRQ)
	cpu.Regs[13] = 0xbeef0000
	cpu.Regs[14] = 0xbeef0004

	cpu.SwitchMode(ModeSVC)
	if cpu.Regs[13] != 0xdead0000 || cpu.Regs[14] != 0xdead0004 {
		t.Fatalf("SVC bank not preserved across switch to IRQ and back: r13=%#x r14=%#x", cpu.Regs[13], cpu.Regs[14])
	}

	cpu.SwitchMode(ModeIRQ)
	if cpu.Regs[13] != 0xbeef0000 || cpu.Regs[14] != 0xbeef0004 {
		t.Fatalf("IRQ bank not preserved: r13=%#x r14=%#x", cpu.Regs[13], cpu.Regs[14])
	}
}

func TestModeSwitchFIQBanksR8ToR12(t *testing.T) {
	cpu := newTestCPU(t, "cortex-a7")

	cpu.SwitchMode(ModeUSR)
	for i := 8; i <= 12; i++ {
		cpu.Regs[i] = uint32(0x1000 + i)
	}

	cpu.SwitchMode(ModeFIQ)
	for i := 8; i <= 12; i++ {
		cpu.Regs[i] = uint32(0xf000 + i)
	}

	cpu.SwitchMode(ModeUSR)
	for i := 8; i <= 12; i++ {
		want := uint32(0x1000 + i)
		if cpu.Regs[i] != want {
			t.Errorf("r%d = %#x after returning from FIQ, want preserved USR value %#x", i, cpu.Regs[i], want)
		}
	}

	cpu.SwitchMode(ModeFIQ)
	for i := 8; i <= 12; i++ {
		want := uint32(0xf000 + i)
		if cpu.Regs[i] != want {
			t.Errorf("r%d = %#x back in FIQ, want preserved FIQ value %#x", i, cpu.Regs[i], want)
		}
	}
}

func TestAArch64SPBankingFollowsELAndSPSelector(t *testing.T) {
	cpu := newTestCPU(t, "cortex-a53")

	cpu.PSTATESetEL(EL1, true) // SPSel=1, selects sp_el1
	cpu.XRegs[31] = 0x4000_1000
	cpu.PSTATESetEL(EL3, true)
	cpu.XRegs[31] = 0x4000_3000

	cpu.PSTATESetEL(EL1, true)
	if cpu.XRegs[31] != 0x4000_1000 {
		t.Fatalf("sp_el1 not restored on return to EL1: got %#x", cpu.XRegs[31])
	}

	cpu.PSTATESetEL(EL3, true)
	if cpu.XRegs[31] != 0x4000_3000 {
		t.Fatalf("sp_el3 not restored on return to EL3: got %#x", cpu.XRegs[31])
	}
}
