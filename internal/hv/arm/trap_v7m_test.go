package arm

import "testing"

// newV7MTestCPU backs RAM at the conventional Cortex-M SRAM base (0x2000_0000)
// so stack-pointer values from spec §8's scenario 2 land inside the Bus
// instead of tripping "no device at physical address".
func newV7MTestCPU(t *testing.T, model string) *CPUState {
	t.Helper()
	bus := NewBus(0x20000000, 1<<20)
	cpu, err := NewCPUState(model, bus, &EmptyHost{})
	if err != nil {
		t.Fatalf("NewCPUState(%q): %v", model, err)
	}
	return cpu
}

// TestV7MExceptionEntryFromThreadMSP is spec §8 concrete scenario 2: an
// ARMv7-M IRQ taken from Thread mode using MSP, sp starting at 0x2000_0100.
// The frame is 8 words (32 bytes), so newSP = 0x2000_00E0, and since the
// entry is from Thread mode (not nested under an existing handler) the
// EXC_RETURN value sets the Mode bit: 0xFFFF_FFF1 | 0x8 = 0xFFFF_FFF9. The
// 8 stacked words must equal (R0,R1,R2,R3,R12,LR,return_addr,xPSR) exactly,
// and PC must load from VTOR[16] with the EPSR.T indicator bit discarded.
func TestV7MExceptionEntryFromThreadMSP(t *testing.T) {
	cpu := newV7MTestCPU(t, "cortex-m33")
	cpu.V7M.HandlerMode = false // Thread mode, IPSR.exception == 0
	cpu.V7M.VecBase = 0x20000000
	cpu.Regs[0], cpu.Regs[1], cpu.Regs[2], cpu.Regs[3] = 0x11, 0x22, 0x33, 0x44
	cpu.Regs[12] = 0x55
	cpu.Regs[14] = 0xfffffff1 // LR before entry, e.g. a prior EXC_RETURN

	if err := cpu.bus.StlPhys(0x20000000+16*4, 0x00001001); err != nil {
		t.Fatalf("seeding vector table: %v", err)
	}

	newSP, excReturn, err := cpu.EnterV7MException(16 /* first external IRQ */, 0x20000100, 0x2000)
	if err != nil {
		t.Fatalf("EnterV7MException: %v", err)
	}

	if newSP != 0x200000e0 {
		t.Errorf("newSP = %#x, want %#x", newSP, 0x200000e0)
	}
	if excReturn != 0xfffffff9 {
		t.Errorf("excReturn = %#x, want %#x (Thread mode, MSP)", excReturn, 0xfffffff9)
	}
	if !cpu.V7M.HandlerMode {
		t.Error("HandlerMode = false after exception entry, want true")
	}
	if cpu.V7M.Exception != 16 {
		t.Errorf("Exception = %d, want 16", cpu.V7M.Exception)
	}
	if cpu.Regs[15] != 0x1000 {
		t.Errorf("PC = %#x, want %#x (VTOR[16] with T bit discarded)", cpu.Regs[15], 0x1000)
	}

	// xPSR reflects the pre-entry state: Thread mode has IPSR.exception==0,
	// and this test sets no NZCVQ/IT/T bits, so the stacked xPSR is 0.
	wantFrame := [basicFrameWords]uint32{0x11, 0x22, 0x33, 0x44, 0x55, 0xfffffff1, 0x2000, 0}
	for i, want := range wantFrame {
		got, err := cpu.bus.LdlPhys(uint64(newSP) + uint64(i)*4)
		if err != nil {
			t.Fatalf("reading frame word %d: %v", i, err)
		}
		if got != want {
			t.Errorf("frame word %d = %#x, want %#x", i, got, want)
		}
	}
}

// TestV7MExceptionEntryFromHandlerKeepsHandlerMode covers nested exception
// entry (an interrupt while already in Handler mode): the EXC_RETURN value
// must NOT set the Mode bit, since execution should return to Handler mode,
// not Thread mode, on unstacking.
func TestV7MExceptionEntryFromHandlerKeepsHandlerMode(t *testing.T) {
	cpu := newV7MTestCPU(t, "cortex-m33")
	cpu.V7M.HandlerMode = true
	cpu.V7M.Exception = 16

	_, excReturn, err := cpu.EnterV7MException(17, 0x20000100, 0x2000)
	if err != nil {
		t.Fatalf("EnterV7MException: %v", err)
	}

	if excReturn != 0xfffffff1 {
		t.Errorf("excReturn = %#x, want %#x (Handler mode, MSP)", excReturn, 0xfffffff1)
	}
	if excReturn&excReturnMode != 0 {
		t.Error("excReturn has Mode bit set for a from-Handler entry, want clear")
	}
}

// TestV7MExceptionEntryUsesPSP checks CONTROL.SPSEL routes a Thread-mode
// entry through PSP, and that the resulting EXC_RETURN records it.
func TestV7MExceptionEntryUsesPSP(t *testing.T) {
	cpu := newV7MTestCPU(t, "cortex-m33")
	cpu.V7M.HandlerMode = false
	cpu.V7M.Control = 1 << 1 // SPSEL: Thread mode uses PSP

	_, excReturn, err := cpu.EnterV7MException(16, 0x20001000, 0x2000)
	if err != nil {
		t.Fatalf("EnterV7MException: %v", err)
	}

	if excReturn&excReturnSPSel == 0 {
		t.Errorf("excReturn = %#x, want SPSel bit set (PSP)", excReturn)
	}
	if cpu.V7M.CurrentSP != 1 {
		t.Errorf("CurrentSP = %d, want 1 (PSP)", cpu.V7M.CurrentSP)
	}
}

// TestV7MExceptionEntryMisalignedSP checks the stack-align adjustment: an sp
// that isn't 8-byte aligned after reserving the frame forces a further 4-byte
// adjustment, recorded in the stacked xPSR's bit9.
func TestV7MExceptionEntryMisalignedSP(t *testing.T) {
	cpu := newV7MTestCPU(t, "cortex-m33")
	cpu.V7M.HandlerMode = false

	newSP, _, err := cpu.EnterV7MException(16, 0x20001004, 0x2000)
	if err != nil {
		t.Fatalf("EnterV7MException: %v", err)
	}

	// frameSize=32, 0x20001004-32=0x20000fe4, which is not 8-byte aligned
	// (0xfe4 & 4 != 0), so a further 4-byte adjustment applies.
	if newSP != 0x20000fe0 {
		t.Errorf("newSP = %#x, want %#x (stack-align adjusted)", newSP, 0x20000fe0)
	}
	xpsr, err := cpu.bus.LdlPhys(uint64(newSP) + 7*4)
	if err != nil {
		t.Fatalf("reading stacked xPSR: %v", err)
	}
	if xpsr&(1<<9) == 0 {
		t.Error("stacked xPSR bit9 clear after a stack-align adjustment, want set")
	}
}

// TestV7MExceptionReturnParity is the "v7-M return parity" quantified
// invariant from spec §8: for every EXC_RETURN value EnterV7MException can
// produce, DecodeExcReturn/ExitV7MException must reconstruct the same
// Thread/Handler and MSP/PSP state that was passed to entry.
func TestV7MExceptionReturnParity(t *testing.T) {
	cases := []struct {
		name        string
		fromHandler bool
		usePSP      bool
	}{
		{"thread-msp", false, false},
		{"thread-psp", false, true},
		{"handler-msp", true, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cpu := newV7MTestCPU(t, "cortex-m33")
			cpu.V7M.HandlerMode = c.fromHandler
			if c.usePSP {
				cpu.V7M.Control = 1 << 1
			}

			_, excReturn, err := cpu.EnterV7MException(16, 0x20001000, 0x2000)
			if err != nil {
				t.Fatalf("EnterV7MException: %v", err)
			}

			frameWords, ok := cpu.ExitV7MException(excReturn)
			if !ok {
				t.Fatalf("ExitV7MException(%#x) rejected a value EnterV7MException produced", excReturn)
			}
			if frameWords != basicFrameWords {
				t.Errorf("frameWords = %d, want %d (no FP frame)", frameWords, basicFrameWords)
			}
			if cpu.V7M.HandlerMode != c.fromHandler {
				t.Errorf("HandlerMode after return = %v, want %v", cpu.V7M.HandlerMode, c.fromHandler)
			}
			wantSP := uint32(0)
			if c.usePSP {
				wantSP = 1
			}
			if cpu.V7M.CurrentSP != wantSP {
				t.Errorf("CurrentSP after return = %d, want %d", cpu.V7M.CurrentSP, wantSP)
			}
		})
	}
}

func TestDecodeExcReturnRejectsBadPrefix(t *testing.T) {
	if _, ok := DecodeExcReturn(0x12345678); ok {
		t.Error("DecodeExcReturn accepted a value with no valid EXC_RETURN prefix")
	}
}
