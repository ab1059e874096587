package arm

// ARMv7-M/v8-M exception entry and return (spec §4.E.2): stack-frame layout,
// EXC_RETURN encoding, and the lazy/extended floating-point frame gated by
// FPCCR.LSPEN.

// EXC_RETURN bit layout (ARMv7-M ARM B1.5.8). Bits 31:5 and bit 0 are all
// set; bits 2, 3 and 4 vary (e.g. 0xFFFFFFF1 = return to Handler mode/MSP,
// 0xFFFFFFF9 = return to Thread mode/MSP, both with a basic frame;
// 0xFFFFFFE1 = Handler mode/MSP with an extended frame).
const (
	excReturnES    = 1 << 0 // Secure stack used (v8-M only, unused here)
	excReturnSPSel = 1 << 2 // 0=MSP, 1=PSP
	excReturnMode  = 1 << 3 // 0=Handler, 1=Thread
	excReturnFType = 1 << 4 // 0=extended (FP) frame, 1=basic frame
	excReturnES1   = 1 << 6
	excReturnPrefix = 0xffffffe1 // fixed bits; bit2 (SPSel), bit3 (Mode) and bit4 (FType) vary
)

// FPCCR bits relevant to lazy stacking (ARMv7-M ARM B3.2.13).
const (
	fpccrLSPEN = 1 << 30
	fpccrASPEN = 1 << 31
)

// basicFrameWords is the 8-register basic exception frame: r0-r3, r12, lr,
// return address, xpsr.
const basicFrameWords = 8

// EnterV7MException stacks the current context and vectors to handler
// exception number excNum (1=Reset is never raised here; 2=NMI, 3=HardFault,
// ... 16+=external IRQ, per spec §4.E.2). sp is the current stack pointer
// value (already selected MSP/PSP by the caller via CurrentSP); returnAddr is
// the preferred return address the caller has already computed for excNum
// (e.g. the address of the next instruction for a pended IRQ).
//
// Stacks R0-R3, R12, LR, returnAddr and xPSR as the 8-word basic frame (spec
// §8 quantified invariant: words at [SP..SP+31] equal exactly that tuple,
// with xPSR bit9 set iff SP needed a stack-align adjustment), then vectors PC
// from VTOR[excNum]. An extended (FP) frame reserves the 18 extra words above
// the basic frame but, per FPCCR.LSPEN lazy stacking, leaves their content
// unpopulated until first FP use — there is no FP register file here to
// stack eagerly.
func (cpu *CPUState) EnterV7MException(excNum uint32, sp uint32, returnAddr uint32) (newSP uint32, excReturn uint32, err error) {
	fromThread := !cpu.V7M.HandlerMode
	usingPSP := cpu.V7M.Control&(1<<1) != 0 && fromThread
	extended := cpu.V7M.FPCCR&fpccrASPEN != 0 && cpu.V7M.Control&(1<<2) != 0 // CONTROL.FPCA

	frameWords := uint32(basicFrameWords)
	if extended {
		frameWords += 18 // s0-s15 + fpscr + reserved, rounded to 8-byte align
	}
	frameSize := frameWords * 4
	newSPval := sp - frameSize
	misaligned := newSPval&4 != 0
	if misaligned {
		newSPval -= 4 // stack-align adjustment, recorded in stacked xPSR bit9
	}

	xpsr := cpu.XPSRRead()
	if misaligned {
		xpsr |= 1 << 9
	}
	frame := [basicFrameWords]uint32{
		cpu.Regs[0], cpu.Regs[1], cpu.Regs[2], cpu.Regs[3],
		cpu.Regs[12], cpu.Regs[14], returnAddr, xpsr,
	}
	for i, word := range frame {
		if err := cpu.bus.StlPhys(uint64(newSPval)+uint64(i)*4, word); err != nil {
			return 0, 0, err
		}
	}

	vectorAddr := uint64(cpu.V7M.VecBase) + uint64(excNum)*4
	vector, err := cpu.bus.LdlPhys(vectorAddr)
	if err != nil {
		return 0, 0, err
	}
	cpu.Regs[15] = vector &^ 1 // discard the EPSR.T indicator bit

	cpu.V7M.OtherSP = sp
	cpu.V7M.HandlerMode = true
	cpu.V7M.Exception = excNum
	cpu.clearExclusive()

	if usingPSP {
		cpu.V7M.CurrentSP = 1
	} else {
		cpu.V7M.CurrentSP = 0
	}

	excReturn = excReturnPrefix
	if fromThread {
		excReturn |= excReturnMode
	}
	if usingPSP {
		excReturn |= excReturnSPSel
	}
	if !extended {
		excReturn |= excReturnFType
	}
	// FPCCR.LSPEN with an extended frame means the FP registers' slots are
	// reserved but not populated until first FP use (lazy stacking);
	// FPCCR.LSPACT itself is set by the translator's FP-access trap, since
	// this core has no FP register file of its own to lazily save.

	return newSPval, excReturn, nil
}

// DecodeExcReturn parses an EXC_RETURN value written to PC on return from a
// v7-M/v8-M handler (spec §4.E.2).
type ExcReturnInfo struct {
	ToThreadMode bool
	UsePSP       bool
	BasicFrame   bool
}

func DecodeExcReturn(val uint32) (ExcReturnInfo, bool) {
	if val&excReturnPrefix != excReturnPrefix {
		return ExcReturnInfo{}, false
	}
	return ExcReturnInfo{
		ToThreadMode: val&excReturnMode != 0,
		UsePSP:       val&excReturnSPSel != 0,
		BasicFrame:   val&excReturnFType != 0,
	}, true
}

// ExitV7MException applies an EXC_RETURN value: selects SP bank, clears
// Handler mode when returning to Thread, and reports the frame size the
// translator must pop (spec §4.E.2 unstacking).
func (cpu *CPUState) ExitV7MException(val uint32) (frameWords uint32, ok bool) {
	info, valid := DecodeExcReturn(val)
	if !valid {
		return 0, false
	}

	cpu.V7M.HandlerMode = !info.ToThreadMode
	if info.UsePSP {
		cpu.V7M.CurrentSP = 1
	} else {
		cpu.V7M.CurrentSP = 0
	}

	frameWords = basicFrameWords
	if !info.BasicFrame {
		frameWords += 18
	}
	cpu.clearExclusive()
	return frameWords, true
}
