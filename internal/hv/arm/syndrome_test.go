package arm

import "testing"

// TestSyndromeILAlwaysSet is spec §8's "syndrome IL invariant": every syn_*
// helper must produce ESR_ELx.IL=1 (bit 25). This core has no AArch32
// instruction decoder, so it can never report a real 16-bit-instruction
// IL=0; IL=1 is also the architecturally RES1 value for the abort classes.
func TestSyndromeILAlwaysSet(t *testing.T) {
	const ilBit = uint64(1) << 25

	cases := map[string]uint64{
		"synDataAbortNoISS/EL1":      synDataAbortNoISS(false, 0b000100),
		"synDataAbortNoISS/lowerEL":  synDataAbortNoISS(true, 0b000100),
		"synDataAbortWithISS/write":  synDataAbortWithISS(false, true, 0b000100),
		"synDataAbortWithISS/read":   synDataAbortWithISS(true, false, 0b000100),
		"synInstructionAbort/EL1":    synInstructionAbort(false, 0b000100),
		"synInstructionAbort/lower":  synInstructionAbort(true, 0b000100),
		"synUncategorized":           synUncategorized(),
		"synWFx/WFI":                 synWFx(false),
		"synWFx/WFE":                 synWFx(true),
		"synAA64SVC":                 synAA64SVC(0x1234),
		"synAA64HVC":                 synAA64HVC(0x1234),
		"synAA64SMC":                 synAA64SMC(0x1234),
		"synAA64BKPT":                synAA64BKPT(0x1234),
		"synSWStep/isv":              synSWStep(true, 1, 0b100010),
		"synSWStep/noisv":            synSWStep(false, 0, 0b100010),
		"synBTITrap":                 synBTITrap(2),
		"synAA64SysRegTrap/read":     synAA64SysRegTrap(3, 0, 0, 1, 5, 0, true),
		"synAA64SysRegTrap/write":    synAA64SysRegTrap(3, 0, 0, 1, 5, 0, false),
	}

	for name, esr := range cases {
		if esr&ilBit == 0 {
			t.Errorf("%s: IL bit clear in ESR %#x, want set", name, esr)
		}
	}
}

func TestSyndromeECField(t *testing.T) {
	esr := synAA64SVC(0x42)
	if ec := esr >> 26; ec != ecSVC64 {
		t.Errorf("EC = %#x, want %#x (SVC64)", ec, ecSVC64)
	}
	if iss := esr & 0x1ffffff &^ (1 << 25); iss != 0x42 {
		t.Errorf("ISS = %#x, want %#x", iss, 0x42)
	}
}

func TestSynDataAbortWithISSSetsWnR(t *testing.T) {
	write := synDataAbortWithISS(false, true, 0)
	read := synDataAbortWithISS(false, false, 0)
	if write&(1<<6) == 0 {
		t.Error("WnR bit clear for a write abort, want set")
	}
	if read&(1<<6) != 0 {
		t.Error("WnR bit set for a read abort, want clear")
	}
}
