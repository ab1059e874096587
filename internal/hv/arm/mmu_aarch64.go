package arm

import "fmt"

// AArch64 long-descriptor translation (spec §4.D.4): TCR_ELx selects the
// granule size and initial lookup level per translation range (TTBR0 below
// the T0SZ boundary, TTBR1 above the T1SZ boundary when EL1/EL2&0 supports a
// high range); each level's descriptor is either a table, block or page
// entry, gated by AP/UXN/PXN.

const (
	descInvalid64    = 0
	descBlockOrPage   = 1
	descTableLevel012 = 3 // table descriptor at levels 0-2
	descPageLevel3    = 3 // page descriptor at level 3 (same encoding, different level)
)

// granuleInfo describes one TG encoding: the page size and how many address
// bits each table level covers.
type granuleInfo struct {
	pageShift  uint
	bitsPerLvl uint
	startLvl0  uint // smallest T*SZ at which level 0 participates
}

func granuleFor(tg uint64) granuleInfo {
	switch tg {
	case 1: // TG0=01 -> 16KB (TG1=01, also 16KB, keeps the value 1 after normalization)
		return granuleInfo{pageShift: 14, bitsPerLvl: 11, startLvl0: 16}
	case 3: // 64KB
		return granuleInfo{pageShift: 16, bitsPerLvl: 13, startLvl0: 6}
	default: // 0: 4KB
		return granuleInfo{pageShift: 12, bitsPerLvl: 9, startLvl0: 16}
	}
}

func (cpu *CPUState) walkAArch64(vaddr uint64, access AccessType) (TranslationOutcome, error) {
	el := cpu.currentEL()
	tableEL := el
	if el == EL0 {
		tableEL = EL1 // EL1&0 regime: EL0 accesses walk under TTBR0_EL1/TTBR1_EL1
	}

	tcr := cpu.Sys.Tcr[tableEL]
	t0sz := extract64(tcr, 0, 6)
	t1sz := extract64(tcr, 16, 6)
	tg0 := extract64(tcr, 14, 2)
	tg1raw := extract64(tcr, 30, 2)
	// TG1 uses a different encoding (01=16K,10=4K,11=64K); normalize to the
	// same meaning as TG0 (00=4K,01=16K,11=64K) for granuleFor.
	tg1 := map[uint64]uint64{0: 0, 1: 1, 2: 0, 3: 3}[tg1raw]

	useHigh := t1sz != 0 && tableEL != EL2 && vaddr>>(64-t1sz) == (1<<t1sz)-1
	var sz uint64
	var ttbr uint64
	var tg uint64
	if useHigh {
		sz, tg, ttbr = t1sz, tg1, cpu.Sys.Ttbr1El[tableEL]
	} else {
		sz, tg, ttbr = t0sz, tg0, cpu.Sys.Ttbr0El[tableEL]
	}
	if sz == 0 {
		sz = 25 // architectural default region size when T*SZ programmed as 0 in this core's reset state
	}

	g := granuleFor(tg)
	inputBits := 64 - sz
	startLevel := startLevelFor(inputBits, g)

	tableBase := ttbr &^ 0xFFF
	addr := vaddr

	level := startLevel
	for {
		shift := g.pageShift + g.bitsPerLvl*uint(3-level)
		var idxBits uint
		if level == startLevel {
			idxBits = inputBits - shift
		} else {
			idxBits = g.bitsPerLvl
		}
		index := (addr >> shift) & ((1 << idxBits) - 1)

		descAddr := tableBase + index*8
		desc, err := cpu.bus.LdqPhys(descAddr)
		if err != nil {
			return TranslationOutcome{}, err
		}

		if desc&1 == 0 {
			return TranslationOutcome{}, cpu.pageFault(FaultTranslation, level, 0, access, vaddr)
		}

		isTable := level < 3 && desc&2 != 0
		if isTable {
			tableBase = desc &^ 0xFFF
			level++
			if level > 3 {
				return TranslationOutcome{}, fmt.Errorf("arm: translation walk exceeded level 3")
			}
			continue
		}

		// Block (levels 0-2) or page (level 3) descriptor.
		blockShift := g.pageShift + g.bitsPerLvl*uint(3-level)
		blockMask := (uint64(1) << blockShift) - 1
		phys := (desc &^ 0xFFF &^ blockMask) | (addr & blockMask)

		// ap is AP[2:1] from descriptor bits [7:6]: AP[1] (ap&1, bit6) gates
		// EL0 access, AP[2] (ap&2, bit7) marks read-only (ARM ARM D5 Table
		// "Stage 1 access permissions").
		ap := extract64(desc, 6, 2)
		uxn := desc&(1<<54) != 0
		pxn := desc&(1<<53) != 0

		isUser := el == EL0
		if ap&1 == 0 && isUser {
			return TranslationOutcome{}, cpu.pageFault(FaultPermission, level, 0, access, vaddr)
		}
		prot := uint8(PageRead)
		if ap&2 == 0 {
			prot |= PageWrite
		}
		xn := uxn
		if !isUser {
			xn = pxn
		}
		if !xn {
			prot |= PageExec
		}

		return TranslationOutcome{PhysAddr: phys, PageSize: blockMask + 1, Prot: prot}, nil
	}
}

// startLevelFor picks the initial lookup level so that levelBits*levels >=
// inputBits, per the ARMv8 ARM's "first level of lookup" table.
func startLevelFor(inputBits uint, g granuleInfo) uint {
	levels := uint(0)
	covered := g.pageShift
	for covered < inputBits {
		covered += g.bitsPerLvl
		levels++
	}
	if levels == 0 {
		levels = 1
	}
	if levels > 4 {
		levels = 4
	}
	return 4 - levels
}
