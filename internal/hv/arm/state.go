// Package arm implements the architectural state machine shared by the
// ARMv7-A/R, ARMv7-M and ARMv8-A/R emulation regimes: the register file and
// PSTATE/CPSR semantics, the memory translation regimes, exception entry and
// return, and the system (coprocessor) register dispatch table.
//
// Instruction decode and translation-block generation are NOT part of this
// package: a translator front end calls into CPUState's exported helpers for
// every guest instruction that touches architectural state, and into the Bus
// and Host interfaces on every load, store or fetch that needs physical
// memory or an external controller.
package arm

import "fmt"

// Feature is a bitset of optional architectural extensions, mirroring the
// ARM_FEATURE_* bits a real core is built from.
type Feature uint64

const (
	FeatureV4T Feature = 1 << iota
	FeatureV5
	FeatureV6
	FeatureV6K
	FeatureV7
	FeatureV8
	FeatureV7MP
	FeatureThumb2
	FeatureThumb2EE
	FeatureThumbDiv
	FeatureArmDiv
	FeatureVFP
	FeatureVFP3
	FeatureVFP4
	FeatureVFPFP16
	FeatureNeon
	FeatureMPU
	FeaturePMSA
	FeatureAuxCR
	FeatureXScale
	FeatureStrongARM
	FeatureIWMMXT
	FeatureVAPA
	FeatureGenericTimer
	FeatureEL2
	FeatureEL3
	FeatureAArch64
	FeaturePMU
	FeatureCBARRO
	FeatureOMAPCP
)

// Has reports whether every bit in want is set in f.
func (f Feature) Has(want Feature) bool { return f&want == want }

// applyImplications sets feature bits implied by other feature bits, mirroring
// cpu_init's "V7->VAPA, ARM_DIV->THUMB_DIV, PMSA->MPU" rules (spec §6.2).
func applyImplications(f Feature) Feature {
	if f.Has(FeatureV7) {
		f |= FeatureVAPA
	}
	if f.Has(FeatureArmDiv) {
		f |= FeatureThumbDiv
	}
	if f.Has(FeaturePMSA) {
		f |= FeatureMPU
	}
	return f
}

// ExceptionLevel is an AArch64 EL, or the AArch32 analogue derived from CPSR.M.
type ExceptionLevel uint8

const (
	EL0 ExceptionLevel = 0
	EL1 ExceptionLevel = 1
	EL2 ExceptionLevel = 2
	EL3 ExceptionLevel = 3
)

// Mode is an AArch32 processor mode, the low 5 bits of CPSR.
type Mode uint32

const (
	ModeUSR Mode = 0x10
	ModeFIQ Mode = 0x11
	ModeIRQ Mode = 0x12
	ModeSVC Mode = 0x13
	ModeMON Mode = 0x16
	ModeABT Mode = 0x17
	ModeHYP Mode = 0x1a
	ModeUND Mode = 0x1b
	ModeSYS Mode = 0x1f
)

// CPSR field masks (spec §3, §4.B).
const (
	CPSRM     = 0x1f
	CPSRT     = 1 << 5
	CPSRF     = 1 << 6
	CPSRI     = 1 << 7
	CPSRA     = 1 << 8
	CPSRE     = 1 << 9
	CPSRIT2_7 = 0xfc00 // IT[7:2]
	CPSRGE    = 0xf << 16
	CPSRIL    = 1 << 20 // Illegal-state, AArch32 equivalent placement
	CPSRJ     = 1 << 24
	CPSRIT0_1 = 0x3 << 25 // IT[1:0]
	CPSRQ     = 1 << 27
	CPSRV     = 1 << 28
	CPSRC     = 1 << 29
	CPSRZ     = 1 << 30
	CPSRN     = 1 << 31

	CPSRNZCV = CPSRN | CPSRZ | CPSRC | CPSRV
	CPSRIT   = CPSRIT2_7 | CPSRIT0_1
	CPSRPSR  = CPSRNZCV | CPSRQ | CPSRGE | CPSRIT | CPSRJ | CPSRT

	CPSRPrimask = CPSRI
)

// PSTATE field masks (spec §3, AArch64).
const (
	PStateSP   = 1 << 0
	PStateEL   = 3 << 2
	PStateNRW  = 1 << 4
	PStateF    = 1 << 6
	PStateI    = 1 << 7
	PStateA    = 1 << 8
	PStateD    = 1 << 9
	PStateIL   = 1 << 20
	PStateSS   = 1 << 21
	PStateUAO  = 1 << 23
	PStatePAN  = 1 << 22
	PStateV    = 1 << 28
	PStateC    = 1 << 29
	PStateZ    = 1 << 30
	PStateN    = 1 << 31
	PStateDIT  = 1 << 24
	PStateTCO  = 1 << 25
	PStateSSBS = 1 << 12
)

// WriteType distinguishes the three ways CPSR/PSTATE can be written
// (spec §4.B).
type WriteType int

const (
	WriteRaw WriteType = iota
	WriteByInstr
	WriteException
)

// bankIndex enumerates the AArch32 register banks, in the order
// bank_number(mode) assigns them (spec §4.C).
const (
	bankUSR = 0
	bankSVC = 1
	bankABT = 2
	bankUND = 3
	bankIRQ = 4
	bankFIQ = 5
	bankHYP = 6
	bankMON = 7

	numR13Banks  = 8 // USR/SYS..MON
	numR14Banks  = 8
	numSpsrBanks = 8
)

// Pmsav7Region is one PMSAv7 MPU region (spec §4.D.2).
type Pmsav7Region struct {
	Base    uint32
	RSR     uint32 // size (bits [5:1]) + enable (bit 0) + subregion disable (bits [15:8])
	RACR    uint32 // access control: AP in bits [10:8], XN bit 12, TEX/S/C/B elsewhere
}

// Pmsav8Region is one PMSAv8 MPU region (spec §4.D.3), AArch32 or AArch64
// flavor; base+limit with precomputed overlap mask.
type Pmsav8Region struct {
	Enabled bool
	Base    uint64
	Limit   uint64
	AP      uint8 // AP[2:1]-style: bit0=RO, bit1=EL0 allowed
	XN      bool
	PXN     bool // AArch64 hyp regions only

	// OverlappingRegionsMask has bit i set iff region i is enabled and its
	// [Base,Limit] range overlaps this region's. Maintained incrementally by
	// recomputeOverlaps on every SetRegion call (spec §4.D.3).
	OverlappingRegionsMask uint32
}

// PMSAv8State holds the AArch32 PMSAv8-R/M or AArch64 MPU register file.
type PMSAv8State struct {
	Ctrl     uint32 // bit0 ENABLE, bit2 HFNMIENA, bit3 PRIVDEFENA
	RNR      uint32
	MAIR     [2]uint32
	Regions  []Pmsav8Region // indexed by region number, len == NumberOfRegions
	HRegions []Pmsav8Region // EL2 regions, PMSAv8-R only

	PRSELR  uint32
	HPRSELR uint32
	HPRENR  uint32
}

// V7MState holds ARMv7-M specific state (spec §3, §4.E.2).
type V7MState struct {
	VecBase     uint32 // VTOR
	BasePri     uint32
	FaultMask   uint32
	Control     uint32 // bit0 nPriv, bit1 SPSEL, bit2 FPCA
	CurrentSP   uint32 // 0=MSP, 1=PSP
	OtherSP     uint32
	FaultStatus uint32 // CFSR
	FPCCR       uint32
	FPCAR       uint32
	FPDSCR      uint32
	HandlerMode bool
	Exception   uint32 // current IPSR exception number
}

// SysRegs is the opaque AArch32/AArch64 architectural register backing store
// referenced by both the translator and system-register table entries
// (spec §3 "cp15.*"). Unlike the C original, table entries bind to these
// fields through Go pointers captured at table-construction time (see
// sysreg.go) rather than byte offsets — the Design Notes §9 "Field{offset,
// width}" variant becomes "Field{ptr}" in Go, which is memory-safe and
// requires no reflection.
type SysRegs struct {
	Midr      uint32
	Mpidr     uint64
	VMpidrEl2 uint64
	Mvfr0     uint32
	Mvfr1     uint32
	Fpsid     uint32
	CTR       uint32
	CCSIDR    uint32
	CSSELR    uint32
	CLIDR     uint32

	// AArch32 VMSA
	C2Ctrl  uint32 // TTBCR: N field
	TTBR0   uint64
	TTBR1   uint64
	DACR    uint32
	C13FCSE uint32
	Cbar    uint32

	// AArch32 fault status/address registers, populated by RaiseDataAbort and
	// RaiseInstructionAbort.
	Dfsr uint32
	Dfar uint32
	Ifsr uint32
	Ifar uint32

	// Shared SCTLR/VBAR per EL (index 0 unused for AArch32 Secure/NS merge).
	Sctlr [4]uint32
	Vbar  [4]uint32
	Far   [4]uint64
	Esr   [4]uint64
	Elr   [4]uint64
	Mair  [4]uint64
	Tcr   [4]uint64
	Ttbr0El [4]uint64
	Ttbr1El [4]uint64

	ScrEl3   uint64
	HcrEl2   uint64
	CptrEl2  uint64
	CpacrEl1 uint64

	CntfrqEl0  uint64
	CntpCtlEl0 uint64
	CntpCvalEl0 uint64
	CntvCtlEl0 uint64
	CntvCvalEl0 uint64
	CnthpCtlEl2 uint64
	CnthpCvalEl2 uint64
	CnthvCtlEl2 uint64
	CnthvCvalEl2 uint64

	ContextidrEl1 uint64

	// AArch64 debug breakpoint/watchpoint register pairs (spec §4.A
	// supplement, grounded on system_registers.c's DBGBVR<n>/DBGBCR<n>/
	// DBGWVR<n>/DBGWCR<n> blocks). Indexed by breakpoint/watchpoint number;
	// this core stores them but does not evaluate them against the PC/address
	// stream, since single-step/watchpoint trapping is not implemented.
	DbgBvr [numBreakpoints]uint64
	DbgBcr [numBreakpoints]uint32
	DbgWvr [numWatchpoints]uint64
	DbgWcr [numWatchpoints]uint32
	Mdscr  uint64

	// PMU administrative registers (spec §4.A supplement, grounded on
	// system_registers.c's PMCR_EL0/PMCNTENSET_EL0/PMCCNTR_EL0/PMOVSCLR_EL0/
	// PMUSERENR_EL0/PMEVCNTR<n>_EL0/PMEVTYPER<n>_EL0 group). Plain storage,
	// like CNTFRQ_EL0: this core does not itself drive the cycle/event
	// counters forward, leaving that to whatever host time source a
	// translator wires in.
	PmcrEl0       uint64
	PmcntensetEl0 uint64
	PmccntrEl0    uint64
	PmovsclrEl0   uint64
	PmuserenrEl0  uint64
	PmevcntrEl0   [numPMUEventCounters]uint64
	PmevtyperEl0  [numPMUEventCounters]uint64

	// AArch64 ID feature registers (spec §4.A supplement) are FlagConst
	// table entries computed once in buildTTable and held in their
	// ResetValue, not here: they carry no backing field. CBAR and
	// PMSAv7_NUMBER are FlagConst too, but read through Get closures over
	// Sys.Cbar and NumMPURegions.
}

const (
	numBreakpoints      = 6
	numWatchpoints      = 4
	numPMUEventCounters = 6
)

// CPUState is the sole mutable entity describing one ARM core (spec §3).
// Every other structure (ARMCPRegInfo arrays, the TTable) is static data
// borrowed by reference.
type CPUState struct {
	// --- AArch32 register file ---
	Regs [16]uint32

	UsrRegs [6]uint32 // r8..r13 USR/SYS shadow
	FiqRegs [6]uint32 // r8..r13 FIQ shadow

	BankedR13  [numR13Banks]uint32
	BankedR14  [numR14Banks]uint32
	BankedSpsr [numSpsrBanks]uint32

	UncachedCPSR uint32 // CPSR minus N/Z/C/V/Q/GE/IT/T

	NF, ZF, CF, VF, QF uint32
	GE                 uint32
	CondexecBits       uint32
	Thumb              bool

	Mode Mode

	// --- AArch64 register file ---
	XRegs       [32]uint64
	PC          uint64
	SPEL        [4]uint64 // sp_el0..sp_el3
	CurrentSPEL uint8     // which sp_el[] is architecturally visible via XRegs[31]

	PState uint64
	DAIF   uint32

	BankedSpsrEL [8]uint64 // aarch64_banked_spsr_index(EL) -> SPSR_ELx

	// --- exclusive monitor (spec §5) ---
	ExclusiveAddr uint64 // -1 (all bits set) == no reservation
	ExclusiveVal  uint64
	ExclusiveHigh uint64

	// --- coprocessor/system register backing store ---
	Sys SysRegs

	// --- ARMv7-M ---
	V7M V7MState

	// --- PMSAv7 (ARMv7-R/M MPU) ---
	Pmsav7Regions []Pmsav7Region
	Pmsav7Ctrl    uint32 // SCTLR.BR lives here conceptually; modeled via Sys.Sctlr[EL1]

	// --- PMSAv8 MPU ---
	Pmsav8 PMSAv8State

	// --- configuration, reset-persistent ---
	Features      Feature
	CPUModel      string
	NumMPURegions int
	AvailableEL2  bool
	AvailableEL3  bool
	HighVectors   bool // SCTLR bit13 / legacy VBAR==0xFFFF0000 selection, cached
	v7mProfile    bool // true for Cortex-M cores: xPSR instead of CPSR, V7M trap machinery

	// --- scratch / transient ---
	ExceptionIndex int
	Exception      ExceptionInfo

	// regTable is the per-regime system register lookup table, built once in
	// cpu_init and never rebuilt (spec §4.F, §3 TTable).
	regTable *TTable

	// simulationStarted becomes true the moment the first instruction helper
	// runs; tlib_set_available_els refuses to act afterwards (spec §6.4).
	simulationStarted bool

	host Host
	bus  *Bus

	// cachedRegime memoizes selectRegime's dispatch decision; rebuildHiddenFlags
	// invalidates it on every SCTLR.M / feature / EL / HCR.E2H / region-count
	// change (spec §9 "recomputed on every ... change").
	cachedRegime translationRegime
}

// ExceptionInfo carries the AArch64 exception.{syndrome,target_el,vaddress}
// scratch fields (spec §3).
type ExceptionInfo struct {
	Syndrome  uint64
	TargetEL  ExceptionLevel
	VAddress  uint64
}

// NewCPUState allocates a CPUState wired to the given Bus and Host and resets
// it to the power-on state for name (see cpuid.go for the name table).
func NewCPUState(name string, bus *Bus, host Host) (*CPUState, error) {
	cpu := &CPUState{bus: bus, host: host}
	if err := cpu.initCPUModel(name); err != nil {
		return nil, err
	}
	cpu.Reset()
	return cpu, nil
}

// Reset zeroes everything up to the "common" boundary: feature bits, CPU ID
// registers, core configuration (NumMPURegions, AvailableEL2/3) and the
// system-register table survive; everything else is cleared (spec §3).
func (cpu *CPUState) Reset() {
	cpu.Regs = [16]uint32{}
	cpu.UsrRegs = [6]uint32{}
	cpu.FiqRegs = [6]uint32{}
	cpu.BankedR13 = [numR13Banks]uint32{}
	cpu.BankedR14 = [numR14Banks]uint32{}
	cpu.BankedSpsr = [numSpsrBanks]uint32{}
	cpu.UncachedCPSR = 0
	cpu.NF, cpu.ZF, cpu.CF, cpu.VF, cpu.QF = 0, 1, 0, 0, 0
	cpu.GE = 0
	cpu.CondexecBits = 0
	cpu.Thumb = false

	cpu.XRegs = [32]uint64{}
	cpu.SPEL = [4]uint64{}
	cpu.CurrentSPEL = 0
	cpu.PState = 0
	cpu.DAIF = 0
	cpu.BankedSpsrEL = [8]uint64{}

	cpu.ExclusiveAddr = ^uint64(0)
	cpu.ExclusiveVal = 0
	cpu.ExclusiveHigh = 0

	cpu.V7M = V7MState{}
	cpu.Pmsav8 = PMSAv8State{
		Regions:  make([]Pmsav8Region, cpu.NumMPURegions),
		HRegions: make([]Pmsav8Region, cpu.NumMPURegions),
	}
	cpu.Pmsav7Regions = make([]Pmsav7Region, cpu.NumMPURegions)

	cpu.ExceptionIndex = 0
	cpu.Exception = ExceptionInfo{}
	cpu.simulationStarted = false
	cpu.cachedRegime = regimeUnknown

	if cpu.Features.Has(FeatureAArch64) {
		el := EL1
		if cpu.AvailableEL3 {
			el = EL3
		} else if cpu.AvailableEL2 {
			el = EL2
		}
		cpu.PState = aarch64PstateMode(el, true)
		cpu.Mode = ModeSVC
	} else {
		cpu.Mode = ModeSVC
		cpu.UncachedCPSR = uint32(ModeSVC) | CPSRI | CPSRF
	}
}

func (cpu *CPUState) markStarted() {
	cpu.simulationStarted = true
}

func (cpu *CPUState) String() string {
	return fmt.Sprintf("arm.CPUState{model=%s features=%#x el=%d mode=%#x pc=%#x}",
		cpu.CPUModel, cpu.Features, cpu.currentEL(), cpu.Mode, cpu.PC)
}
