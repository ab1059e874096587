package arm

import "fmt"

// System (coprocessor) register descriptors and dispatch table (spec §3
// ARMCPRegInfo / TTable, §4.F). Unlike the original's byte-offset
// "fieldoffset" into a flat CPUState struct, each CPRegInfo here binds to its
// backing storage through a pair of closures captured at table-construction
// time inside buildTTable — a direct realization of spec §9's suggested
// "Field{offset,width} -> Field{ptr}" redesign, adapted to Go where a raw
// pointer into a per-instance struct would outlive the static catalog it's
// built from just as well as a closure does, but without unsafe.Pointer
// arithmetic.

// RegState selects which instruction sets can reach a descriptor.
type RegState uint8

const (
	StateAA32 RegState = iota
	StateAA64
	StateBoth
)

// CPAccess gates read/write per privilege/security state, spec §4.F
// cp_access_ok.
type CPAccess uint8

const (
	AccessRW CPAccess = iota
	AccessRO
	AccessWO
)

// CPFlag is a bitset of the ARM_CP_* behavioral flags the original attaches
// to a descriptor.
type CPFlag uint32

const FlagNone CPFlag = 0

const (
	FlagConst CPFlag = 1 << iota
	FlagNoRaw
	FlagNop
	FlagIO
	FlagAlias
	FlagSuppressTBFlush
	Flag64Bit
)

// CPRegInfo is one system-register descriptor, bound to a specific CPUState
// instance (spec §3 ARMCPRegInfo).
type CPRegInfo struct {
	Name string

	CP                     int // 14 or 15 for AArch32; unused for AArch64
	Opc0, Opc1, Opc2       uint8
	CRn, CRm               uint8
	State                  RegState
	MinEL                  ExceptionLevel
	Flags                  CPFlag
	Access                 CPAccess
	ResetValue             uint64

	// Get/Set are nil for most FlagConst entries, which then read ResetValue;
	// a FlagConst entry that has a Get (CBAR, PMSAv7_NUMBER) reads through it.
	// FlagConst entries reject writes (unless FlagNop, which silently discards
	// them).
	Get func(cpu *CPUState) uint64
	Set func(cpu *CPUState, val uint64)
}

func (r *CPRegInfo) read(cpu *CPUState) uint64 {
	if r.Get == nil {
		return r.ResetValue
	}
	return r.Get(cpu)
}

func (r *CPRegInfo) write(cpu *CPUState, val uint64) {
	if r.Flags&(FlagConst|FlagNop) != 0 || r.Set == nil {
		return
	}
	r.Set(cpu, val)
}

// encodeAA32Key packs an AArch32 coprocessor access into a single lookup key
// (cp, 64-bit-ness, CRn, opc1, CRm, opc2), mirroring ENCODE_CP_REG.
func encodeAA32Key(cp int, is64 bool, crn, opc1, crm, opc2 uint8) uint32 {
	var k uint32
	if is64 {
		k |= 1 << 24
	}
	k |= uint32(cp&0x3f) << 18
	k |= uint32(crn&0xf) << 14
	k |= uint32(opc1&0xf) << 10
	k |= uint32(crm&0xf) << 6
	k |= uint32(opc2 & 0x7)
	return k
}

// encodeAA64Key packs an AArch64 MRS/MSR access (Op0/Op1/CRn/CRm/Op2) into a
// lookup key, mirroring ENCODE_AA64_CP_REG.
func encodeAA64Key(op0, op1, crn, crm, op2 uint8) uint32 {
	return uint32(op0&3)<<17 | uint32(op1&7)<<14 | uint32(crn&15)<<10 |
		uint32(crm&15)<<6 | uint32(op2&7)<<1 | 1
}

// TTable is the per-CPU-instance lookup table, keyed by a state tag folded
// into the top bit of the encoded key so AArch32 and AArch64 accesses never
// collide (spec §3 "TTable keyed lookup").
type TTable struct {
	entries map[uint32]*CPRegInfo
}

func newTTable() *TTable {
	return &TTable{entries: make(map[uint32]*CPRegInfo)}
}

const ttableAA64Tag = 1 << 31

func (t *TTable) insert(key uint32, aa64 bool, reg *CPRegInfo) error {
	if aa64 {
		key |= ttableAA64Tag
	}
	if _, exists := t.entries[key]; exists {
		return fmt.Errorf("arm: duplicate system register key %#x (%s)", key, reg.Name)
	}
	t.entries[key] = reg
	return nil
}

func (t *TTable) lookupAA32(cp int, is64 bool, crn, opc1, crm, opc2 uint8) (*CPRegInfo, bool) {
	r, ok := t.entries[encodeAA32Key(cp, is64, crn, opc1, crm, opc2)]
	return r, ok
}

func (t *TTable) lookupAA64(op0, op1, crn, crm, op2 uint8) (*CPRegInfo, bool) {
	r, ok := t.entries[encodeAA64Key(op0, op1, crn, crm, op2)|ttableAA64Tag]
	return r, ok
}

func (t *TTable) lookupByName(name string) (*CPRegInfo, bool) {
	for _, r := range t.entries {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}
