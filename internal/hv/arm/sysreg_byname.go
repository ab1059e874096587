package arm

import (
	"fmt"
	"strings"
)

// By-name system register access and EL availability configuration
// (spec §6.4). These are host-facing debug/config entry points distinct from
// the guest-facing helper_{get,set}_cp_reg* in sysreg_access.go.

var errSimulationStarted = fmt.Errorf("arm: operation not permitted after simulation has started")

// byNameAlias maps a handful of commonly-used alternate spellings to the
// canonical name in the table (spec §6.4: "ICV_* -> ICC_*",
// "DBGDTRRX_EL0 -> DBGDTR_RX_TX_EL0"-style GIC/debug aliasing). Only the
// aliases this core's table actually has a target for are listed; an unlisted
// alias simply falls through to a not-found lookup.
var byNameAlias = map[string]string{
	"ICV_CTLR_EL1": "ICC_CTLR_EL1",
	"ICV_PMR_EL1":  "ICC_PMR_EL1",
	"ICV_IAR1_EL1": "ICC_IAR1_EL1",
	"ICV_EOIR1_EL1": "ICC_EOIR1_EL1",
}

func (cpu *CPUState) resolveByName(name string) (*CPRegInfo, error) {
	name = strings.ToUpper(name)
	if alias, ok := byNameAlias[name]; ok {
		name = alias
	}
	reg, ok := cpu.regTable.lookupByName(name)
	if !ok {
		return nil, fmt.Errorf("arm: unknown system register %q", name)
	}
	return reg, nil
}

// GetSystemRegister implements tlib_get_system_register: a raw read that
// bypasses cpAccessOk's privilege gating, since it is a host debug facility
// rather than a guest instruction (spec §6.4).
func (cpu *CPUState) GetSystemRegister(name string) (uint64, error) {
	reg, err := cpu.resolveByName(name)
	if err != nil {
		return 0, err
	}
	return reg.read(cpu), nil
}

// SetSystemRegister implements tlib_set_system_register.
func (cpu *CPUState) SetSystemRegister(name string, val uint64) error {
	reg, err := cpu.resolveByName(name)
	if err != nil {
		return err
	}
	reg.write(cpu, val)
	cpu.rebuildHiddenFlags()
	return nil
}

// CheckSystemRegisterAccess implements tlib_check_system_register_access: a
// dry-run of accessCheckCPReg used by debuggers to decide whether a read or
// write would trap before actually issuing it.
func (cpu *CPUState) CheckSystemRegisterAccess(name string, isRead bool) error {
	reg, err := cpu.resolveByName(name)
	if err != nil {
		return err
	}
	return cpu.accessCheckCPReg(reg, isRead)
}

// SetAvailableELs implements tlib_set_available_els: configures whether EL2
// and EL3 are implemented. Refuses once the guest has started running,
// since EL availability is baked into the vector layout, SCR_EL3 reset value
// and exception routing computed at reset (spec §6.4).
func (cpu *CPUState) SetAvailableELs(el2, el3 bool) error {
	if cpu.simulationStarted {
		return errSimulationStarted
	}
	cpu.AvailableEL2 = el2
	cpu.AvailableEL3 = el3
	cpu.rebuildHiddenFlags()
	return nil
}
