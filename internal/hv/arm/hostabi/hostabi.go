// Package hostabi binds, via purego, to an external reference tlib-compatible
// shared library for differential testing: a host tool can load a real
// tlib.so build and call its system-register and MPU configuration entry
// points next to this package's Go implementation, the same way the
// teacher's internal/hv/hvf/bindings package dlopens Hypervisor.framework
// rather than reimplementing it. cmd/armconform does not import it.
//
// The library path is supplied by the caller (typically from an environment
// variable or flag); this package never guesses a default install location,
// since a reference tlib build is an optional, out-of-repo conformance tool
// and not something this module ships or requires.
package hostabi

import (
	"fmt"
	"sync"

	"github.com/ebitengine/purego"
)

// Lib is a loaded reference library and its bound tlib_* entry points. Only
// a subset of the library's tlib_* surface is bound: system register
// get/set/check, EL2/EL3 availability, the MPU region count and MPU enable,
// the counterparts of operations in this package's own sysreg_byname.go and
// mpu_config.go host-facing API.
type Lib struct {
	handle uintptr

	tlibGetSystemRegister          func(name string) uint64
	tlibSetSystemRegister          func(name string, value uint64)
	tlibCheckSystemRegisterAccess  func(name string, isWrite int32) int32
	tlibSetAvailableEls            func(el2, el3 int32) int32
	tlibSetNumberOfMpuRegions      func(count uint32)
	tlibEnableMpu                  func(enabled int32)
}

var (
	loadMu sync.Mutex
)

// Load dlopens path and binds the tlib_* symbols this package knows how to
// call. It is safe to call Load more than once with different paths; each
// call returns an independent *Lib.
func Load(path string) (*Lib, error) {
	loadMu.Lock()
	defer loadMu.Unlock()

	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("hostabi: dlopen %s: %w", path, err)
	}

	lib := &Lib{handle: handle}
	purego.RegisterLibFunc(&lib.tlibGetSystemRegister, handle, "tlib_get_system_register")
	purego.RegisterLibFunc(&lib.tlibSetSystemRegister, handle, "tlib_set_system_register")
	purego.RegisterLibFunc(&lib.tlibCheckSystemRegisterAccess, handle, "tlib_check_system_register_access")
	purego.RegisterLibFunc(&lib.tlibSetAvailableEls, handle, "tlib_set_available_els")
	purego.RegisterLibFunc(&lib.tlibSetNumberOfMpuRegions, handle, "tlib_set_number_of_mpu_regions")
	purego.RegisterLibFunc(&lib.tlibEnableMpu, handle, "tlib_enable_mpu")

	return lib, nil
}

// GetSystemRegister calls tlib_get_system_register on the reference library.
func (l *Lib) GetSystemRegister(name string) uint64 { return l.tlibGetSystemRegister(name) }

// SetSystemRegister calls tlib_set_system_register on the reference library.
func (l *Lib) SetSystemRegister(name string, value uint64) { l.tlibSetSystemRegister(name, value) }

// CheckSystemRegisterAccess returns tlib_check_system_register_access's
// {1=REGISTER_NOT_FOUND, 2=ACCESSOR_NOT_FOUND, 3=ACCESS_VALID} result.
func (l *Lib) CheckSystemRegisterAccess(name string, isWrite bool) int32 {
	var w int32
	if isWrite {
		w = 1
	}
	return l.tlibCheckSystemRegisterAccess(name, w)
}

// SetAvailableEls calls tlib_set_available_els, returning 1 if the reference
// library reports SIMULATION_ALREADY_STARTED.
func (l *Lib) SetAvailableEls(el2, el3 bool) int32 {
	return l.tlibSetAvailableEls(boolToI32(el2), boolToI32(el3))
}

// SetNumberOfMpuRegions calls tlib_set_number_of_mpu_regions.
func (l *Lib) SetNumberOfMpuRegions(count uint32) { l.tlibSetNumberOfMpuRegions(count) }

// EnableMpu calls tlib_enable_mpu.
func (l *Lib) EnableMpu(enabled bool) { l.tlibEnableMpu(boolToI32(enabled)) }

func boolToI32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
