// Command armdbg is an interactive CPUState inspector: it loads a flat binary
// image into guest RAM, lets you poke system registers by name, and renders a
// colorized register/flag dump, in the spirit of the teacher's terminal-raw-
// mode CLIs (cmd/cc) but scoped to this package's state rather than a full
// terminal emulation.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"

	"github.com/vannaka/tlib-sub001/internal/hv/arm"
)

var (
	cpuModel = flag.String("cpu", "cortex-a53", "CPU model name (see -list)")
	ramSize  = flag.Uint64("ram", 16<<20, "RAM size in bytes")
	loadAddr = flag.Uint64("load-addr", 0, "physical address to load -image at")
	image    = flag.String("image", "", "flat binary image to load into RAM")
	list     = flag.Bool("list", false, "list known CPU models and exit")
)

func main() {
	flag.Parse()

	if *list {
		names, err := arm.ListCPUModels()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return
	}

	m, err := arm.NewMachine(*cpuModel, *ramSize, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "armdbg:", err)
		os.Exit(1)
	}

	if *image != "" {
		data, err := os.ReadFile(*image)
		if err != nil {
			fmt.Fprintln(os.Stderr, "armdbg:", err)
			os.Exit(1)
		}
		if err := m.LoadBytes(*loadAddr, data); err != nil {
			fmt.Fprintln(os.Stderr, "armdbg:", err)
			os.Exit(1)
		}
	}

	fmt.Print(ansi.EraseEntireScreen() + ansi.CursorPosition(1, 1))
	runREPL(m)
}

func runREPL(m *arm.Machine) {
	dumpState(m.CPU)

	stdin := bufio.NewScanner(os.Stdin)
	isTerm := term.IsTerminal(int(os.Stdin.Fd()))
	for {
		if isTerm {
			fmt.Print("armdbg> ")
		}
		if !stdin.Scan() {
			return
		}
		line := strings.TrimSpace(stdin.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "quit", "exit", "q":
			return
		case "regs", "r":
			dumpState(m.CPU)
		case "get":
			handleGet(m.CPU, fields)
		case "set":
			handleSet(m.CPU, fields)
		case "help", "?":
			printHelp()
		default:
			fmt.Printf("unknown command %q (try \"help\")\n", fields[0])
		}
	}
}

func handleGet(cpu *arm.CPUState, fields []string) {
	if len(fields) != 2 {
		fmt.Println("usage: get <sysreg-name>")
		return
	}
	v, err := cpu.GetSystemRegister(fields[1])
	if err != nil {
		colorPrintln(31, err.Error())
		return
	}
	fmt.Printf("%s = %#x\n", strings.ToUpper(fields[1]), v)
}

func handleSet(cpu *arm.CPUState, fields []string) {
	if len(fields) != 3 {
		fmt.Println("usage: set <sysreg-name> <hex-or-dec-value>")
		return
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(fields[2], "0x"), hexOrDecBase(fields[2]), 64)
	if err != nil {
		colorPrintln(31, "bad value: "+err.Error())
		return
	}
	if err := cpu.SetSystemRegister(fields[1], v); err != nil {
		colorPrintln(31, err.Error())
		return
	}
	fmt.Printf("%s := %#x\n", strings.ToUpper(fields[1]), v)
}

func hexOrDecBase(s string) int {
	if strings.HasPrefix(s, "0x") {
		return 16
	}
	return 10
}

func printHelp() {
	fmt.Println("commands: regs|r, get <name>, set <name> <value>, quit")
}

// dumpState renders CPSR/PSTATE flags, the current EL/mode and the register
// file, colorizing set condition flags so a guest's flag state is visible at
// a glance without reading hex.
func dumpState(cpu *arm.CPUState) {
	if cpu.Features.Has(arm.FeatureAArch64) {
		dumpAArch64(cpu)
	} else {
		dumpAArch32(cpu)
	}
}

func dumpAArch64(cpu *arm.CPUState) {
	fmt.Printf("EL%d  PC=%#016x\n", cpu.CurrentEL(), cpu.PC)
	pstate := cpu.PSTATERead()
	fmt.Printf("PSTATE = %#010x  %s\n", pstate, flagString(pstate))
	for i := 0; i < 31; i += 4 {
		for j := i; j < i+4 && j < 31; j++ {
			fmt.Printf("X%-2d=%#018x ", j, cpu.XRegs[j])
		}
		fmt.Println()
	}
	fmt.Printf("SP=%#018x\n", cpu.XRegs[31])
}

func dumpAArch32(cpu *arm.CPUState) {
	cpsr := cpu.CPSRRead()
	fmt.Printf("mode=%s  PC=%#010x\n", modeName(cpu.Mode), cpu.Regs[15])
	fmt.Printf("CPSR = %#010x  %s\n", cpsr, flagString(uint64(cpsr)))
	for i := 0; i < 16; i += 4 {
		fmt.Printf("R%-2d=%#010x R%-2d=%#010x R%-2d=%#010x R%-2d=%#010x\n",
			i, cpu.Regs[i], i+1, cpu.Regs[i+1], i+2, cpu.Regs[i+2], i+3, cpu.Regs[i+3])
	}
}

var modeNames = map[arm.Mode]string{
	arm.ModeUSR: "usr", arm.ModeFIQ: "fiq", arm.ModeIRQ: "irq", arm.ModeSVC: "svc",
	arm.ModeMON: "mon", arm.ModeABT: "abt", arm.ModeHYP: "hyp", arm.ModeUND: "und", arm.ModeSYS: "sys",
}

func modeName(m arm.Mode) string {
	if n, ok := modeNames[m]; ok {
		return n
	}
	return fmt.Sprintf("%#x", uint32(m))
}

// flagString renders N/Z/C/V in color: green when set, dim when clear.
func flagString(bits uint64) string {
	var b strings.Builder
	for _, f := range []struct {
		name string
		bit  uint64
	}{{"N", 1 << 31}, {"Z", 1 << 30}, {"C", 1 << 29}, {"V", 1 << 28}} {
		set := bits&f.bit != 0
		if set {
			b.WriteString(sgr(32, f.name))
		} else {
			b.WriteString(sgr(90, f.name))
		}
		b.WriteByte(' ')
	}
	return b.String()
}

func sgr(color int, s string) string {
	return fmt.Sprintf("\x1b[%dm%s\x1b[0m", color, s)
}

func colorPrintln(color int, s string) {
	fmt.Println(sgr(color, s))
}
