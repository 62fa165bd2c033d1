// Package console implements the optional interactive host session of
// §C14: a small raw-terminal REPL that lets an operator poke registers
// and memory directly against a running board, sharing the same
// mutex-guarded debug state machine the TCP server uses. Grounded in
// the teacher's terminal_host.go, which puts stdin into raw mode via
// golang.org/x/term and reads it byte at a time; repurposed here from
// an async MMIO-feeding goroutine into a synchronous line-oriented
// REPL since a human operator, not a simulated UART, is on the other
// end.
package console

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/cortexsim/armboard/internal/debugsession"
)

// Console is never started unless the launcher's --interactive flag
// is set.
type Console struct {
	debugger *debugsession.Debugger
	out      *os.File
}

func New(d *debugsession.Debugger) *Console {
	return &Console{debugger: d, out: os.Stdout}
}

// Run puts stdin into raw mode and processes commands until "quit" or
// EOF, restoring the terminal before returning.
func (c *Console) Run() error {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("console: failed to set raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	fmt.Fprint(c.out, "armboard console. commands: r <reg>, w <reg> <value>, m <addr> <size>, step, run [max], reset, halt, quit\r\n> ")

	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil || n == 0 {
			return nil
		}
		b := buf[0]
		switch {
		case b == '\r' || b == '\n':
			fmt.Fprint(c.out, "\r\n")
			cmd := strings.TrimSpace(string(line))
			line = line[:0]
			if cmd == "" {
				fmt.Fprint(c.out, "> ")
				continue
			}
			if cmd == "quit" || cmd == "q" {
				fmt.Fprint(c.out, "bye\r\n")
				return nil
			}
			c.dispatch(cmd)
			fmt.Fprint(c.out, "> ")
		case b == 0x7F || b == 0x08:
			if len(line) > 0 {
				line = line[:len(line)-1]
				fmt.Fprint(c.out, "\b \b")
			}
		default:
			line = append(line, b)
			fmt.Fprintf(c.out, "%c", b)
		}
	}
}

func (c *Console) dispatch(cmd string) {
	fields := strings.Fields(cmd)
	switch fields[0] {
	case "r":
		if len(fields) != 2 {
			fmt.Fprint(c.out, "usage: r <reg>\r\n")
			return
		}
		idx, ok := registerIndex(fields[1])
		if !ok {
			fmt.Fprintf(c.out, "error: unknown register %q\r\n", fields[1])
			return
		}
		v, err := c.debugger.ReadRegister(idx)
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\r\n", err)
			return
		}
		fmt.Fprintf(c.out, "%s = 0x%08X\r\n", fields[1], v)

	case "w":
		if len(fields) != 3 {
			fmt.Fprint(c.out, "usage: w <reg> <value>\r\n")
			return
		}
		idx, ok := registerIndex(fields[1])
		if !ok {
			fmt.Fprintf(c.out, "error: unknown register %q\r\n", fields[1])
			return
		}
		v, err := parseUint32(fields[2])
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\r\n", err)
			return
		}
		if err := c.debugger.WriteRegister(idx, v); err != nil {
			fmt.Fprintf(c.out, "error: %v\r\n", err)
			return
		}
		fmt.Fprint(c.out, "ok\r\n")

	case "m":
		if len(fields) != 3 {
			fmt.Fprint(c.out, "usage: m <addr> <size>\r\n")
			return
		}
		addr, err := parseUint32(fields[1])
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\r\n", err)
			return
		}
		size, err := parseUint32(fields[2])
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\r\n", err)
			return
		}
		data, err := c.debugger.ReadMem(addr, size)
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\r\n", err)
			return
		}
		fmt.Fprintf(c.out, "0x%08X: %s\r\n", addr, hex.EncodeToString(data))

	case "step":
		sr := c.debugger.Step()
		fmt.Fprintf(c.out, "%s at 0x%08X\r\n", sr.Reason, sr.Address)

	case "run":
		var maxSteps uint64
		if len(fields) == 2 {
			v, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil {
				fmt.Fprintf(c.out, "error: %v\r\n", err)
				return
			}
			maxSteps = v
		}
		sr := c.debugger.Run(maxSteps)
		fmt.Fprintf(c.out, "%s at 0x%08X\r\n", sr.Reason, sr.Address)

	case "reset":
		if err := c.debugger.Reset(); err != nil {
			fmt.Fprintf(c.out, "error: %v\r\n", err)
			return
		}
		fmt.Fprint(c.out, "ok\r\n")

	case "halt":
		c.debugger.Halt()
		fmt.Fprint(c.out, "ok\r\n")

	default:
		fmt.Fprintf(c.out, "unknown command %q\r\n", fields[0])
	}
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), hexOrDecBase(s), 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return uint32(v), nil
}

func hexOrDecBase(s string) int {
	if strings.HasPrefix(s, "0x") {
		return 16
	}
	return 10
}

func registerIndex(name string) (int, bool) {
	switch name {
	case "r0":
		return 0, true
	case "r1":
		return 1, true
	case "r2":
		return 2, true
	case "r3":
		return 3, true
	case "r4":
		return 4, true
	case "r5":
		return 5, true
	case "r6":
		return 6, true
	case "r7":
		return 7, true
	case "r8":
		return 8, true
	case "r9":
		return 9, true
	case "r10":
		return 10, true
	case "r11":
		return 11, true
	case "r12":
		return 12, true
	case "sp":
		return 13, true
	case "lr":
		return 14, true
	case "pc":
		return 15, true
	default:
		return 0, false
	}
}
