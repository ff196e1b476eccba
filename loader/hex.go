// Package loader fills simulator memory from program images and reports
// where execution should start and stop. Two formats are supported: a
// simple hex dump (an @address directive followed by two-digit byte
// tokens) and RISC-V ELF executables. Loader failures are host-visible
// errors; they never panic and never become architectural traps.
package loader

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rvsim/rvsim/log"
	"github.com/rvsim/rvsim/mem"
	"github.com/rvsim/rvsim/metrics"
)

// LoadHexFile reads a hex dump into memory. A line either contains
// @address, where address is a hexadecimal memory address that becomes
// the current load address, or whitespace-separated tokens of two hex
// digits each, stored at consecutive addresses.
func LoadHexFile(m *mem.Memory, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("loader: %w", err)
	}
	defer f.Close()

	logger := log.Default().Module("loader")
	bytesLoaded := metrics.DefaultRegistry.Counter("loader/bytes_loaded")

	var addr, count uint64
	lineNo := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNo++
		for _, tok := range strings.Fields(scanner.Text()) {
			if tok[0] == '@' {
				a, err := strconv.ParseUint(tok[1:], 16, 64)
				if err != nil {
					return fmt.Errorf("loader: %s:%d: bad address %q", path, lineNo, tok)
				}
				addr = a
				continue
			}
			if len(tok) != 2 {
				return fmt.Errorf("loader: %s:%d: bad byte token %q", path, lineNo, tok)
			}
			b, err := strconv.ParseUint(tok, 16, 8)
			if err != nil {
				return fmt.Errorf("loader: %s:%d: bad byte token %q", path, lineNo, tok)
			}
			if !m.WriteByte(addr, uint8(b)) {
				return fmt.Errorf("loader: %s:%d: address %#x out of bounds", path, lineNo, addr)
			}
			addr++
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("loader: %w", err)
	}

	bytesLoaded.Add(count)
	logger.Info("hex file loaded", "path", path, "bytes", count)
	return nil
}
