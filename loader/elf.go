// elf.go loads RISC-V ELF executables: loadable segments only, with the
// entry point and the conventional tohost/_finish symbols reported back
// to the front end for run control.
package loader

import (
	"debug/elf"
	"encoding/hex"
	"fmt"
	"os"

	"golang.org/x/crypto/sha3"

	"github.com/rvsim/rvsim/log"
	"github.com/rvsim/rvsim/mem"
	"github.com/rvsim/rvsim/metrics"
)

// ElfInfo reports what an ELF load found.
type ElfInfo struct {
	EntryPoint uint64
	// ExitPoint is the address of the _finish (or finish) symbol when
	// present, otherwise the end of the highest loaded segment. Front
	// ends use it as the default stop address.
	ExitPoint uint64
	ToHost    uint64
	HasToHost bool
}

// LoadElfFile copies the loadable segments of a RISC-V ELF executable
// into memory. rv64 selects the expected ELF class: ELFCLASS32 for
// 32-bit harts, ELFCLASS64 for 64-bit.
func LoadElfFile(m *mem.Memory, path string, rv64 bool) (ElfInfo, error) {
	var info ElfInfo

	raw, err := os.ReadFile(path)
	if err != nil {
		return info, fmt.Errorf("loader: %w", err)
	}

	f, err := elf.Open(path)
	if err != nil {
		return info, fmt.Errorf("loader: %s: %w", path, err)
	}
	defer f.Close()

	wantClass := elf.ELFCLASS32
	if rv64 {
		wantClass = elf.ELFCLASS64
	}
	switch {
	case f.Class != wantClass:
		return info, fmt.Errorf("loader: %s: ELF class %s, want %s", path, f.Class, wantClass)
	case f.Data != elf.ELFDATA2LSB:
		return info, fmt.Errorf("loader: %s: not little-endian", path)
	case f.Machine != elf.EM_RISCV:
		return info, fmt.Errorf("loader: %s: machine %s, want EM_RISCV", path, f.Machine)
	}

	logger := log.Default().Module("loader")
	bytesLoaded := metrics.DefaultRegistry.Counter("loader/bytes_loaded")

	var loaded, maxEnd uint64
	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD || p.Memsz == 0 {
			continue
		}
		data := make([]byte, p.Filesz)
		if p.Filesz > 0 {
			if _, err := p.ReadAt(data, 0); err != nil {
				return info, fmt.Errorf("loader: %s: segment at %#x: %w", path, p.Vaddr, err)
			}
		}
		if !m.LoadSegment(p.Vaddr, data) {
			return info, fmt.Errorf("loader: %s: segment at %#x does not fit in %d bytes of memory",
				path, p.Vaddr, m.Size())
		}
		// Memsz beyond Filesz is BSS; memory is already zeroed.
		loaded += uint64(len(data))
		if end := p.Vaddr + p.Memsz; end > maxEnd {
			maxEnd = end
		}
	}

	info.EntryPoint = f.Entry
	info.ExitPoint = maxEnd
	if syms, err := f.Symbols(); err == nil {
		for _, s := range syms {
			switch s.Name {
			case "tohost":
				info.ToHost = s.Value
				info.HasToHost = true
			case "_finish", "finish":
				info.ExitPoint = s.Value
			}
		}
	}

	xlen := uint(32)
	if rv64 {
		xlen = 64
	}
	digest := sha3.Sum256(raw)
	bytesLoaded.Add(loaded)
	logger.Info("elf file loaded", "path", path, "bytes", loaded,
		log.Addr("entry", xlen, info.EntryPoint),
		"tohost", info.HasToHost,
		"sha3", hex.EncodeToString(digest[:8]))
	return info, nil
}
