package loader

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/rvsim/rvsim/mem"
)

// buildElf32 assembles a minimal ELF32 little-endian RISC-V executable
// with a single loadable segment at vaddr containing payload.
func buildElf32(t *testing.T, entry, vaddr uint32, payload []byte) string {
	t.Helper()
	var buf bytes.Buffer
	le := binary.LittleEndian

	ident := [16]byte{0x7F, 'E', 'L', 'F', 1 /* ELFCLASS32 */, 1 /* LSB */, 1}
	buf.Write(ident[:])
	put16 := func(v uint16) { _ = binary.Write(&buf, le, v) }
	put32 := func(v uint32) { _ = binary.Write(&buf, le, v) }

	put16(2)    // e_type: EXEC
	put16(0xF3) // e_machine: EM_RISCV
	put32(1)    // e_version
	put32(entry)
	put32(52) // e_phoff
	put32(0)  // e_shoff
	put32(0)  // e_flags
	put16(52) // e_ehsize
	put16(32) // e_phentsize
	put16(1)  // e_phnum
	put16(40) // e_shentsize
	put16(0)  // e_shnum
	put16(0)  // e_shstrndx

	// Program header: one PT_LOAD with the payload at file offset 84.
	put32(1) // p_type: PT_LOAD
	put32(84)
	put32(vaddr)
	put32(vaddr)
	put32(uint32(len(payload))) // p_filesz
	put32(uint32(len(payload))) // p_memsz
	put32(5)                    // p_flags: R+X
	put32(4)                    // p_align

	buf.Write(payload)

	path := filepath.Join(t.TempDir(), "prog.elf")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadElfFile(t *testing.T) {
	payload := []byte{0x93, 0x00, 0x10, 0x00} // addi x1, x0, 1
	path := buildElf32(t, 0x100, 0x100, payload)
	m := mem.New(1 << 12)

	info, err := LoadElfFile(m, path, false)
	if err != nil {
		t.Fatalf("LoadElfFile: %v", err)
	}
	if info.EntryPoint != 0x100 {
		t.Errorf("entry = %#x, want 0x100", info.EntryPoint)
	}
	if info.HasToHost {
		t.Error("tohost reported without a symbol table")
	}
	if info.ExitPoint != 0x104 {
		t.Errorf("exit = %#x, want end of segment 0x104", info.ExitPoint)
	}
	if v, _ := m.ReadWord(0x100); v != 0x00100093 {
		t.Errorf("loaded word = %#08x, want 0x00100093", v)
	}
}

func TestLoadElfFile_WrongClass(t *testing.T) {
	path := buildElf32(t, 0x100, 0x100, []byte{0x13, 0, 0, 0})
	m := mem.New(1 << 12)
	if _, err := LoadElfFile(m, path, true); err == nil {
		t.Error("64-bit load of a 32-bit ELF succeeded")
	}
}

func TestLoadElfFile_SegmentTooLarge(t *testing.T) {
	path := buildElf32(t, 0x100, 0x100, []byte{1, 2, 3, 4})
	m := mem.New(16) // segment at 0x100 cannot fit
	if _, err := LoadElfFile(m, path, false); err == nil {
		t.Error("load into too-small memory succeeded")
	}
}

func TestLoadElfFile_NotElf(t *testing.T) {
	path := writeTemp(t, "garbage.bin", "this is not an elf")
	m := mem.New(64)
	if _, err := LoadElfFile(m, path, false); err == nil {
		t.Error("load of a non-ELF file succeeded")
	}
}
