package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rvsim/rvsim/mem"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadHexFile(t *testing.T) {
	path := writeTemp(t, "prog.hex", "@100\n93 00 10 00\n@200\nde ad\n")
	m := mem.New(1 << 12)

	if err := LoadHexFile(m, path); err != nil {
		t.Fatalf("LoadHexFile: %v", err)
	}
	if v, _ := m.ReadWord(0x100); v != 0x00100093 {
		t.Errorf("word at 0x100 = %#08x, want 0x00100093", v)
	}
	if v, _ := m.ReadByte(0x200); v != 0xDE {
		t.Errorf("byte at 0x200 = %#02x", v)
	}
	if v, _ := m.ReadByte(0x201); v != 0xAD {
		t.Errorf("byte at 0x201 = %#02x", v)
	}
}

func TestLoadHexFile_Malformed(t *testing.T) {
	m := mem.New(1 << 12)
	for name, content := range map[string]string{
		"bad address": "@zz\n",
		"bad byte":    "@0\ngg\n",
		"long token":  "@0\n123\n",
	} {
		path := writeTemp(t, "bad.hex", content)
		if err := LoadHexFile(m, path); err == nil {
			t.Errorf("%s: LoadHexFile succeeded", name)
		}
	}
}

func TestLoadHexFile_OutOfBounds(t *testing.T) {
	path := writeTemp(t, "prog.hex", "@ff0\n01 02 03 04 05 06 07 08 09 0a 0b 0c 0d 0e 0f 10 11\n")
	m := mem.New(1 << 12) // 0x1000 bytes; the 17th byte lands at 0x1000
	if err := LoadHexFile(m, path); err == nil {
		t.Error("LoadHexFile past the end of memory succeeded")
	}
}

func TestLoadHexFile_Missing(t *testing.T) {
	m := mem.New(64)
	if err := LoadHexFile(m, filepath.Join(t.TempDir(), "nope.hex")); err == nil {
		t.Error("LoadHexFile of a missing file succeeded")
	}
}
