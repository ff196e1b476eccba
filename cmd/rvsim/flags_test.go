package main

import "testing"

func TestParseFlags(t *testing.T) {
	cfg, exit, _ := parseFlags([]string{
		"--elf", "prog.elf", "--xlen", "64", "--mem", "64",
		"--startpc", "0x1000", "--tohost", "0x80001000",
		"--trace", "out.trace", "--verbosity", "3",
	})
	if exit {
		t.Fatal("parseFlags requested exit")
	}
	if cfg.ElfFile != "prog.elf" || cfg.Xlen != 64 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.MemSize != 64<<20 {
		t.Errorf("MemSize = %d, want 64 MiB", cfg.MemSize)
	}
	if !cfg.HasStartPc || cfg.StartPc != 0x1000 {
		t.Errorf("StartPc = %#x, set=%v", cfg.StartPc, cfg.HasStartPc)
	}
	if !cfg.HasToHost || cfg.ToHost != 0x80001000 {
		t.Errorf("ToHost = %#x, set=%v", cfg.ToHost, cfg.HasToHost)
	}
	if cfg.HasEndPc {
		t.Error("EndPc reported set without the flag")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestParseFlags_BareHexAddress(t *testing.T) {
	cfg, exit, _ := parseFlags([]string{"--hex", "p.hex", "--endpc", "80000000"})
	if exit {
		t.Fatal("parseFlags requested exit")
	}
	if !cfg.HasEndPc || cfg.EndPc != 0x80000000 {
		t.Errorf("EndPc = %#x, want bare hex accepted", cfg.EndPc)
	}
}

func TestValidate(t *testing.T) {
	bad := []Config{
		{Xlen: 16, MemSize: 1, HexFile: "p"},
		{Xlen: 32, MemSize: 0, HexFile: "p"},
		{Xlen: 32, MemSize: 1, HexFile: "a", ElfFile: "b"},
		{Xlen: 32, MemSize: 1},
		{Xlen: 32, MemSize: 1, HexFile: "p", HasStartPc: true, StartPc: 1 << 33},
	}
	for i, cfg := range bad {
		if err := cfg.Validate(); err == nil {
			t.Errorf("case %d: Validate accepted %+v", i, cfg)
		}
	}
	good := Config{Xlen: 32, MemSize: 1 << 20, SelfTest: true}
	if err := good.Validate(); err != nil {
		t.Errorf("Validate rejected self-test-only config: %v", err)
	}
}

func TestParseFlags_Version(t *testing.T) {
	_, exit, code := parseFlags([]string{"--version"})
	if !exit || code != 0 {
		t.Errorf("version: exit=%v code=%d", exit, code)
	}
	_, exit, code = parseFlags([]string{"--no-such-flag"})
	if !exit || code == 0 {
		t.Errorf("bad flag: exit=%v code=%d", exit, code)
	}
}
