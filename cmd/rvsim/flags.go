package main

import (
	"flag"
	"fmt"
	"strconv"
)

// Config holds the resolved command-line configuration.
type Config struct {
	HexFile string
	ElfFile string

	Xlen    int
	MemSize uint64
	HartID  uint

	StartPc    uint64
	HasStartPc bool
	EndPc      uint64
	HasEndPc   bool
	ToHost     uint64
	HasToHost  bool

	StrictAlign bool
	SelfTest    bool

	TraceFile string
	Verbosity int

	LogFile    string
	LogMaxSize int // megabytes per rotated log file
}

// hexFlag parses a hexadecimal (or 0x-prefixed) address flag and
// remembers whether it was set.
type hexFlag struct {
	value uint64
	set   bool
}

func (f *hexFlag) String() string {
	if !f.set {
		return ""
	}
	return fmt.Sprintf("%#x", f.value)
}

func (f *hexFlag) Set(s string) error {
	// Addresses are hexadecimal by convention; a 0x prefix is accepted
	// too.
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		v, err = strconv.ParseUint(s, 0, 64)
	}
	if err != nil {
		return fmt.Errorf("bad address %q", s)
	}
	f.value, f.set = v, true
	return nil
}

// parseFlags parses args into a Config. The second result is true if
// the process should exit immediately with the returned code (help or
// usage error).
func parseFlags(args []string) (Config, bool, int) {
	var cfg Config
	fs := flag.NewFlagSet("rvsim", flag.ContinueOnError)

	fs.StringVar(&cfg.HexFile, "hex", "", "hex program file to load")
	fs.StringVar(&cfg.ElfFile, "elf", "", "ELF program file to load")
	fs.IntVar(&cfg.Xlen, "xlen", 32, "register width: 32 or 64")
	memMiB := fs.Uint64("mem", 256, "memory size in MiB")
	fs.UintVar(&cfg.HartID, "hartid", 0, "hart id reported by mhartid")

	var startPc, endPc, toHost hexFlag
	fs.Var(&startPc, "startpc", "initial program counter (overrides the ELF entry)")
	fs.Var(&endPc, "endpc", "stop address (overrides the ELF exit symbol)")
	fs.Var(&toHost, "tohost", "tohost address (overrides the ELF tohost symbol)")

	fs.BoolVar(&cfg.StrictAlign, "strict-align", false, "trap on misaligned data accesses")
	fs.BoolVar(&cfg.SelfTest, "selftest", false, "run the built-in self test before the program")

	fs.StringVar(&cfg.TraceFile, "trace", "", "write a per-instruction trace to this file")
	fs.IntVar(&cfg.Verbosity, "verbosity", 2, "log level 0-4")

	fs.StringVar(&cfg.LogFile, "log.file", "", "write logs to this file with rotation instead of stderr")
	fs.IntVar(&cfg.LogMaxSize, "log.maxsize", 100, "maximum size in MiB of a log file before rotation")

	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return cfg, true, 2
	}
	if *showVersion {
		fmt.Printf("rvsim %s (%s)\n", version, commit)
		return cfg, true, 0
	}

	cfg.MemSize = *memMiB << 20
	cfg.StartPc, cfg.HasStartPc = startPc.value, startPc.set
	cfg.EndPc, cfg.HasEndPc = endPc.value, endPc.set
	cfg.ToHost, cfg.HasToHost = toHost.value, toHost.set
	return cfg, false, 0
}

// Validate rejects configurations the simulator cannot run.
func (c *Config) Validate() error {
	if c.Xlen != 32 && c.Xlen != 64 {
		return fmt.Errorf("xlen must be 32 or 64, got %d", c.Xlen)
	}
	if c.MemSize == 0 {
		return fmt.Errorf("memory size must be non-zero")
	}
	if c.HexFile != "" && c.ElfFile != "" {
		return fmt.Errorf("only one of --hex and --elf may be given")
	}
	if c.HexFile == "" && c.ElfFile == "" && !c.SelfTest {
		return fmt.Errorf("no program: give --hex or --elf (or --selftest)")
	}
	if c.Xlen == 32 && (c.HasStartPc && c.StartPc > 1<<32-1 ||
		c.HasEndPc && c.EndPc > 1<<32-1 ||
		c.HasToHost && c.ToHost > 1<<32-1) {
		return fmt.Errorf("address does not fit in 32 bits")
	}
	return nil
}
