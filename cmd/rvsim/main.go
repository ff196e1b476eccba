// Command rvsim is a single-hart RISC-V instruction-set simulator for
// RV32IMC and RV64IMC programs.
//
// Usage:
//
//	rvsim [flags]
//
// Flags:
//
//	--hex           Hex program file to load
//	--elf           ELF program file to load
//	--xlen          Register width: 32 or 64 (default: 32)
//	--mem           Memory size in MiB (default: 256)
//	--startpc       Initial pc (default: ELF entry point)
//	--endpc         Stop address (default: ELF exit symbol)
//	--tohost        Tohost address (default: ELF tohost symbol)
//	--trace         Per-instruction trace file
//	--strict-align  Trap on misaligned data accesses
//	--selftest      Run the built-in self test first
//	--verbosity     Log level 0-4 (default: 2)
//	--log.file      Rotated log file instead of stderr
//	--version       Print version and exit
//
// SIGUSR2 requests a machine external interrupt; SIGINT and SIGTERM
// request clean termination at the next instruction boundary.
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/rvsim/rvsim/hart"
	"github.com/rvsim/rvsim/isa"
	"github.com/rvsim/rvsim/loader"
	"github.com/rvsim/rvsim/log"
	"github.com/rvsim/rvsim/metrics"
)

// Build-time version info, overridable with ldflags:
//
//	go build -ldflags "-X main.version=v0.2.0 -X main.commit=abc1234"
var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the actual entry point, returning an exit code. Accepts CLI
// arguments (without the program name) so it can be tested in
// isolation.
func run(args []string) int {
	cfg, exit, code := parseFlags(args)
	if exit {
		return code
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "rvsim: %v\n", err)
		return 1
	}

	// Route logs to a rotated file when requested.
	logDest := io.Writer(os.Stderr)
	if cfg.LogFile != "" {
		logDest = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSize,
			MaxBackups: 3,
		}
	}
	log.SetDefault(log.New(logDest, log.VerbosityToLevel(cfg.Verbosity)))

	logger := log.Default().Module("rvsim")
	logger.Info("starting", "version", version, "xlen", cfg.Xlen,
		"mem_bytes", cfg.MemSize, "hart", cfg.HartID)

	if cfg.Xlen == 64 {
		return drive(hart.New[uint64](uint32(cfg.HartID), hart.Config{
			MemorySize:  cfg.MemSize,
			StrictAlign: cfg.StrictAlign,
		}), cfg, logger)
	}
	return drive(hart.New[uint32](uint32(cfg.HartID), hart.Config{
		MemorySize:  cfg.MemSize,
		StrictAlign: cfg.StrictAlign,
	}), cfg, logger)
}

// drive loads the program, wires signals and runs the hart to
// completion. It is generic over the register width so both cores share
// one driver.
func drive[U isa.Word](h *hart.Hart[U], cfg Config, logger *log.Logger) int {
	if cfg.SelfTest {
		if !h.SelfTest() {
			logger.Error("self test failed")
			return 1
		}
		if cfg.HexFile == "" && cfg.ElfFile == "" {
			return 0
		}
	}

	switch {
	case cfg.HexFile != "":
		if err := loader.LoadHexFile(h.Memory(), cfg.HexFile); err != nil {
			logger.Error("load failed", "err", err)
			return 1
		}
	case cfg.ElfFile != "":
		info, err := loader.LoadElfFile(h.Memory(), cfg.ElfFile, h.Xlen() == 64)
		if err != nil {
			logger.Error("load failed", "err", err)
			return 1
		}
		h.PokePc(U(info.EntryPoint))
		h.SetStopAddress(U(info.ExitPoint))
		if info.HasToHost {
			h.SetToHostAddress(U(info.ToHost))
		}
	}

	// Explicit flags override whatever the loader found.
	if cfg.HasStartPc {
		h.PokePc(U(cfg.StartPc))
	}
	if cfg.HasEndPc {
		h.SetStopAddress(U(cfg.EndPc))
	}
	if cfg.HasToHost {
		h.SetToHostAddress(U(cfg.ToHost))
	}

	var trace io.Writer
	if cfg.TraceFile != "" {
		f, err := os.Create(cfg.TraceFile)
		if err != nil {
			logger.Error("cannot create trace file", "err", err)
			return 1
		}
		defer f.Close()
		trace = f
	}

	// SIGUSR2 becomes a machine external interrupt; SIGINT/SIGTERM
	// request clean termination at the next instruction boundary.
	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR2)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case sig := <-sigCh:
				if sig == syscall.SIGUSR2 {
					h.RequestInterrupt()
				} else {
					h.RequestTermination()
				}
			case <-done:
				return
			}
		}
	}()

	reason := h.Run(trace)

	for _, s := range metrics.DefaultRegistry.Snapshot() {
		logger.Info("metric", "name", s.Name, "value", s.Value)
	}

	if reason == hart.StopFatal {
		return 1
	}
	return 0
}
