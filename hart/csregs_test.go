package hart

import (
	"testing"

	"github.com/rvsim/rvsim/isa"
)

func newCsrFile(t *testing.T) (*CsRegs[uint32], *uint64, *uint64) {
	t.Helper()
	var cycle, instret uint64
	return newCsRegs[uint32](7, false, &cycle, &instret), &cycle, &instret
}

func TestCsRegs_ReadWriteMasks(t *testing.T) {
	c, _, _ := newCsrFile(t)

	if !c.Write(isa.CsrMstatus, 0xFFFFFFFF, isa.PrivMachine) {
		t.Fatal("mstatus write failed")
	}
	got, ok := c.Read(isa.CsrMstatus, isa.PrivMachine)
	want := uint32(1<<isa.MstatusMIE | 1<<isa.MstatusMPIE | 3<<isa.MstatusMPPShift)
	if !ok || got != want {
		t.Errorf("mstatus = %#x, want %#x", got, want)
	}

	// mepc cannot hold an odd address.
	c.Write(isa.CsrMepc, 0x1235, isa.PrivMachine)
	if got, _ := c.Read(isa.CsrMepc, isa.PrivMachine); got != 0x1234 {
		t.Errorf("mepc = %#x, want low bit masked", got)
	}

	// mtvec bit 1 is reserved and unwritable.
	c.Write(isa.CsrMtvec, 0x103, isa.PrivMachine)
	if got, _ := c.Read(isa.CsrMtvec, isa.PrivMachine); got != 0x101 {
		t.Errorf("mtvec = %#x, want reserved mode bit clear", got)
	}
}

func TestCsRegs_Permissions(t *testing.T) {
	c, _, _ := newCsrFile(t)

	if _, ok := c.Read(isa.CsrMstatus, isa.PrivUser); ok {
		t.Error("user-mode read of mstatus succeeded")
	}
	if c.Write(isa.CsrMscratch, 1, isa.PrivUser) {
		t.Error("user-mode write of mscratch succeeded")
	}
	if c.Write(isa.CsrMisa, 0, isa.PrivMachine) {
		t.Error("write of read-only misa succeeded")
	}
	if _, ok := c.Read(isa.CsrCycle, isa.PrivUser); !ok {
		t.Error("user-mode read of cycle failed")
	}
	if _, ok := c.Read(0x7C0, isa.PrivMachine); ok {
		t.Error("read of undefined CSR succeeded")
	}
}

func TestCsRegs_CounterReadThrough(t *testing.T) {
	c, cycle, instret := newCsrFile(t)
	*cycle = 0x1_0000_0005
	*instret = 3

	if got, _ := c.Read(isa.CsrCycle, isa.PrivUser); got != 5 {
		t.Errorf("cycle = %d, want low word 5", got)
	}
	if got, _ := c.Read(isa.CsrCycleh, isa.PrivUser); got != 1 {
		t.Errorf("cycleh = %d, want 1", got)
	}
	if got, _ := c.Read(isa.CsrInstret, isa.PrivUser); got != 3 {
		t.Errorf("instret = %d, want 3", got)
	}

	// Writing mcycle updates the live counter's low half on RV32.
	c.Write(isa.CsrMcycle, 0x42, isa.PrivMachine)
	if *cycle != 0x1_0000_0042 {
		t.Errorf("cycle counter = %#x after mcycle write", *cycle)
	}
	c.Write(isa.CsrMcycleh, 2, isa.PrivMachine)
	if *cycle != 0x2_0000_0042 {
		t.Errorf("cycle counter = %#x after mcycleh write", *cycle)
	}
}

func TestCsRegs_Misa(t *testing.T) {
	c, _, _ := newCsrFile(t)
	v, ok := c.Read(isa.CsrMisa, isa.PrivMachine)
	if !ok {
		t.Fatal("misa read failed")
	}
	if v>>30 != 1 {
		t.Errorf("misa MXL = %d, want 1 (RV32)", v>>30)
	}
	for _, bit := range []uint{2, 8, 12} { // C, I, M
		if v>>bit&1 != 1 {
			t.Errorf("misa bit %d clear", bit)
		}
	}

	var cycle, instret uint64
	c64 := newCsRegs[uint64](0, true, &cycle, &instret)
	v64, _ := c64.Read(isa.CsrMisa, isa.PrivMachine)
	if v64>>62 != 2 {
		t.Errorf("misa MXL = %d, want 2 (RV64)", v64>>62)
	}
}

func TestCsRegs_Names(t *testing.T) {
	c, _, _ := newCsrFile(t)
	num, ok := c.Find("mepc")
	if !ok || num != isa.CsrMepc {
		t.Errorf("Find(mepc) = %#x, %v", num, ok)
	}
	name, ok := c.Name(isa.CsrMhartid)
	if !ok || name != "mhartid" {
		t.Errorf("Name(mhartid) = %q, %v", name, ok)
	}
	if _, ok := c.Find("unknowncsr"); ok {
		t.Error("Find resolved an unknown CSR")
	}
	if got, _ := c.Peek(isa.CsrMhartid); got != 7 {
		t.Errorf("mhartid = %d, want constructor hart id", got)
	}
}
