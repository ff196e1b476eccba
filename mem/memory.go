// Package mem implements the hart's flat byte-addressable memory. The
// store is little-endian and sized at construction; every typed accessor
// bounds-checks and reports success with a boolean rather than an error,
// since out-of-bounds accesses become architectural access faults in the
// hart, not host-visible failures.
package mem

import "encoding/binary"

// Memory is a linear little-endian byte store. It records the address
// and size of the most recent store so the hart can detect tohost writes
// and emit trace records without re-deriving the effective address.
type Memory struct {
	data []byte

	lastWriteAddr uint64
	lastWriteSize int
}

// New creates a memory of the given size in bytes.
func New(size uint64) *Memory {
	return &Memory{data: make([]byte, size)}
}

// Size returns the memory size in bytes.
func (m *Memory) Size() uint64 { return uint64(len(m.data)) }

func (m *Memory) inBounds(addr uint64, n int) bool {
	return addr < uint64(len(m.data)) && uint64(len(m.data))-addr >= uint64(n)
}

// ReadByte reads the byte at addr. The second result is false if addr is
// out of bounds.
func (m *Memory) ReadByte(addr uint64) (uint8, bool) {
	if !m.inBounds(addr, 1) {
		return 0, false
	}
	return m.data[addr], true
}

// ReadHalf reads a little-endian 16-bit value at addr.
func (m *Memory) ReadHalf(addr uint64) (uint16, bool) {
	if !m.inBounds(addr, 2) {
		return 0, false
	}
	return binary.LittleEndian.Uint16(m.data[addr:]), true
}

// ReadWord reads a little-endian 32-bit value at addr.
func (m *Memory) ReadWord(addr uint64) (uint32, bool) {
	if !m.inBounds(addr, 4) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(m.data[addr:]), true
}

// ReadDouble reads a little-endian 64-bit value at addr.
func (m *Memory) ReadDouble(addr uint64) (uint64, bool) {
	if !m.inBounds(addr, 8) {
		return 0, false
	}
	return binary.LittleEndian.Uint64(m.data[addr:]), true
}

// WriteByte stores a byte at addr.
func (m *Memory) WriteByte(addr uint64, val uint8) bool {
	if !m.inBounds(addr, 1) {
		return false
	}
	m.data[addr] = val
	m.lastWriteAddr, m.lastWriteSize = addr, 1
	return true
}

// WriteHalf stores a little-endian 16-bit value at addr.
func (m *Memory) WriteHalf(addr uint64, val uint16) bool {
	if !m.inBounds(addr, 2) {
		return false
	}
	binary.LittleEndian.PutUint16(m.data[addr:], val)
	m.lastWriteAddr, m.lastWriteSize = addr, 2
	return true
}

// WriteWord stores a little-endian 32-bit value at addr.
func (m *Memory) WriteWord(addr uint64, val uint32) bool {
	if !m.inBounds(addr, 4) {
		return false
	}
	binary.LittleEndian.PutUint32(m.data[addr:], val)
	m.lastWriteAddr, m.lastWriteSize = addr, 4
	return true
}

// WriteDouble stores a little-endian 64-bit value at addr.
func (m *Memory) WriteDouble(addr uint64, val uint64) bool {
	if !m.inBounds(addr, 8) {
		return false
	}
	binary.LittleEndian.PutUint64(m.data[addr:], val)
	m.lastWriteAddr, m.lastWriteSize = addr, 8
	return true
}

// LastWrite returns the address and size of the most recent store, or
// size 0 if nothing has been stored yet.
func (m *Memory) LastWrite() (addr uint64, size int) {
	return m.lastWriteAddr, m.lastWriteSize
}

// ClearLastWrite resets the last-store record. The hart calls this at
// the top of each instruction so a trace record only reports a store
// made by the instruction it describes.
func (m *Memory) ClearLastWrite() {
	m.lastWriteSize = 0
}

// LoadSegment copies data into memory at base. Used by the loaders; the
// copy fails (false) if the segment does not fit.
func (m *Memory) LoadSegment(base uint64, data []byte) bool {
	if !m.inBounds(base, len(data)) {
		return false
	}
	copy(m.data[base:], data)
	return true
}

// Reset zeroes all of memory.
func (m *Memory) Reset() {
	clear(m.data)
	m.lastWriteSize = 0
}
