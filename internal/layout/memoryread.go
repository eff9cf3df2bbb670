package layout

import "fmt"

// MaxReadLength caps a single mem/view read; reads beyond it are tail-cut
// (the prefix is preserved) and flagged Truncated.
const MaxReadLength = 512

// MemoryRead is one decoded, possibly-truncated memory read.
type MemoryRead struct {
	Address       uint64
	Bytes         []byte
	WordSize      int
	Endianness    Endianness
	Requested     int64
	Delivered     int64
	Truncated     bool
	Symbol        string
	Type          string
	Arch          string
}

// NewMemoryRead caps requested at MaxReadLength and builds the decoded
// record from whatever bytes were actually delivered. A requested length
// of 0 yields an empty, non-error read.
func NewMemoryRead(symbol, typ, arch string, addr uint64, requested int64, delivered []byte, wordSize int, endian Endianness) MemoryRead {
	capped := requested
	truncated := false
	if capped > MaxReadLength {
		capped = MaxReadLength
		truncated = true
	}
	return MemoryRead{
		Address:    addr,
		Bytes:      delivered,
		WordSize:   wordSize,
		Endianness: endian,
		Requested:  requested,
		Delivered:  int64(len(delivered)),
		Truncated:  truncated,
		Symbol:     symbol,
		Type:       typ,
		Arch:       arch,
	}
}

// Dump builds the hex+ASCII rendering of the read's bytes.
func (m MemoryRead) Dump() Dump {
	return BuildDump(m.Bytes, m.WordSize, m.Endianness)
}

// Header renders the framing line shown before a mem/view body: symbol,
// type, address, size, word size, endianness, and arch.
func (m MemoryRead) Header() string {
	endianNote := "endian: unknown"
	switch m.Endianness {
	case LittleEndian:
		endianNote = "endian: little"
	case BigEndian:
		endianNote = "endian: big"
	}
	h := fmt.Sprintf("%s: type=%s addr=0x%x size=%d word=%d %s arch=%s",
		m.Symbol, m.Type, m.Address, m.Delivered, m.WordSize, endianNote, m.Arch)
	if m.Truncated {
		h += fmt.Sprintf(" (truncated from %d to %d bytes)", m.Requested, MaxReadLength)
	}
	return h
}
