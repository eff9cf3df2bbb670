package layout

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Endianness of the inferior, as established once by the session after the
// first stop.
type Endianness int

const (
	LittleEndian Endianness = iota
	BigEndian
	UnknownEndian
)

func (e Endianness) String() string {
	switch e {
	case LittleEndian:
		return "little"
	case BigEndian:
		return "big"
	default:
		return "unknown"
	}
}

// Word is one word-size-aligned (or final partial) chunk of a memory dump.
type Word struct {
	Offset int64
	Bytes  []byte
}

// Dump is the hex+ASCII rendering of a byte range, grouped by word size.
type Dump struct {
	WordSize   int
	Endianness Endianness
	Words      []Word
}

// BuildDump groups raw bytes into WordSize-sized words for hex+ASCII
// rendering. The last word may be shorter than WordSize.
func BuildDump(data []byte, wordSize int, endian Endianness) Dump {
	if wordSize <= 0 {
		wordSize = 1
	}
	d := Dump{WordSize: wordSize, Endianness: endian}
	for off := 0; off < len(data); off += wordSize {
		end := off + wordSize
		if end > len(data) {
			end = len(data)
		}
		d.Words = append(d.Words, Word{Offset: int64(off), Bytes: data[off:end]})
	}
	return d
}

// HexASCIILines renders the dump as "OFFSET  hex hex hex  ascii" lines,
// printable bytes (0x20-0x7E) rendered literally, others as '.'.
func (d Dump) HexASCIILines() []string {
	lines := make([]string, 0, len(d.Words))
	for _, w := range d.Words {
		var hexBuf strings.Builder
		var asciiBuf strings.Builder
		for i, b := range w.Bytes {
			if i > 0 {
				hexBuf.WriteByte(' ')
			}
			fmt.Fprintf(&hexBuf, "%02x", b)
			if b >= 0x20 && b <= 0x7e {
				asciiBuf.WriteByte(b)
			} else {
				asciiBuf.WriteByte('.')
			}
		}
		lines = append(lines, fmt.Sprintf("%04x  %-*s  %s", w.Offset, d.WordSize*3-1, hexBuf.String(), asciiBuf.String()))
	}
	return lines
}

// DecodeInt decodes one word as an unsigned integer according to the
// dump's endianness. It returns ok=false when endianness is unknown or the
// word is not a supported integer width (1, 2, 4, or 8 bytes); callers
// suppress the decoded-integer column rather than guessing.
func (w Word) DecodeInt(endian Endianness) (value uint64, ok bool) {
	switch len(w.Bytes) {
	case 1:
		if endian != LittleEndian && endian != BigEndian {
			return 0, false
		}
		return uint64(w.Bytes[0]), true
	case 2, 4, 8:
		// fall through to the switch below
	default:
		return 0, false
	}
	var order binary.ByteOrder
	switch endian {
	case LittleEndian:
		order = binary.LittleEndian
	case BigEndian:
		order = binary.BigEndian
	default:
		return 0, false
	}
	switch len(w.Bytes) {
	case 2:
		return uint64(order.Uint16(w.Bytes)), true
	case 4:
		return uint64(order.Uint32(w.Bytes)), true
	case 8:
		return order.Uint64(w.Bytes), true
	}
	return 0, false
}
