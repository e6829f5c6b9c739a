package note

import "bytes"

// Record is a view of one note inside a Stream. It stays valid only while the
// stream's backing memory is left untouched.
type Record struct {
	Header
	// Addr is the address of the record header.
	Addr uint64

	name     []byte
	desc     []byte
	descAddr uint64
}

func (r *Record) Len() uint32 { return r.DescSize }

// Read copies the descriptor into dst and returns the number of bytes copied.
// dst should hold at least Len() bytes.
func (r *Record) Read(dst []byte) int { return copy(dst, r.desc) }

func (r *Record) Payload() []byte { return bytes.Clone(r.desc) }

func (r *Record) PayloadAddr() uint64 { return r.descAddr }

// Name returns the owner name without its NUL terminator.
func (r *Record) Name() string { return string(bytes.TrimRight(r.name, "\x00")) }
