package note

import (
	"encoding/binary"
	"errors"
	"fmt"
)

type Type uint32

//nolint:st1003
const (
	NT_GNU_BUILD_ID Type = 3
	NT_GO_BUILD_ID  Type = 4
)

// HeaderSize is the size of the {namesz, descsz, type} header. The three words
// are 32-bit for both ELF classes.
const HeaderSize = 12

var (
	ErrNotFound = errors.New("note not found")
	// ErrEmptyStream reports a region with no records at all. It matches
	// ErrNotFound under errors.Is.
	ErrEmptyStream     = &emptyStreamError{}
	ErrMalformedStream = errors.New("malformed note stream")
)

type emptyStreamError struct{}

func (*emptyStreamError) Error() string        { return "empty note stream" }
func (*emptyStreamError) Is(target error) bool { return target == ErrNotFound }

type Header struct {
	NameSize uint32
	DescSize uint32
	Type     Type
}

// Stream is a borrowed view of a packed note region [Addr, Addr+len(Data)).
type Stream struct {
	Addr uint64
	Data []byte
}

func (s Stream) End() uint64 { return s.Addr + uint64(len(s.Data)) }

func (s Stream) Empty() bool { return len(s.Data) == 0 }

type Options struct {
	// ByteOrder of the header words. Defaults to the host byte order.
	ByteOrder binary.ByteOrder
	// Align pads the name and descriptor fields to a multiple of Align.
	// Zero means the fields are packed back to back. Only powers of two up
	// to MaxAlign are accepted.
	Align uint64
}

const MaxAlign = 8

var defaultOptions = &Options{ByteOrder: binary.NativeEndian}

func (o *Options) byteOrder() binary.ByteOrder {
	if o == nil || o.ByteOrder == nil {
		return defaultOptions.ByteOrder
	}
	return o.ByteOrder
}

func (o *Options) validate() error {
	if o == nil || o.Align <= 1 {
		return nil
	}
	if o.Align > MaxAlign || o.Align&(o.Align-1) != 0 {
		return fmt.Errorf("%w: unsupported note alignment %d", ErrMalformedStream, o.Align)
	}
	return nil
}

func (o *Options) pad(n uint64) uint64 {
	if o == nil || o.Align <= 1 {
		return n
	}
	return (n + o.Align - 1) / o.Align * o.Align
}
