package note

import (
	"fmt"
	"io"
)

// MaxStreamSize bounds how much memory ReadStream copies for one region.
const MaxStreamSize = 16 << 20

// Walk calls fn for every record of s in order until fn returns false. Every
// header and every declared name/descriptor length is checked against the end
// of the stream before it is used.
func Walk(s Stream, opts *Options, fn func(*Record) bool) error {
	if s.Empty() {
		return ErrEmptyStream
	}
	if err := opts.validate(); err != nil {
		return err
	}
	order := opts.byteOrder()
	data := s.Data
	end := uint64(len(data))

	var off uint64
	for off < end {
		if end-off < HeaderSize {
			if zeroed(data[off:]) {
				// section padding
				break
			}
			return fmt.Errorf("%w: truncated header at 0x%x (%d of %d bytes)",
				ErrMalformedStream, s.Addr+off, end-off, HeaderSize)
		}
		hdr := Header{
			NameSize: order.Uint32(data[off:]),
			DescSize: order.Uint32(data[off+4:]),
			Type:     Type(order.Uint32(data[off+8:])),
		}

		nameOff := off + HeaderSize
		nameEnd := nameOff + uint64(hdr.NameSize)
		descOff := nameOff + opts.pad(uint64(hdr.NameSize))
		if hdr.DescSize == 0 && descOff > end {
			// padding of an empty trailing descriptor
			descOff = end
		}
		descEnd := descOff + uint64(hdr.DescSize)
		if nameEnd > end || descEnd > end {
			return fmt.Errorf("%w: note at 0x%x declares namesz=%d descsz=%d past end 0x%x",
				ErrMalformedStream, s.Addr+off, hdr.NameSize, hdr.DescSize, s.End())
		}

		rec := &Record{
			Header:   hdr,
			Addr:     s.Addr + off,
			name:     data[nameOff:nameEnd:nameEnd],
			desc:     data[descOff:descEnd:descEnd],
			descAddr: s.Addr + descOff,
		}
		if !fn(rec) {
			return nil
		}

		next := descOff + opts.pad(uint64(hdr.DescSize))
		if next > end {
			next = end
		}
		off = next
	}
	return nil
}

// Find returns the first record of s whose type is tag.
func Find(s Stream, tag Type, opts *Options) (*Record, error) {
	var found *Record
	err := Walk(s, opts, func(r *Record) bool {
		if r.Type != tag {
			return true
		}
		found = r
		return false
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

// ReadStream copies the region [start, end) out of r. A region with
// start >= end yields an empty stream and r is never read.
func ReadStream(r io.ReaderAt, start, end uint64) (Stream, error) {
	if start >= end {
		return Stream{Addr: start}, nil
	}
	size := end - start
	if size > MaxStreamSize {
		return Stream{}, fmt.Errorf("note region 0x%x-0x%x too large (%d bytes)", start, end, size)
	}
	buf := make([]byte, size)
	n, err := r.ReadAt(buf, int64(start))
	if n < len(buf) {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return Stream{}, fmt.Errorf("read note region 0x%x-0x%x: %w", start, end, err)
	}
	return Stream{Addr: start, Data: buf}, nil
}

// FindRange reads [start, end) from r and returns the first record whose
// type is tag.
func FindRange(r io.ReaderAt, start, end uint64, tag Type, opts *Options) (*Record, error) {
	s, err := ReadStream(r, start, end)
	if err != nil {
		return nil, err
	}
	return Find(s, tag, opts)
}

func zeroed(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
