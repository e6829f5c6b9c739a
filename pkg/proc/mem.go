package proc

import (
	"fmt"
	"io"
	"os"

	bufra "github.com/avvmoto/buf-readerat"
)

const memBufferSize = 2 * 0x1000

// Memory reads the address space of a process through /proc/<pid>/mem.
type Memory struct {
	pid int
	f   *os.File
	r   io.ReaderAt
}

func OpenMemory(pid int) (*Memory, error) {
	mempath := PidPath(pid, "mem")
	f, err := os.OpenFile(mempath, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", mempath, err)
	}
	return &Memory{
		pid: pid,
		f:   f,
		r:   bufra.NewBufReaderAt(f, memBufferSize),
	}, nil
}

func (m *Memory) Pid() int { return m.pid }

// ReadAt reads at the virtual address off.
func (m *Memory) ReadAt(p []byte, off int64) (int, error) {
	if m == nil || m.f == nil {
		return 0, os.ErrClosed
	}
	n, err := m.r.ReadAt(p, off)
	if err != nil && n < len(p) {
		// The buffered read may run into an unmapped page past the range
		// we asked for.
		return m.f.ReadAt(p, off)
	}
	return n, nil
}

// ReadRange copies [start, end) out of the process.
func (m *Memory) ReadRange(start, end uint64) ([]byte, error) {
	if start >= end {
		return nil, nil
	}
	buf := make([]byte, end-start)
	n, err := m.ReadAt(buf, int64(start))
	if n == len(buf) {
		return buf, nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return nil, fmt.Errorf("read pid %d memory 0x%x-0x%x: %w", m.pid, start, end, err)
}

func (m *Memory) Close() error {
	if m == nil || m.f == nil {
		return nil
	}
	err := m.f.Close()
	m.f = nil
	return err
}
