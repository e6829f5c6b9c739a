package proc

import (
	"fmt"

	"golang.org/x/sys/unix"
)

type Map struct {
	Pathname   string
	StartAddr  uint64
	EndAddr    uint64
	Perms      string
	FileOffset uint64
	DevMajor   uint32
	DevMinor   uint32
	Inode      uint64
}

func (m *Map) String() string {
	if m == nil {
		return ""
	}

	return fmt.Sprintf("%s 0x%016x-0x%016x %s 0x%016x %x:%x %d",
		m.Pathname,
		m.StartAddr,
		m.EndAddr,
		m.Perms,
		m.FileOffset,
		m.DevMajor,
		m.DevMinor,
		m.Inode)
}

func (m *Map) Size() uint64 { return m.EndAddr - m.StartAddr }

func (m *Map) Contains(addr uint64) bool { return addr >= m.StartAddr && addr < m.EndAddr }

func (m *Map) IsVDSO() bool { return m.Pathname == "[vdso]" }

type File struct {
	Dev   uint64
	Inode uint64
	Path  string
}

func (m *Map) File() File {
	return File{
		Inode: m.Inode,
		Path:  m.Pathname,
		Dev:   unix.Mkdev(m.DevMajor, m.DevMinor),
	}
}

// SameFile reports whether path resolves to the file of the mapping.
func (f File) SameFile(path string) bool {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return false
	}
	return st.Ino == f.Inode && uint64(st.Dev) == f.Dev
}
