package elf

import (
	"debug/elf"

	"github.com/vietanhduong/buildid/pkg/proc"
	"golang.org/x/sys/unix"
)

// Sections the linker emits for build ids. Their start and end are what the
// __note_gnu_build_id_start/__note_gnu_build_id_end symbols point at.
var BuildIdSections = []string{".note.gnu.build-id", ".note.go.buildid"}

// Region is a note area of a loaded module, in process addresses.
type Region struct {
	Name  string
	Start uint64
	End   uint64
	Align uint64
}

func (r Region) Size() uint64 {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// LoadBias returns the difference between run-time and link-time addresses
// for the module mapped by m.
func (f *File) LoadBias(m *proc.Map) (uint64, bool) {
	if f.Type == elf.ET_EXEC {
		return 0, true
	}
	pagemask := ^uint64(unix.Getpagesize() - 1)
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD || prog.Flags&elf.PF_X == 0 {
			continue
		}
		if m.FileOffset == prog.Off&pagemask {
			return m.StartAddr - prog.Vaddr&pagemask, true
		}
	}
	return 0, false
}

// NoteRegions returns the address ranges holding notes once the module is
// loaded with the given bias. The dedicated build id sections are returned
// when the file still has section headers, the PT_NOTE segments otherwise.
// A module without notes yields no region.
func (f *File) NoteRegions(bias uint64) []Region {
	var ret []Region
	for _, name := range BuildIdSections {
		s := f.FindSection(name)
		if s == nil || s.Type != elf.SHT_NOTE || s.Flags&elf.SHF_ALLOC == 0 {
			continue
		}
		ret = append(ret, Region{
			Name:  s.Name,
			Start: bias + s.Addr,
			End:   bias + s.Addr + s.Size,
			Align: noteAlign(s.Addralign),
		})
	}
	if len(ret) > 0 {
		return ret
	}
	for _, prog := range f.NoteSegments() {
		ret = append(ret, Region{
			Name:  prog.Type.String(),
			Start: bias + prog.Vaddr,
			End:   bias + prog.Vaddr + prog.Memsz,
			Align: noteAlign(prog.Align),
		})
	}
	return ret
}

// noteAlign maps a section or segment alignment onto the only two note
// alignments in use, 8 for 8-byte aligned notes and 4 for everything else.
func noteAlign(align uint64) uint64 {
	if align == 8 {
		return 8
	}
	return 4
}
