package elf

import (
	"bytes"
	"debug/elf"
	"fmt"
	"io"
	"os"
)

// File holds the geometry of an ELF object: its header, section headers and
// program headers. Section and segment contents are not kept.
type File struct {
	elf.FileHeader
	Sections []elf.SectionHeader
	Progs    []elf.ProgHeader

	fpath string
}

func Open(fpath string) (*File, error) {
	f, err := open(fpath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return newFile(fpath, f)
}

// NewImageFile parses an ELF image that has been copied out of memory, such
// as the vDSO.
func NewImageFile(name string, data []byte) (*File, error) {
	return newFile(name, bytes.NewReader(data))
}

func newFile(fpath string, r io.ReaderAt) (*File, error) {
	e, err := elf.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("elf new file %s: %w", fpath, err)
	}
	defer e.Close()

	this := &File{
		FileHeader: e.FileHeader,
		Progs:      make([]elf.ProgHeader, 0, len(e.Progs)),
		Sections:   make([]elf.SectionHeader, 0, len(e.Sections)),
		fpath:      fpath,
	}
	for i := range e.Progs {
		this.Progs = append(this.Progs, e.Progs[i].ProgHeader)
	}
	for i := range e.Sections {
		this.Sections = append(this.Sections, e.Sections[i].SectionHeader)
	}
	return this, nil
}

func (f *File) FilePath() string { return f.fpath }

func (f *File) FindSection(name string) *elf.SectionHeader {
	for i := range f.Sections {
		if s := &f.Sections[i]; s.Name == name {
			return s
		}
	}
	return nil
}

func (f *File) NoteSegments() []elf.ProgHeader {
	var ret []elf.ProgHeader
	for _, prog := range f.Progs {
		if prog.Type == elf.PT_NOTE {
			ret = append(ret, prog)
		}
	}
	return ret
}

func open(fpath string) (*os.File, error) {
	fd, err := os.OpenFile(fpath, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open elf file %s: %w", fpath, err)
	}
	return fd, nil
}
