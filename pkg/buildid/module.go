package buildid

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/vietanhduong/buildid/pkg/elf"
	"github.com/vietanhduong/buildid/pkg/note"
	"github.com/vietanhduong/buildid/pkg/proc"
)

func newModule(pid int, procmap *proc.Map) *Module {
	return &Module{
		Path:      procmap.Pathname,
		Name:      filepath.Base(procmap.Pathname),
		StartAddr: procmap.StartAddr,
		EndAddr:   procmap.EndAddr,
		pid:       pid,
		procmap:   procmap,
	}
}

func (m *Module) load(mem *proc.Memory, opts *Options) {
	mf, err := m.openElf(mem)
	if err != nil {
		m.Err = err
		return
	}

	var ok bool
	if m.Bias, ok = mf.LoadBias(m.procmap); !ok {
		m.Err = fmt.Errorf("unable to determine load bias of %s", m.Path)
		return
	}
	m.Regions = mf.NoteRegions(m.Bias)
	glog.V(3).Infof("Module %s: bias 0x%x, %d note regions", m.Path, m.Bias, len(m.Regions))
	if len(m.Regions) == 0 {
		m.Err = note.ErrEmptyStream
		return
	}

	for i := range m.Regions {
		region := &m.Regions[i]
		s, err := note.ReadStream(mem, region.Start, region.End)
		if err != nil {
			glog.Warningf("Failed to read %s of %s: %v", region.Name, m.Path, err)
			m.Err = err
			continue
		}
		align := region.Align
		if opts.Packed {
			align = 0
		}
		id, err := Scan(s, mf.ByteOrder, align, opts.types()...)
		if errors.Is(err, note.ErrNotFound) {
			continue
		}
		if err != nil {
			glog.Warningf("Failed to scan %s of %s: %v", region.Name, m.Path, err)
			m.Err = err
			continue
		}
		m.BuildId, m.Region, m.Err = id, region, nil
		return
	}
	if m.Err == nil {
		m.Err = ErrNoBuildId
	}
}

func (m *Module) openElf(mem *proc.Memory) (*elf.File, error) {
	if m.procmap.IsVDSO() {
		return openVDSO(mem, m.procmap)
	}
	// Prefer the path that still is the mapped file (same device and inode).
	// A replaced file is only used when nothing else can be opened.
	want := m.procmap.File()
	var stale *elf.File
	var lastErr error
	for _, path := range m.candidatePaths() {
		same := want.SameFile(path)
		if !same && stale != nil {
			continue
		}
		mf, err := elf.Open(path)
		if err != nil {
			glog.V(5).Infof("Failed to open %s: %v", path, err)
			lastErr = err
			continue
		}
		if same {
			glog.V(3).Infof("Module %s: opened %s", m.Path, mf.FilePath())
			return mf, nil
		}
		glog.V(3).Infof("Module %s: %s is not the mapped file (dev %d inode %d)",
			m.Path, mf.FilePath(), want.Dev, want.Inode)
		stale = mf
	}
	if stale != nil {
		return stale, nil
	}
	return nil, fmt.Errorf("open module %s: %w", m.Path, lastErr)
}

// candidatePaths lists where the mapped file can be opened from this
// process: through the target's root, then through map_files which still
// works for deleted files.
func (m *Module) candidatePaths() []string {
	return []string{
		proc.PidPath(m.pid, "root", m.Path),
		proc.PidPath(m.pid, "map_files", fmt.Sprintf("%x-%x", m.StartAddr, m.EndAddr)),
	}
}

// DebugFile returns the separate debug file of the module, looked up by build
// id inside the target's root.
func (m *Module) DebugFile() string {
	if m.BuildId == nil {
		return ""
	}
	debugfile := m.BuildId.DebugFile()
	if debugfile == "" {
		return ""
	}
	if _, err := os.Stat(proc.PidPath(m.pid, "root", debugfile)); err != nil {
		return ""
	}
	return debugfile
}
