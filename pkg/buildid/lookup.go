package buildid

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/vietanhduong/buildid/pkg/proc"
	"golang.org/x/exp/slices"
	"golang.org/x/sys/unix"
)

// Lookup reads the build id of every loaded module of pid. Modules whose id
// cannot be read are returned with Err set.
func Lookup(pid int, opts *Options) ([]*Module, error) {
	if opts == nil {
		opts = defaultOptions
	}
	maps, err := proc.ParseProcMap(pid)
	if err != nil {
		return nil, fmt.Errorf("parse proc map pid %d: %w", pid, err)
	}
	mem, err := proc.OpenMemory(pid)
	if err != nil {
		return nil, fmt.Errorf("open memory pid %d: %w", pid, err)
	}
	defer mem.Close()

	maps = lo.UniqBy(maps, func(m *proc.Map) string { return m.Pathname })
	maps = lo.Filter(maps, func(m *proc.Map, _ int) bool { return opts.match(m) })

	return lo.Map(maps, func(m *proc.Map, _ int) *Module {
		mod := newModule(pid, m)
		mod.load(mem, opts)
		return mod
	}), nil
}

// Executable returns the main executable module of pid.
func Executable(pid int, opts *Options) (*Module, error) {
	exe, err := ExecutablePath(pid)
	if err != nil {
		return nil, err
	}
	o := Options{Modules: []string{exe}}
	if opts != nil {
		o.Types, o.Packed = opts.Types, opts.Packed
	}
	o.SkipVDSO = true

	mods, err := Lookup(pid, &o)
	if err != nil {
		return nil, err
	}
	if len(mods) == 0 {
		return nil, fmt.Errorf("no executable mapping of %s in pid %d", exe, pid)
	}
	return mods[0], nil
}

// ExecutablePath returns the path of the main executable of pid as it
// appears in its memory map.
func ExecutablePath(pid int) (string, error) {
	exe, err := os.Readlink(proc.PidPath(pid, "exe"))
	if err != nil {
		return "", fmt.Errorf("read exe link of pid %d: %w", pid, err)
	}
	return exe, nil
}

// Self returns the main executable module of the calling process.
func Self(opts *Options) (*Module, error) { return Executable(unix.Getpid(), opts) }

func (o *Options) match(m *proc.Map) bool {
	if m.IsVDSO() && o.SkipVDSO {
		return false
	}
	if len(o.Modules) == 0 {
		return true
	}
	return slices.Contains(o.Modules, m.Pathname) ||
		slices.Contains(o.Modules, filepath.Base(m.Pathname))
}
