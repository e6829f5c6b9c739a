package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/golang/glog"
	"github.com/samber/lo"
	"github.com/vietanhduong/buildid/pkg/buildid"
	"github.com/vietanhduong/buildid/pkg/note"
	"golang.org/x/sys/unix"
)

type moduleList []string

func (l *moduleList) String() string { return strings.Join(*l, ",") }

func (l *moduleList) Set(v string) error {
	*l = append(*l, lo.Filter(strings.Split(v, ","), func(s string, _ int) bool { return s != "" })...)
	return nil
}

func main() {
	var pid int
	var all, goNote, packed bool
	var modules moduleList
	flag.IntVar(&pid, "pid", -1, "Target process id. Defaults to this process.")
	flag.BoolVar(&all, "all", false, "Print every loaded module, not only the main executable.")
	flag.Var(&modules, "module", "Only print modules with this base name or path (repeatable, comma separated).")
	flag.BoolVar(&goNote, "go", true, "Fall back to the Go build id note when there is no GNU one.")
	flag.BoolVar(&packed, "packed", false, "Scan notes without alignment padding.")
	flag.Parse()
	defer glog.Flush()

	if pid == -1 {
		pid = unix.Getpid()
	}

	opts := &buildid.Options{
		Modules: modules,
		Types:   []note.Type{note.NT_GNU_BUILD_ID},
		Packed:  packed,
	}
	if goNote {
		opts.Types = append(opts.Types, note.NT_GO_BUILD_ID)
	}

	exe, err := buildid.ExecutablePath(pid)
	if err != nil {
		glog.Errorf("Failed to find executable of PID %d: %v", pid, err)
		os.Exit(1)
	}

	var mods []*buildid.Module
	if all || len(modules) > 0 {
		if mods, err = buildid.Lookup(pid, opts); err != nil {
			glog.Errorf("Failed to look up modules of PID %d: %v", pid, err)
			os.Exit(1)
		}
	} else {
		mod, err := buildid.Executable(pid, opts)
		if err != nil {
			glog.Errorf("Failed to look up executable of PID %d: %v", pid, err)
			os.Exit(1)
		}
		mods = []*buildid.Module{mod}
	}

	for _, m := range mods {
		printModule(m)
	}
	if !found(mods, exe, len(modules) > 0) {
		glog.Errorf("No build id found for %s in PID %d", exe, pid)
		os.Exit(1)
	}
}

// found reports whether the main executable has a build id. When the output
// is restricted to selected modules, any of them having one is enough.
func found(mods []*buildid.Module, exe string, selected bool) bool {
	if selected {
		return lo.SomeBy(mods, func(m *buildid.Module) bool { return m.BuildId != nil })
	}
	m, ok := lo.Find(mods, func(m *buildid.Module) bool { return m.Path == exe })
	return ok && m.BuildId != nil
}

func printModule(m *buildid.Module) {
	fmt.Printf("%s:\n", m.Path)
	fmt.Printf("    mapping                   0x%x-0x%x\n", m.StartAddr, m.EndAddr)
	fmt.Printf("    load bias                 0x%x\n", m.Bias)
	for _, r := range m.Regions {
		fmt.Printf("    note section start        0x%x (%s)\n", r.Start, r.Name)
		fmt.Printf("    note section end          0x%x\n", r.End)
	}
	if m.BuildId == nil {
		fmt.Printf("Build ID: <none> (%v)\n", m.Err)
		return
	}
	fmt.Printf("Build ID: %s\n", m.BuildId.Id)
	if debugfile := m.DebugFile(); debugfile != "" {
		fmt.Printf("Debug file: %s\n", debugfile)
	}
}
