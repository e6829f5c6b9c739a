package buildid

import (
	"fmt"

	"github.com/vietanhduong/buildid/pkg/elf"
	"github.com/vietanhduong/buildid/pkg/note"
	"github.com/vietanhduong/buildid/pkg/proc"
)

type BuildType string

const (
	GNU BuildType = "GNU"
	GO  BuildType = "GO"
)

var ErrNoBuildId = fmt.Errorf("build id %w", note.ErrNotFound)

type BuildId struct {
	Id   string
	Type BuildType
	Raw  []byte
}

func GoBuildId(raw []byte) BuildId {
	return BuildId{string(raw), GO, raw}
}

// GnuBuildId renders raw as lowercase hex pairs in stream order.
func GnuBuildId(raw []byte) BuildId {
	return BuildId{fmt.Sprintf("%x", raw), GNU, raw}
}

func (id BuildId) GNU() bool { return id.Type == GNU }

func (id BuildId) String() string { return id.Id }

// DebugFile returns the conventional separate debug info path of the id.
func (id BuildId) DebugFile() string {
	if len(id.Id) < 3 || !id.GNU() {
		return ""
	}
	return fmt.Sprintf("/usr/lib/debug/.build-id/%s/%s.debug", id.Id[:2], id.Id[2:])
}

type Module struct {
	// Path is the pathname of the mapping, Name its base name.
	Path      string
	Name      string
	StartAddr uint64
	EndAddr   uint64
	Bias      uint64
	Regions   []elf.Region
	// Region is the note region the build id was read from.
	Region  *elf.Region
	BuildId *BuildId
	Err     error

	pid     int
	procmap *proc.Map
}

type Options struct {
	// Modules restricts the lookup to mappings with these base names or
	// paths. Empty means every executable mapping.
	Modules []string
	// Types lists the note types to accept, most preferred first.
	Types []note.Type
	// Packed scans the note regions without alignment padding.
	Packed   bool
	SkipVDSO bool
}

var defaultOptions = &Options{
	Types: []note.Type{note.NT_GNU_BUILD_ID, note.NT_GO_BUILD_ID},
}

func (o *Options) types() []note.Type {
	if o == nil || len(o.Types) == 0 {
		return defaultOptions.Types
	}
	return o.Types
}
