package buildid

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/vietanhduong/buildid/pkg/elf"
	"github.com/vietanhduong/buildid/pkg/proc"
)

// The vDSO has no backing file; its image is copied out of the process.
func openVDSO(mem *proc.Memory, procmap *proc.Map) (*elf.File, error) {
	image, err := mem.ReadRange(procmap.StartAddr, procmap.EndAddr)
	if err != nil {
		return nil, fmt.Errorf("read vdso image: %w", err)
	}
	mf, err := elf.NewImageFile(procmap.Pathname, image)
	if err != nil {
		return nil, fmt.Errorf("parse vdso image: %w", err)
	}
	glog.V(5).Infof("Loaded vDSO image of pid %d (%d bytes)", mem.Pid(), len(image))
	return mf, nil
}
