package proc

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/golang/glog"
)

// ParseProcMap returns the executable mappings of pid that are backed by a
// file, plus the vDSO.
func ParseProcMap(pid int) ([]*Map, error) {
	mapfile := PidPath(pid, "maps")
	f, err := os.Open(mapfile)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", mapfile, err)
	}
	defer f.Close()

	ret, err := parseProcMap(f)
	if err != nil {
		return nil, fmt.Errorf("parse proc map %s: %w", mapfile, err)
	}
	return ret, nil
}

func parseProcMap(r io.Reader) ([]*Map, error) {
	var ret []*Map
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		m, err := parseLine(line)
		if err != nil {
			glog.V(5).Infof("Skip proc map line %q: %v", line, err)
			continue
		}
		if len(m.Perms) != 4 || m.Perms[2] != 'x' { // executable only
			continue
		}
		if isAnonymous(m.Pathname) {
			continue
		}
		ret = append(ret, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

// parseLine parses one line of /proc/<pid>/maps:
//
//	address           perms offset  dev   inode   pathname
//	00400000-00452000 r-xp 00000000 08:02 173521  /usr/bin/dbus-daemon
func parseLine(line string) (*Map, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return nil, fmt.Errorf("too few fields: %d", len(fields))
	}

	var m Map
	var err error
	start, end, ok := strings.Cut(fields[0], "-")
	if !ok {
		return nil, fmt.Errorf("invalid address range %s", fields[0])
	}
	if m.StartAddr, err = strconv.ParseUint(start, 16, 64); err != nil {
		return nil, fmt.Errorf("parse start address: %w", err)
	}
	if m.EndAddr, err = strconv.ParseUint(end, 16, 64); err != nil {
		return nil, fmt.Errorf("parse end address: %w", err)
	}
	m.Perms = fields[1]
	if m.FileOffset, err = strconv.ParseUint(fields[2], 16, 64); err != nil {
		return nil, fmt.Errorf("parse offset: %w", err)
	}
	major, minor, ok := strings.Cut(fields[3], ":")
	if !ok {
		return nil, fmt.Errorf("invalid device %s", fields[3])
	}
	dev, err := strconv.ParseUint(major, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("parse device major: %w", err)
	}
	m.DevMajor = uint32(dev)
	if dev, err = strconv.ParseUint(minor, 16, 32); err != nil {
		return nil, fmt.Errorf("parse device minor: %w", err)
	}
	m.DevMinor = uint32(dev)
	if m.Inode, err = strconv.ParseUint(fields[4], 10, 64); err != nil {
		return nil, fmt.Errorf("parse inode: %w", err)
	}
	if len(fields) > 5 {
		// pathnames may contain spaces
		m.Pathname = strings.Join(fields[5:], " ")
	}
	return &m, nil
}

func isAnonymous(mapname string) bool {
	return mapname == "" || strings.HasPrefix(mapname, "//anon") ||
		strings.HasPrefix(mapname, "/dev/zero") ||
		strings.HasPrefix(mapname, "/anon_hugepage") ||
		strings.HasPrefix(mapname, "[stack") ||
		strings.HasPrefix(mapname, "/SYSV") ||
		strings.HasPrefix(mapname, "[heap]") ||
		strings.HasPrefix(mapname, "[vsyscall]") ||
		strings.HasPrefix(mapname, "[anon:")
}
