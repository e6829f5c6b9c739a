package proc

import (
	"flag"
	"path"
	"strconv"
)

var (
	procPath = flag.String("proc-path", "/proc", "Path to proc directory")
	hostPath = flag.String("host-path", "/", "The host directory. Useful in container.")
)

func ProcPath(paths ...string) string {
	p := append([]string{*procPath}, paths...)
	return path.Join(p...)
}

func HostProcPath(paths ...string) string {
	if *hostPath == "" || *hostPath == "/" {
		return ProcPath(paths...)
	}
	p := append([]string{*hostPath, *procPath}, paths...)
	return path.Join(p...)
}

// PidPath joins paths under the host proc directory of pid.
func PidPath(pid int, paths ...string) string {
	return HostProcPath(append([]string{strconv.Itoa(pid)}, paths...)...)
}
