package proc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

const sampleMaps = `55d0a8a00000-55d0a8a02000 r--p 00000000 fd:01 1311030                    /usr/bin/cat
55d0a8a02000-55d0a8a07000 r-xp 00002000 fd:01 1311030                    /usr/bin/cat
55d0a9c1e000-55d0a9c3f000 rw-p 00000000 00:00 0                          [heap]
7f3b1c000000-7f3b1c021000 r-xp 00000000 00:00 0
7f3b1c228000-7f3b1c3bd000 r-xp 00028000 fd:01 1317122                    /usr/lib/x86_64-linux-gnu/libc.so.6
7f3b1c400000-7f3b1c401000 r-xp 00000000 00:05 2048                       /memfd:jit (deleted)
7ffd5f5d3000-7ffd5f5d5000 r-xp 00000000 00:00 0                          [vdso]
ffffffffff600000-ffffffffff601000 --xp 00000000 00:00 0                  [vsyscall]
bogus line
`

func TestParseProcMap(t *testing.T) {
	maps, err := parseProcMap(strings.NewReader(sampleMaps))
	require.NoError(t, err)

	want := []*Map{
		{
			Pathname:   "/usr/bin/cat",
			StartAddr:  0x55d0a8a02000,
			EndAddr:    0x55d0a8a07000,
			Perms:      "r-xp",
			FileOffset: 0x2000,
			DevMajor:   0xfd,
			DevMinor:   0x01,
			Inode:      1311030,
		},
		{
			Pathname:   "/usr/lib/x86_64-linux-gnu/libc.so.6",
			StartAddr:  0x7f3b1c228000,
			EndAddr:    0x7f3b1c3bd000,
			Perms:      "r-xp",
			FileOffset: 0x28000,
			DevMajor:   0xfd,
			DevMinor:   0x01,
			Inode:      1317122,
		},
		{
			Pathname:  "/memfd:jit (deleted)",
			StartAddr: 0x7f3b1c400000,
			EndAddr:   0x7f3b1c401000,
			Perms:     "r-xp",
			DevMajor:  0x00,
			DevMinor:  0x05,
			Inode:     2048,
		},
		{
			Pathname:  "[vdso]",
			StartAddr: 0x7ffd5f5d3000,
			EndAddr:   0x7ffd5f5d5000,
			Perms:     "r-xp",
		},
	}
	if diff := cmp.Diff(want, maps); diff != "" {
		t.Errorf("maps mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, maps[3].IsVDSO())
	assert.Equal(t, uint64(0x5000), maps[0].Size())
	assert.True(t, maps[0].Contains(0x55d0a8a02000))
	assert.False(t, maps[0].Contains(0x55d0a8a07000))
}

func TestParseLine_Errors(t *testing.T) {
	for _, line := range []string{
		"",
		"00400000 r-xp 00000000 08:02 1",
		"zz-00452000 r-xp 00000000 08:02 1 /bin/a",
		"00400000-00452000 r-xp 0000000g 08:02 1 /bin/a",
		"00400000-00452000 r-xp 00000000 0802 1 /bin/a",
		"00400000-00452000 r-xp 00000000 08:02 x /bin/a",
	} {
		_, err := parseLine(line)
		assert.Error(t, err, line)
	}
}

func TestParseProcMap_Self(t *testing.T) {
	maps, err := ParseProcMap(unix.Getpid())
	if err != nil {
		t.Skipf("proc maps unavailable: %v", err)
	}
	assert.NotEmpty(t, maps)
	for _, m := range maps {
		assert.Equal(t, byte('x'), m.Perms[2], m.String())
	}
}

// package level so the backing array never moves
var memProbe = []byte("in-memory note region")

func TestMemory_ReadRange(t *testing.T) {
	mem, err := OpenMemory(unix.Getpid())
	if err != nil {
		t.Skipf("proc mem unavailable: %v", err)
	}
	defer mem.Close()

	want := memProbe
	addr := uint64(uintptr(unsafe.Pointer(&want[0])))

	got, err := mem.ReadRange(addr, addr+uint64(len(want)))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = mem.ReadRange(addr, addr)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, mem.Close())
	_, err = mem.ReadRange(addr, addr+1)
	assert.Error(t, err)
}

func mapOf(t *testing.T, path string) *Map {
	t.Helper()
	var st unix.Stat_t
	require.NoError(t, unix.Stat(path, &st))
	return &Map{
		Pathname: path,
		DevMajor: unix.Major(uint64(st.Dev)),
		DevMinor: unix.Minor(uint64(st.Dev)),
		Inode:    st.Ino,
	}
}

func TestMap_File(t *testing.T) {
	dir := t.TempDir()
	mapped := filepath.Join(dir, "libfoo.so")
	other := filepath.Join(dir, "libbar.so")
	require.NoError(t, os.WriteFile(mapped, []byte("foo"), 0o644))
	require.NoError(t, os.WriteFile(other, []byte("bar"), 0o644))

	m := mapOf(t, mapped)
	f := m.File()
	assert.Equal(t, mapped, f.Path)
	assert.Equal(t, m.Inode, f.Inode)

	assert.True(t, f.SameFile(mapped))
	assert.False(t, f.SameFile(other))
	assert.False(t, f.SameFile(filepath.Join(dir, "missing.so")))

	// a file replaced at the same path gets a new inode
	require.NoError(t, os.Remove(mapped))
	require.NoError(t, os.WriteFile(mapped, []byte("foo2"), 0o644))
	replaced := mapOf(t, mapped)
	if replaced.Inode != m.Inode {
		assert.False(t, f.SameFile(mapped))
	}
}
