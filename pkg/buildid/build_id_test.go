package buildid

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vietanhduong/buildid/pkg/note"
)

func appendNote(buf *bytes.Buffer, typ note.Type, name string, desc []byte) {
	pad := func(n int) int { return (n + 3) &^ 3 }
	var hdr [note.HeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(len(name)))
	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(desc)))
	binary.LittleEndian.PutUint32(hdr[8:], uint32(typ))
	buf.Write(hdr[:])
	buf.WriteString(name)
	buf.Write(make([]byte, pad(len(name))-len(name)))
	buf.Write(desc)
	buf.Write(make([]byte, pad(len(desc))-len(desc)))
}

func TestScan(t *testing.T) {
	gnu := []byte{0x8e, 0x1b, 0x77, 0x01, 0xde, 0xad, 0xbe, 0xef}
	goid := []byte("Ab1/Cd2/Ef3/Gh4\x00")

	var buf bytes.Buffer
	appendNote(&buf, 1, "GNU\x00", []byte{0, 0, 0, 0, 3, 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0})
	appendNote(&buf, note.NT_GO_BUILD_ID, "Go\x00\x00", goid)
	appendNote(&buf, note.NT_GNU_BUILD_ID, "GNU\x00", gnu)
	s := note.Stream{Addr: 0x400200, Data: buf.Bytes()}

	id, err := Scan(s, binary.LittleEndian, 4, note.NT_GNU_BUILD_ID, note.NT_GO_BUILD_ID)
	require.NoError(t, err)
	assert.Equal(t, GNU, id.Type)
	assert.Equal(t, "8e1b7701deadbeef", id.Id)
	assert.Equal(t, gnu, id.Raw)
	assert.True(t, id.GNU())

	id, err = Scan(s, binary.LittleEndian, 4, note.NT_GO_BUILD_ID, note.NT_GNU_BUILD_ID)
	require.NoError(t, err)
	assert.Equal(t, GO, id.Type)
	assert.Equal(t, "Ab1/Cd2/Ef3/Gh4", id.String())
	assert.Empty(t, id.DebugFile())

	_, err = Scan(s, binary.LittleEndian, 4, 99)
	assert.ErrorIs(t, err, ErrNoBuildId)
	assert.ErrorIs(t, err, note.ErrNotFound)
}

func TestScan_Rejects(t *testing.T) {
	tests := []struct {
		name string
		typ  note.Type
		own  string
		desc []byte
	}{
		{"foreign owner", note.NT_GNU_BUILD_ID, "FreeBSD\x00", []byte{1, 2, 3, 4}},
		{"empty descriptor", note.NT_GNU_BUILD_ID, "GNU\x00", nil},
		{"redacted go id", note.NT_GO_BUILD_ID, "Go\x00\x00", []byte("redacted")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			appendNote(&buf, tt.typ, tt.own, tt.desc)
			_, err := Scan(note.Stream{Data: buf.Bytes()}, binary.LittleEndian, 4, tt.typ)
			assert.ErrorIs(t, err, ErrNoBuildId)
		})
	}
}

func TestScan_EmptyAndMalformed(t *testing.T) {
	_, err := Scan(note.Stream{Addr: 0x1000}, binary.LittleEndian, 4, note.NT_GNU_BUILD_ID)
	assert.ErrorIs(t, err, note.ErrEmptyStream)

	var buf bytes.Buffer
	appendNote(&buf, note.NT_GNU_BUILD_ID, "GNU\x00", []byte{1, 2, 3, 4})
	_, err = Scan(note.Stream{Data: buf.Bytes()[:18]}, binary.LittleEndian, 4, note.NT_GNU_BUILD_ID)
	assert.ErrorIs(t, err, note.ErrMalformedStream)
}

func TestBuildId_DebugFile(t *testing.T) {
	id := GnuBuildId([]byte{0xab, 0xcd, 0xef, 0x01})
	assert.Equal(t, "abcdef01", id.Id)
	assert.Equal(t, "/usr/lib/debug/.build-id/ab/cdef01.debug", id.DebugFile())
	assert.Empty(t, GnuBuildId([]byte{0xab}).DebugFile())
}
