package buildid

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/golang/glog"
	"github.com/vietanhduong/buildid/pkg/note"
)

var owners = map[note.Type]string{
	note.NT_GNU_BUILD_ID: "GNU",
	note.NT_GO_BUILD_ID:  "Go",
}

// Scan looks for the first build id of the given types in s, trying the
// types in order.
func Scan(s note.Stream, order binary.ByteOrder, align uint64, types ...note.Type) (*BuildId, error) {
	if s.Empty() {
		return nil, note.ErrEmptyStream
	}
	opts := &note.Options{ByteOrder: order, Align: align}
	for _, typ := range types {
		rec, err := note.Find(s, typ, opts)
		if errors.Is(err, note.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if id := fromRecord(rec); id != nil {
			return id, nil
		}
	}
	return nil, ErrNoBuildId
}

func fromRecord(rec *note.Record) *BuildId {
	if owner, ok := owners[rec.Type]; ok && rec.Name() != owner {
		glog.V(3).Infof("Ignore note type %d at 0x%x owned by %q", rec.Type, rec.Addr, rec.Name())
		return nil
	}
	if rec.Len() == 0 {
		return nil
	}
	raw := make([]byte, rec.Len())
	rec.Read(raw)

	var id BuildId
	switch rec.Type {
	case note.NT_GO_BUILD_ID:
		raw = bytes.TrimRight(raw, "\x00")
		if len(raw) == 0 || string(raw) == "redacted" {
			return nil
		}
		id = GoBuildId(raw)
	default:
		id = GnuBuildId(raw)
	}
	return &id
}

func (m *Module) String() string {
	if m.BuildId != nil {
		return fmt.Sprintf("%s %s %s", m.Path, m.BuildId.Type, m.BuildId.Id)
	}
	return fmt.Sprintf("%s <none>: %v", m.Path, m.Err)
}
