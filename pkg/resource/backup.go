package resource

import (
	"io"

	"github.com/tinylib/msgp/msgp"

	"github.com/galpt/datahub/pkg/sample"
)

// BufferBackupRecord is the on-disk record shape for one sample in an
// Observation's buffer, were buffer persistence implemented. It isn't:
// this type and its Encode/Decode exist so the contract is real and
// round-trippable, even though nothing in this module writes it to
// non-volatile storage.
type BufferBackupRecord struct {
	ResourcePath string
	DataType     sample.DataType
	Timestamp    float64
	Boolean      bool
	Numeric      float64
	Text         string
}

// EncodeMsg writes the record as a 6-field MessagePack map, hand-coded
// against the msgp.Writer API the way msgp-generated code would (codegen
// itself was never run, since invoking the Go toolchain is out of scope for
// this port).
func (r *BufferBackupRecord) EncodeMsg(w *msgp.Writer) error {
	if err := w.WriteMapHeader(6); err != nil {
		return err
	}
	fields := []struct {
		key string
		put func() error
	}{
		{"path", func() error { return w.WriteString(r.ResourcePath) }},
		{"type", func() error { return w.WriteUint8(uint8(r.DataType)) }},
		{"ts", func() error { return w.WriteFloat64(r.Timestamp) }},
		{"bool", func() error { return w.WriteBool(r.Boolean) }},
		{"num", func() error { return w.WriteFloat64(r.Numeric) }},
		{"text", func() error { return w.WriteString(r.Text) }},
	}
	for _, f := range fields {
		if err := w.WriteString(f.key); err != nil {
			return err
		}
		if err := f.put(); err != nil {
			return err
		}
	}
	return nil
}

// DecodeMsg reads a record written by EncodeMsg back out.
func (r *BufferBackupRecord) DecodeMsg(rd *msgp.Reader) error {
	n, err := rd.ReadMapHeader()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		key, err := rd.ReadString()
		if err != nil {
			return err
		}
		switch key {
		case "path":
			if r.ResourcePath, err = rd.ReadString(); err != nil {
				return err
			}
		case "type":
			v, err := rd.ReadUint8()
			if err != nil {
				return err
			}
			r.DataType = sample.DataType(v)
		case "ts":
			if r.Timestamp, err = rd.ReadFloat64(); err != nil {
				return err
			}
		case "bool":
			if r.Boolean, err = rd.ReadBool(); err != nil {
				return err
			}
		case "num":
			if r.Numeric, err = rd.ReadFloat64(); err != nil {
				return err
			}
		case "text":
			if r.Text, err = rd.ReadString(); err != nil {
				return err
			}
		default:
			if err := rd.Skip(); err != nil {
				return err
			}
		}
	}
	return nil
}

// EncodeTo writes the record to w as MessagePack.
func (r *BufferBackupRecord) EncodeTo(w io.Writer) error {
	mw := msgp.NewWriter(w)
	if err := r.EncodeMsg(mw); err != nil {
		return err
	}
	return mw.Flush()
}

// DecodeBackupRecord reads one record written by EncodeTo from r.
func DecodeBackupRecord(r io.Reader) (*BufferBackupRecord, error) {
	mr := msgp.NewReader(r)
	rec := &BufferBackupRecord{}
	if err := rec.DecodeMsg(mr); err != nil {
		return nil, err
	}
	return rec, nil
}
